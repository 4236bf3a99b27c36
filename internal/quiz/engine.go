package quiz

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/quizrunner/internal/datefmt"
	"github.com/pavelanni/quizrunner/internal/model"
)

// LoadQuestionSet builds a QuestionSet from an unstructured decoded value.
// The value must be an object whose "questions" field is a sequence; the
// fields of each question are read as-is without further validation.
func LoadQuestionSet(sourceID string, raw any) (model.QuestionSet, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return model.QuestionSet{}, &SchemaError{SourceID: sourceID, Reason: "document is not an object"}
	}
	field, ok := doc["questions"]
	if !ok {
		return model.QuestionSet{}, &SchemaError{SourceID: sourceID, Reason: `missing "questions" field`}
	}
	items, ok := field.([]any)
	if !ok {
		return model.QuestionSet{}, &SchemaError{SourceID: sourceID, Reason: `"questions" is not a sequence`}
	}

	qs := model.QuestionSet{
		SourceID:  sourceID,
		Questions: make([]model.Question, 0, len(items)),
	}
	for i, item := range items {
		q := questionFromValue(item)
		if dups := duplicateIDs(q); len(dups) > 0 {
			slog.Warn("question has duplicate choice identifiers",
				"source", sourceID, "question", i+1, "ids", dups)
		}
		qs.Questions = append(qs.Questions, q)
	}
	return qs, nil
}

// DecodeQuestionSet decodes a JSON document (YAML when sourceID ends in
// .yaml or .yml) and loads it with LoadQuestionSet.
func DecodeQuestionSet(sourceID string, data []byte) (model.QuestionSet, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(sourceID)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return model.QuestionSet{}, &SchemaError{SourceID: sourceID, Reason: "parse yaml", Err: err}
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return model.QuestionSet{}, &SchemaError{SourceID: sourceID, Reason: "parse json", Err: err}
		}
	}
	return LoadQuestionSet(sourceID, raw)
}

func questionFromValue(v any) model.Question {
	obj, ok := v.(map[string]any)
	if !ok {
		return model.Question{}
	}
	q := model.Question{
		Prompt: scalarText(obj["question"]),
	}
	// Compared with the selection verbatim, so only real strings can match.
	q.CorrectAnswer, _ = obj["correctAnswer"].(string)
	if opts, ok := obj["options"].([]any); ok {
		q.Options = make([]string, 0, len(opts))
		for _, o := range opts {
			q.Options = append(q.Options, scalarText(o))
		}
	}
	return q
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Score compares selections (question index to chosen identifier) with the
// answer key. Missing selections and model.NoSelection count as incorrect.
func Score(qs model.QuestionSet, selections map[int]string) model.AnswerRecord {
	answers := make(model.AnswerRecord, len(qs.Questions))
	for i, q := range qs.Questions {
		sel, ok := selections[i]
		if !ok || sel == model.NoSelection {
			continue
		}
		answers[i] = sel == q.CorrectAnswer
	}
	return answers
}

// RecordResult returns a new log with one entry appended for this submission.
// The input log is left untouched.
func RecordResult(log model.HistoryLog, sourceID string, answers model.AnswerRecord, now time.Time, dates datefmt.Formatter) model.HistoryLog {
	out := make(model.HistoryLog, len(log), len(log)+1)
	copy(out, log)
	return append(out, model.HistoryEntry{
		Date:     dates.Format(now),
		SourceID: sourceID,
		Answers:  append(model.AnswerRecord(nil), answers...),
	})
}

// Summarize counts correct answers and computes the percentage rounded to
// two decimals. The percentage is NaN when answers is empty.
func Summarize(answers model.AnswerRecord) model.Summary {
	s := model.Summary{Total: len(answers)}
	for _, ok := range answers {
		if ok {
			s.Correct++
		}
	}
	if s.Total == 0 {
		s.Percentage = math.NaN()
		return s
	}
	s.Percentage = math.Round(float64(s.Correct)/float64(s.Total)*100*100) / 100
	return s
}

// SummarizeStrict is Summarize for callers that treat an empty record as an error.
func SummarizeStrict(answers model.AnswerRecord) (model.Summary, error) {
	s := Summarize(answers)
	if !s.Defined() {
		return s, ErrDegenerateScore
	}
	return s, nil
}

// SummarizeHistory summarizes every entry, keeping log order.
func SummarizeHistory(log model.HistoryLog) []model.HistoryRow {
	rows := make([]model.HistoryRow, 0, len(log))
	for _, e := range log {
		rows = append(rows, model.HistoryRow{
			Date:     e.Date,
			SourceID: e.SourceID,
			Summary:  Summarize(e.Answers),
		})
	}
	return rows
}

// ClearHistory returns the empty log.
func ClearHistory() model.HistoryLog {
	return model.HistoryLog{}
}

// FormatPercentage renders a summary percentage with two decimals, or "NaN"
// for an empty record.
func FormatPercentage(s model.Summary) string {
	if !s.Defined() {
		return "NaN"
	}
	return strconv.FormatFloat(s.Percentage, 'f', 2, 64)
}

// DisplayName strips the file extension from a test identifier.
func DisplayName(sourceID string) string {
	return strings.TrimSuffix(sourceID, filepath.Ext(sourceID))
}

// Fingerprint identifies the questions of qs by content. A form rendered
// from one version of a document carries it so a submission can be checked
// against the version loaded at submit time.
func Fingerprint(qs model.QuestionSet) string {
	data, err := json.Marshal(qs.Questions)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
