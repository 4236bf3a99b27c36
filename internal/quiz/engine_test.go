package quiz

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/quizrunner/internal/datefmt"
	"github.com/pavelanni/quizrunner/internal/model"
)

func TestDecodeQuestionSet_Valid(t *testing.T) {
	qs, err := DecodeQuestionSet("geo.json", []byte(threeQuestions))
	require.NoError(t, err)

	assert.Equal(t, "geo.json", qs.SourceID)
	require.Len(t, qs.Questions, 3)
	assert.Equal(t, "Capital of France?", qs.Questions[0].Prompt)
	assert.Equal(t, []string{"A) Paris", "B) Rome"}, qs.Questions[0].Options)
	assert.Equal(t, "C", qs.Questions[2].CorrectAnswer)
}

func TestDecodeQuestionSet_YAML(t *testing.T) {
	data := []byte(`questions:
  - question: "Capital of Spain?"
    options: ["A) Madrid", "B) Lisbon"]
    correctAnswer: A
`)
	qs, err := DecodeQuestionSet("spain.yaml", data)
	require.NoError(t, err)
	require.Len(t, qs.Questions, 1)
	assert.Equal(t, "A", qs.Questions[0].CorrectAnswer)
	assert.Equal(t, "A) Madrid", qs.Questions[0].Options[0])
}

func TestDecodeQuestionSet_SchemaErrors(t *testing.T) {
	testCases := []struct {
		name string
		id   string
		data string
	}{
		{"missing questions", "a.json", `{"title": "no questions here"}`},
		{"questions not a sequence", "b.json", `{"questions": {"0": "x"}}`},
		{"questions is null", "c.json", `{"questions": null}`},
		{"document is an array", "d.json", `[{"question": "x"}]`},
		{"invalid json", "e.json", `{invalid json}`},
		{"invalid yaml", "f.yml", "questions: [unclosed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeQuestionSet(tc.id, []byte(tc.data))
			require.Error(t, err)

			var se *SchemaError
			require.True(t, errors.As(err, &se), "want *SchemaError, got %T", err)
			assert.Equal(t, tc.id, se.SourceID)
			assert.True(t, IsLoadError(err))
		})
	}
}

func TestLoadQuestionSet_Permissive(t *testing.T) {
	raw := map[string]any{
		"questions": []any{
			map[string]any{"question": "No options"},
			"not an object",
			map[string]any{"question": 42.0, "options": []any{"A) x", 7.0}, "correctAnswer": 1.0},
		},
	}
	qs, err := LoadQuestionSet("loose.json", raw)
	require.NoError(t, err)
	require.Len(t, qs.Questions, 3)

	assert.Equal(t, "No options", qs.Questions[0].Prompt)
	assert.Empty(t, qs.Questions[0].Options)
	assert.Equal(t, model.Question{}, qs.Questions[1])
	assert.Equal(t, "42", qs.Questions[2].Prompt)
	assert.Equal(t, []string{"A) x", "7"}, qs.Questions[2].Options)
	assert.Empty(t, qs.Questions[2].CorrectAnswer, "non-string answer keys never match")
}

func TestLoadQuestionSet_EmptySequence(t *testing.T) {
	qs, err := LoadQuestionSet("empty.json", map[string]any{"questions": []any{}})
	require.NoError(t, err)
	assert.Equal(t, 0, qs.Len())
}

func TestScore(t *testing.T) {
	qs := questionSet("t.json", "A", "B", "C")

	testCases := []struct {
		name       string
		selections map[int]string
		want       model.AnswerRecord
	}{
		{"unknown option scores false", map[int]string{0: "A", 1: "X", 2: "C"}, model.AnswerRecord{true, false, true}},
		{"all correct", map[int]string{0: "A", 1: "B", 2: "C"}, model.AnswerRecord{true, true, true}},
		{"nothing selected", nil, model.AnswerRecord{false, false, false}},
		{"none sentinel", map[int]string{0: model.NoSelection, 1: "B"}, model.AnswerRecord{false, true, false}},
		{"out of range index ignored", map[int]string{5: "A", -1: "A"}, model.AnswerRecord{false, false, false}},
		{"case sensitive", map[int]string{0: "a"}, model.AnswerRecord{false, false, false}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(qs, tc.selections)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, qs.Len())
		})
	}
}

func TestScore_ParsedOptionIdentifiers(t *testing.T) {
	qs, err := DecodeQuestionSet("words.json", []byte(`{"questions": [
		{"question": "Capital of France?", "options": ["Option A) Paris", "Option B) Rome"], "correctAnswer": "Option A"},
		{"question": "Capital of Italy?", "options": ["Paris (France)", "Rome (Italy)"], "correctAnswer": "Rome (Italy)"}
	]}`))
	require.NoError(t, err)

	first := Options(qs.Questions[0])
	second := Options(qs.Questions[1])
	got := Score(qs, map[int]string{0: first[0].ID, 1: second[1].ID})
	assert.Equal(t, model.AnswerRecord{true, true}, got)

	got = Score(qs, map[int]string{0: first[1].ID, 1: second[0].ID})
	assert.Equal(t, model.AnswerRecord{false, false}, got)
}

func TestScore_EmptySetYieldsEmptyRecord(t *testing.T) {
	got := Score(model.QuestionSet{}, map[int]string{0: "A"})
	assert.Empty(t, got)
}

func TestSummarize(t *testing.T) {
	testCases := []struct {
		name    string
		answers model.AnswerRecord
		correct int
		total   int
		pct     float64
	}{
		{"two of three", model.AnswerRecord{true, false, true}, 2, 3, 66.67},
		{"all wrong", model.AnswerRecord{false, false}, 0, 2, 0},
		{"all correct", model.AnswerRecord{true, true, true, true}, 4, 4, 100},
		{"one of six", model.AnswerRecord{true, false, false, false, false, false}, 1, 6, 16.67},
		{"one of eight", model.AnswerRecord{true, false, false, false, false, false, false, false}, 1, 8, 12.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(tc.answers)
			assert.Equal(t, tc.correct, s.Correct)
			assert.Equal(t, tc.total, s.Total)
			assert.Equal(t, tc.pct, s.Percentage)
			assert.True(t, s.Defined())
			assert.Equal(t, s, Summarize(tc.answers), "Summarize must be pure")
		})
	}
}

func TestSummarize_ZeroQuestions(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Correct)
	assert.Equal(t, 0, s.Total)
	assert.True(t, math.IsNaN(s.Percentage))
	assert.False(t, s.Defined())
	assert.Equal(t, "NaN", FormatPercentage(s))

	_, err := SummarizeStrict(model.AnswerRecord{})
	assert.ErrorIs(t, err, ErrDegenerateScore)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"correct":0,"total":0,"percentage":null}`, string(data))
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "66.67", FormatPercentage(Summarize(model.AnswerRecord{true, false, true})))
	assert.Equal(t, "0.00", FormatPercentage(Summarize(model.AnswerRecord{false, false})))
	assert.Equal(t, "100.00", FormatPercentage(Summarize(model.AnswerRecord{true})))
}

func TestRecordResult_AppendOnly(t *testing.T) {
	now := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
	dates := datefmt.Default()

	base := model.HistoryLog{
		{Date: "10/17/2026", SourceID: "a.json", Answers: model.AnswerRecord{true}},
		{Date: "10/17/2026", SourceID: "b.json", Answers: model.AnswerRecord{false, true}},
	}
	snapshot := append(model.HistoryLog(nil), base...)
	answers := model.AnswerRecord{true, false, true}

	got := RecordResult(base, "c.json", answers, now, dates)

	require.Len(t, got, len(base)+1)
	assert.Equal(t, snapshot, got[:len(base)], "prefix must equal the previous log")
	assert.Equal(t, snapshot, base, "input log must not change")
	assert.Equal(t, model.HistoryEntry{
		Date:     "10/18/2026",
		SourceID: "c.json",
		Answers:  model.AnswerRecord{true, false, true},
	}, got[len(got)-1])

	answers[0] = false
	assert.True(t, got[len(got)-1].Answers[0], "entry must not alias the caller's record")
}

func TestRecordResult_NoDeduplication(t *testing.T) {
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	var log model.HistoryLog
	for i := 0; i < 3; i++ {
		log = RecordResult(log, "same.json", model.AnswerRecord{true}, now, datefmt.Default())
	}
	assert.Len(t, log, 3)
}

func TestSummarizeHistory(t *testing.T) {
	log := model.HistoryLog{
		{Date: "1/1/2026", SourceID: "a.json", Answers: model.AnswerRecord{true, false, true}},
		{Date: "1/2/2026", SourceID: "b.json", Answers: model.AnswerRecord{false, false}},
		{Date: "1/3/2026", SourceID: "c.json", Answers: nil},
	}

	rows := SummarizeHistory(log)
	require.Len(t, rows, 3)
	assert.Equal(t, "a.json", rows[0].SourceID)
	assert.Equal(t, 2, rows[0].Correct)
	assert.Equal(t, 66.67, rows[0].Percentage)
	assert.Equal(t, "1/2/2026", rows[1].Date)
	assert.Equal(t, 0.0, rows[1].Percentage)
	assert.False(t, rows[2].Defined())

	assert.Empty(t, SummarizeHistory(ClearHistory()))
}

func TestHistoryEntry_JSONLayout(t *testing.T) {
	entry := model.HistoryEntry{Date: "10/18/2026", SourceID: "geo.json", Answers: model.AnswerRecord{true, false}}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"10/18/2026","test":"geo.json","results":[true,false]}`, string(data))

	row := SummarizeHistory(model.HistoryLog{entry})[0]
	data, err = json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"10/18/2026","test":"geo.json","correct":1,"total":2,"percentage":50}`, string(data))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "geography", DisplayName("geography.json"))
	assert.Equal(t, "math", DisplayName("math.yaml"))
	assert.Equal(t, "plain", DisplayName("plain"))
}

func TestFingerprint(t *testing.T) {
	a := questionSet("a.json", "A", "B")
	b := questionSet("b.json", "A", "B")
	assert.Equal(t, Fingerprint(a), Fingerprint(b), "only the questions count")
	assert.Len(t, Fingerprint(a), 64)

	c := questionSet("a.json", "A", "C")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
