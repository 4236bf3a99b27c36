package model

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

// NoSelection marks a question the respondent left unanswered.
const NoSelection = "none"

// Question is a single multiple-choice question as it appears in a test file.
type Question struct {
	Prompt        string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer"`
}

// Option is the parsed form of an option string such as "A) Paris".
type Option struct {
	ID   string
	Text string
}

// QuestionSet is the loaded collection of questions for one test.
type QuestionSet struct {
	SourceID  string     `json:"source_id"`
	Questions []Question `json:"questions"`
}

// Len returns the number of questions in the set.
func (qs QuestionSet) Len() int {
	return len(qs.Questions)
}

// AnswerRecord holds per-question correctness for one submission.
type AnswerRecord []bool

// HistoryEntry is one persisted submission. The JSON layout matches the
// format stored by earlier versions of the runner.
type HistoryEntry struct {
	Date     string       `json:"date"`
	SourceID string       `json:"test"`
	Answers  AnswerRecord `json:"results"`
}

// HistoryLog is the append-only list of submissions, oldest first.
type HistoryLog []HistoryEntry

// Summary aggregates an AnswerRecord.
type Summary struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Defined reports whether Percentage is a number. It is NaN when Total is zero.
func (s Summary) Defined() bool {
	return !math.IsNaN(s.Percentage)
}

// MarshalJSON writes a NaN percentage as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias struct {
		Correct    int      `json:"correct"`
		Total      int      `json:"total"`
		Percentage *float64 `json:"percentage"`
	}
	a := alias{Correct: s.Correct, Total: s.Total}
	if s.Defined() {
		p := s.Percentage
		a.Percentage = &p
	}
	return json.Marshal(a)
}

// HistoryRow is the summarized view of one HistoryEntry.
type HistoryRow struct {
	Date     string `json:"date"`
	SourceID string `json:"test"`
	Summary
}

// MarshalJSON flattens the embedded summary next to date and test.
func (r HistoryRow) MarshalJSON() ([]byte, error) {
	summary, err := r.Summary.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(summary, &fields); err != nil {
		return nil, err
	}
	fields["date"] = r.Date
	fields["test"] = r.SourceID
	return json.Marshal(fields)
}

// Submission is the outcome of scoring and recording one attempt.
type Submission struct {
	QuestionSet QuestionSet  `json:"question_set"`
	Answers     AnswerRecord `json:"answers"`
	Entry       HistoryEntry `json:"entry"`
	Summary     Summary      `json:"summary"`
}

// Config holds runtime parameters set via CLI flags, environment, or config file.
type Config struct {
	Addr         string
	DBDriver     string // sqlite or postgres
	DBDSN        string
	TestsDir     string
	TestsURL     string // when set, tests are fetched over HTTP instead of from TestsDir
	FetchTimeout time.Duration
	DefaultTest  string
	DateLocale   string // BCP 47 tag used to format history dates
	CORSOrigins  []string
	BasePath     string // URL prefix for sub-path deployments
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
