// Package views renders the HTML pages of the web interface as templ components.
package views

//go:generate templ generate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// FingerprintField is the hidden form field carrying quiz.Fingerprint of the
// rendered question set.
const FingerprintField = "fingerprint"

// FieldName is the form field carrying the selection for question i.
func FieldName(i int) string {
	return fmt.Sprintf("q%d", i)
}

func t(ctx context.Context, msgID string) string { return i18n.T(ctx, msgID) }

func td(ctx context.Context, msgID string, data map[string]any) string {
	return i18n.Td(ctx, msgID, data)
}

func tp(ctx context.Context, msgID string, count int) string { return i18n.Tp(ctx, msgID, count) }

func displayName(sourceID string) string {
	return quiz.DisplayName(sourceID)
}

// href prefixes path with the deployment base path.
func href(ctx context.Context, path string) string {
	return model.BasePathFromContext(ctx) + path
}

func testPath(ctx context.Context, sourceID string) string {
	return href(ctx, "/tests/"+url.PathEscape(sourceID))
}

func selectedID(qs *model.QuestionSet) string {
	if qs == nil {
		return ""
	}
	return qs.SourceID
}

func fingerprint(qs model.QuestionSet) string { return quiz.Fingerprint(qs) }

func options(q model.Question) []model.Option { return quiz.Options(q) }

func optionDOMID(i, j int) string {
	return fmt.Sprintf("q%d-%d", i, j)
}

func questionLabel(ctx context.Context, i int) string {
	return i18n.Td(ctx, "QuestionN", map[string]any{"N": i + 1})
}

func answeredCorrectly(answers model.AnswerRecord, i int) bool {
	return i < len(answers) && answers[i]
}

func yourAnswer(ctx context.Context, selections map[int]string, i int) string {
	chosen, ok := selections[i]
	if !ok || chosen == "" || chosen == model.NoSelection {
		chosen = i18n.T(ctx, "NoAnswer")
	}
	return i18n.Td(ctx, "YourAnswer", map[string]any{"Answer": chosen})
}

func percentage(s model.Summary) string {
	return quiz.FormatPercentage(s)
}

var historyHeaders = []string{"HistoryDate", "HistoryTest", "HistoryCorrect", "HistoryTotal", "HistoryPercentage"}

func historyCells(r model.HistoryRow) []string {
	return []string{
		r.Date,
		displayName(r.SourceID),
		strconv.Itoa(r.Correct),
		strconv.Itoa(r.Total),
		quiz.FormatPercentage(r.Summary) + "%",
	}
}

const styleTag = `<style>
body{font-family:system-ui,sans-serif;max-width:52rem;margin:0 auto;padding:1rem;color:#222}
header{display:flex;justify-content:space-between;align-items:baseline;border-bottom:1px solid #ddd}
header h1 a{color:inherit;text-decoration:none}
nav a{margin-left:1rem}
.question{margin:1.2rem 0;padding:.8rem;border:1px solid #eee;border-radius:6px}
.question.correct{border-color:#2e7d32}
.question.incorrect{border-color:#c62828}
.answer-correct{color:#2e7d32;font-weight:600}
.results-message{margin-top:1.5rem}
.history-table{border-collapse:collapse;width:100%}
.history-table th,.history-table td{border:1px solid #ddd;padding:.4rem .6rem;text-align:left}
.error{color:#c62828}
</style>`
