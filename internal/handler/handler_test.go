package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
	"github.com/pavelanni/quizrunner/internal/source"
	"github.com/pavelanni/quizrunner/internal/store"
)

const geography = `{"questions": [
	{"question": "Capital of France?", "options": ["A) Paris", "B) Rome"], "correctAnswer": "A"},
	{"question": "Capital of Italy?", "options": ["A) Paris", "B) Rome"], "correctAnswer": "B"},
	{"question": "Capital of <Spain>?", "options": ["A) Madrid", "B) Lisbon", "C) Porto"], "correctAnswer": "A"}
]}`

func newTestHandler(t *testing.T, cfg model.Config) (http.Handler, *store.Store) {
	t.Helper()
	h, st, _ := newTestHandlerWithDir(t, cfg)
	return h, st
}

// newTestHandlerWithDir also returns the directory the tests are served from.
func newTestHandlerWithDir(t *testing.T, cfg model.Config) (http.Handler, *store.Store, string) {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geography.json"), []byte(geography), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title": "x"}`), 0o644))

	src, err := source.NewDir(dir)
	require.NoError(t, err)
	st, err := store.New(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := func() time.Time { return time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC) }
	svc := quiz.NewService(src, st, quiz.WithClock(clock))
	h, err := New(svc, cfg)
	require.NoError(t, err)
	return h.Router("en"), st, dir
}

func do(t *testing.T, h http.Handler, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}

func TestIndexListsTests(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Quiz Runner")
	assert.Contains(t, body, `href="/tests/geography.json"`)
	assert.Contains(t, body, "2 tests available.")
	assert.NotContains(t, body, "<form class=\"test-form\"")
}

func TestIndexWithDefaultTest(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{DefaultTest: "geography.json"})

	rec := do(t, h, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/tests/geography.json/submit"`)
}

func TestTestPage(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/tests/geography.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="q0"`)
	assert.Contains(t, body, `value="C"`)
	assert.Contains(t, body, "Capital of &lt;Spain&gt;?")
	assert.Contains(t, body, "3 questions")
}

func TestTestPageLoadErrors(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/tests/missing.json", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not load the test missing.")

	rec = do(t, h, http.MethodGet, "/tests/broken.json", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a valid question set")
}

func TestSubmitAndHistory(t *testing.T) {
	h, st := newTestHandler(t, model.Config{})

	rec := postForm(t, h, "/tests/geography.json/submit", url.Values{"q0": {"A"}, "q1": {"A"}, "q2": {"A"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Correct answers: 2 of 3")
	assert.Contains(t, body, "Percentage: 66.67%")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Correct answer: B")

	log, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, model.HistoryEntry{
		Date:     "10/18/2026",
		SourceID: "geography.json",
		Answers:  model.AnswerRecord{true, false, true},
	}, log[0])

	rec = do(t, h, http.MethodGet, "/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "<td>geography</td>")
	assert.Contains(t, body, "<td>66.67%</td>")
	assert.Contains(t, body, "<td>10/18/2026</td>")
}

func TestSubmitNothingSelected(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := postForm(t, h, "/tests/geography.json/submit", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct answers: 0 of 3")
	assert.Contains(t, rec.Body.String(), "Percentage: 0.00%")
}

func TestSubmitLoadErrorRecordsNothing(t *testing.T) {
	h, st := newTestHandler(t, model.Config{})

	rec := postForm(t, h, "/tests/broken.json/submit", url.Values{"q0": {"A"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	log, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, log)
}

var fingerprintRe = regexp.MustCompile(`name="fingerprint" value="([0-9a-f]+)"`)

func renderedFingerprint(t *testing.T, h http.Handler, target string) string {
	t.Helper()
	rec := do(t, h, http.MethodGet, target, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := fingerprintRe.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2, "form carries the question set fingerprint")
	return m[1]
}

func TestSubmitRejectsChangedTest(t *testing.T) {
	h, st, dir := newTestHandlerWithDir(t, model.Config{})
	ctx := context.Background()

	stale := renderedFingerprint(t, h, "/tests/geography.json")
	qs, err := quiz.DecodeQuestionSet("geography.json", []byte(geography))
	require.NoError(t, err)
	assert.Equal(t, quiz.Fingerprint(qs), stale)

	changed := strings.Replace(geography, `"correctAnswer": "B"`, `"correctAnswer": "A"`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geography.json"), []byte(changed), 0o644))

	rec := postForm(t, h, "/tests/geography.json/submit", url.Values{
		"q0": {"A"}, "q1": {"B"}, "fingerprint": {stale},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "changed after it was shown")
	log, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, log, "a rejected submission records nothing")

	fresh := renderedFingerprint(t, h, "/tests/geography.json")
	assert.NotEqual(t, stale, fresh)
	rec = postForm(t, h, "/tests/geography.json/submit", url.Values{
		"q0": {"A"}, "q1": {"A"}, "fingerprint": {fresh},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct answers: 2 of 3")

	// Forms without a fingerprint are scored against the current version.
	rec = postForm(t, h, "/tests/geography.json/submit", url.Values{"q0": {"A"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRejectsChangedTest(t *testing.T) {
	h, _, dir := newTestHandlerWithDir(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/api/tests/geography.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := strings.Trim(rec.Header().Get("ETag"), `"`)
	require.NotEmpty(t, etag)

	rec = do(t, h, http.MethodPost, "/api/tests/geography.json/submit",
		`{"selections": {"0": "A"}, "fingerprint": "`+etag+`"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	changed := strings.Replace(geography, "Capital of France?", "Capital of Germany?", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geography.json"), []byte(changed), 0o644))

	rec = do(t, h, http.MethodPost, "/api/tests/geography.json/submit",
		`{"selections": {"0": "A"}, "fingerprint": "`+etag+`"}`, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"test_changed"`)
}

func TestMultiWordOptionIdentifiers(t *testing.T) {
	h, _, dir := newTestHandlerWithDir(t, model.Config{})
	doc := `{"questions": [
		{"question": "Capital of France?", "options": ["Option A) Paris", "Option B) Rome"], "correctAnswer": "Option A"}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "words.json"), []byte(doc), 0o644))

	rec := do(t, h, http.MethodGet, "/tests/words.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Option A"`)

	rec = postForm(t, h, "/tests/words.json/submit", url.Values{"q0": {"Option A"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Correct answers: 1 of 1")
	assert.Contains(t, body, `<li class="answer-correct">Option A) Paris</li>`)
}

func TestHistoryEmpty(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No saved results.")
}

func TestClearHistory(t *testing.T) {
	h, st := newTestHandler(t, model.Config{})
	postForm(t, h, "/tests/geography.json/submit", url.Values{"q0": {"A"}})

	rec := do(t, h, http.MethodGet, "/history/clear", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to clear the history?")

	rec = postForm(t, h, "/history/clear", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	log, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, log, 1)

	rec = postForm(t, h, "/history/clear", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "History has been cleared.")

	rec = do(t, h, http.MethodGet, "/history", "", "")
	assert.Contains(t, rec.Body.String(), "No saved results.")
}

func TestAPI(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/api/tests", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tests": ["broken.json", "geography.json"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/tests/geography.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var qs model.QuestionSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qs))
	assert.Equal(t, 3, qs.Len())

	rec = do(t, h, http.MethodPost, "/api/tests/geography.json/submit",
		`{"selections": {"0": "A", "1": "B", "2": "C"}}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var sub struct {
		Answers []bool `json:"answers"`
		Summary struct {
			Correct    int     `json:"correct"`
			Total      int     `json:"total"`
			Percentage float64 `json:"percentage"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, []bool{true, true, false}, sub.Answers)
	assert.Equal(t, 2, sub.Summary.Correct)
	assert.Equal(t, 66.67, sub.Summary.Percentage)

	rec = do(t, h, http.MethodGet, "/api/history", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"history": [{"date": "10/18/2026", "test": "geography.json", "correct": 2, "total": 3, "percentage": 66.67}]}`,
		rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/history", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "confirmation_required")

	rec = do(t, h, http.MethodDelete, "/api/history?confirm=yes", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/history", "", "")
	assert.JSONEq(t, `{"history": []}`, rec.Body.String())
}

func TestAPIErrors(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{})

	rec := do(t, h, http.MethodGet, "/api/tests/missing.json", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"fetch"`)

	rec = do(t, h, http.MethodPost, "/api/tests/broken.json/submit", `{"selections": {}}`, "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"schema"`)

	rec = do(t, h, http.MethodPost, "/api/tests/geography.json/submit", `{"selections": {"first": "A"}}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tests/geography.json/submit", `not json`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasePath(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{BasePath: "quiz/"})

	rec := do(t, h, http.MethodGet, "/quiz", "", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/quiz/", rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, "/quiz/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/quiz/tests/geography.json"`)
	assert.Contains(t, rec.Body.String(), `href="/quiz/history"`)
}

func TestCORS(t *testing.T) {
	h, _ := newTestHandler(t, model.Config{CORSOrigins: []string{"https://quiz.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/tests", nil)
	req.Header.Set("Origin", "https://quiz.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://quiz.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/tests", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNormalizeBasePath(t *testing.T) {
	assert.Equal(t, "", NormalizeBasePath(""))
	assert.Equal(t, "", NormalizeBasePath("/"))
	assert.Equal(t, "/quiz", NormalizeBasePath("quiz/"))
	assert.Equal(t, "/a/b", NormalizeBasePath("/a/b"))
}

func TestNewRequiresService(t *testing.T) {
	_, err := New(nil, model.Config{})
	assert.Error(t, err)
}
