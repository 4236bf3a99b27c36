package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

type mapSource map[string]string

func (m mapSource) Fetch(_ context.Context, id string) ([]byte, error) {
	doc, ok := m[id]
	if !ok {
		return nil, &quiz.FetchError{SourceID: id, Status: 404}
	}
	return []byte(doc), nil
}

type logStore struct {
	mu  sync.Mutex
	log model.HistoryLog
}

func (s *logStore) Load(context.Context) (model.HistoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(model.HistoryLog{}, s.log...), nil
}

func (s *logStore) Save(_ context.Context, log model.HistoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(model.HistoryLog(nil), log...)
	return nil
}

func (s *logStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	return nil
}

const basics = `{"questions": [
	{"question": "One?", "options": ["A) yes", "B) no"], "correctAnswer": "A"},
	{"question": "Two?", "options": ["A) yes", "B) no"], "correctAnswer": "B"}
]}`

func newDispatcher(docs mapSource) *Dispatcher {
	clock := func() time.Time { return time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC) }
	svc := quiz.NewService(docs, &logStore{}, quiz.WithClock(clock))
	return New(quiz.NewSession(svc))
}

func TestDispatch_LoadSubmitHistory(t *testing.T) {
	d := newDispatcher(mapSource{"basics.json": basics})
	ctx := context.Background()

	out, err := d.Dispatch(ctx, LoadTest{SourceID: "basics.json"})
	require.NoError(t, err)
	require.NotNil(t, out.QuestionSet)
	assert.Equal(t, 2, out.QuestionSet.Len())
	assert.Nil(t, out.Submission)

	out, err = d.Dispatch(ctx, Submit{Selections: map[int]string{0: "A", 1: "A"}})
	require.NoError(t, err)
	require.NotNil(t, out.Submission)
	assert.Equal(t, model.AnswerRecord{true, false}, out.Submission.Answers)
	assert.Equal(t, 50.0, out.Submission.Summary.Percentage)

	out, err = d.Dispatch(ctx, ViewHistory{})
	require.NoError(t, err)
	require.Len(t, out.History, 1)
	assert.Equal(t, "basics.json", out.History[0].SourceID)
	assert.Equal(t, "10/18/2026", out.History[0].Date)
}

func TestDispatch_SubmitWithoutLoad(t *testing.T) {
	d := newDispatcher(mapSource{})
	_, err := d.Dispatch(context.Background(), Submit{})
	assert.ErrorIs(t, err, quiz.ErrNoQuestionSet)
}

func TestDispatch_LoadErrors(t *testing.T) {
	d := newDispatcher(mapSource{"bad.json": `{"questions": "nope"}`})
	ctx := context.Background()

	_, err := d.Dispatch(ctx, LoadTest{SourceID: "bad.json"})
	var se *quiz.SchemaError
	assert.True(t, errors.As(err, &se))

	_, err = d.Dispatch(ctx, LoadTest{SourceID: "gone.json"})
	var fe *quiz.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestDispatch_ClearHistoryRequiresConfirmation(t *testing.T) {
	d := newDispatcher(mapSource{"basics.json": basics})
	ctx := context.Background()

	_, err := d.Dispatch(ctx, LoadTest{SourceID: "basics.json"})
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Submit{Selections: map[int]string{0: "A"}})
	require.NoError(t, err)

	_, err = d.Dispatch(ctx, ClearHistory{})
	assert.ErrorIs(t, err, quiz.ErrConfirmationRequired)

	out, err := d.Dispatch(ctx, ViewHistory{})
	require.NoError(t, err)
	assert.Len(t, out.History, 1, "unconfirmed clear must not touch the log")

	out, err = d.Dispatch(ctx, ClearHistory{Confirmed: true})
	require.NoError(t, err)
	assert.True(t, out.Cleared)
	assert.Empty(t, out.History)

	out, err = d.Dispatch(ctx, ViewHistory{})
	require.NoError(t, err)
	assert.Empty(t, out.History)
}

type unknownCommand struct{}

func (unknownCommand) Name() string { return "bogus" }

func TestDispatch_UnknownCommand(t *testing.T) {
	d := newDispatcher(mapSource{})
	_, err := d.Dispatch(context.Background(), unknownCommand{})
	assert.ErrorContains(t, err, "bogus")
}

func TestDispatch_ListTestsWithoutLister(t *testing.T) {
	d := newDispatcher(mapSource{})
	out, err := d.Dispatch(context.Background(), ListTests{})
	require.NoError(t, err)
	assert.Empty(t, out.Tests)
}

func TestDispatch_SubmitFingerprint(t *testing.T) {
	docs := mapSource{"basics.json": basics}
	d := newDispatcher(docs)
	ctx := context.Background()

	out, err := d.Dispatch(ctx, LoadTest{SourceID: "basics.json"})
	require.NoError(t, err)
	shown := quiz.Fingerprint(*out.QuestionSet)

	_, err = d.Dispatch(ctx, Submit{Selections: map[int]string{0: "A"}, Fingerprint: shown})
	require.NoError(t, err)

	docs["basics.json"] = `{"questions": [{"question": "One?", "options": ["A) yes", "B) no"], "correctAnswer": "B"}]}`
	_, err = d.Dispatch(ctx, LoadTest{SourceID: "basics.json"})
	require.NoError(t, err)

	_, err = d.Dispatch(ctx, Submit{Selections: map[int]string{0: "A"}, Fingerprint: shown})
	assert.ErrorIs(t, err, quiz.ErrQuestionSetChanged)

	out, err = d.Dispatch(ctx, ViewHistory{})
	require.NoError(t, err)
	assert.Len(t, out.History, 1, "the rejected submission is not recorded")
}
