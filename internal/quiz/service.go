package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/quizrunner/internal/datefmt"
	"github.com/pavelanni/quizrunner/internal/model"
)

// Source fetches raw question-set documents by identifier.
type Source interface {
	Fetch(ctx context.Context, sourceID string) ([]byte, error)
}

// Lister is implemented by sources that can enumerate their tests.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// HistoryStore persists the whole history log under a single key.
type HistoryStore interface {
	Load(ctx context.Context) (model.HistoryLog, error)
	Save(ctx context.Context, log model.HistoryLog) error
	Delete(ctx context.Context) error
}

// Option configures a Service.
type Option func(*Service)

// WithDateFormatter sets how submission dates are written to the log.
func WithDateFormatter(f datefmt.Formatter) Option { return func(s *Service) { s.dates = f } }

// WithClock overrides the time source used for submission dates.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Service connects the pure engine functions to a question source and a
// history store. Submissions are serialized so each append reads the log
// written by the previous one.
type Service struct {
	source Source
	store  HistoryStore
	dates  datefmt.Formatter
	now    func() time.Time
	mu     sync.Mutex
}

// NewService creates a Service.
func NewService(src Source, st HistoryStore, opts ...Option) *Service {
	s := &Service{
		source: src,
		store:  st,
		dates:  datefmt.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Tests lists the available test identifiers when the source supports it.
func (s *Service) Tests(ctx context.Context) ([]string, error) {
	l, ok := s.source.(Lister)
	if !ok {
		return nil, nil
	}
	return l.List(ctx)
}

// LoadQuestionSet fetches and decodes a question set.
func (s *Service) LoadQuestionSet(ctx context.Context, sourceID string) (model.QuestionSet, error) {
	data, err := s.source.Fetch(ctx, sourceID)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{SourceID: sourceID, Err: err}
		}
		slog.Error("failed to fetch question set", "source", sourceID, "error", err)
		return model.QuestionSet{}, err
	}
	qs, err := DecodeQuestionSet(sourceID, data)
	if err != nil {
		slog.Error("invalid question set", "source", sourceID, "error", err)
		return model.QuestionSet{}, err
	}
	slog.Info("loaded question set", "source", sourceID, "questions", qs.Len())
	return qs, nil
}

// Submit scores selections against qs and appends the result to the log.
func (s *Service) Submit(ctx context.Context, qs model.QuestionSet, selections map[int]string) (model.Submission, error) {
	answers := Score(qs, selections)

	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.store.Load(ctx)
	if err != nil {
		return model.Submission{}, fmt.Errorf("load history: %w", err)
	}
	log = RecordResult(log, qs.SourceID, answers, s.now(), s.dates)
	if err := s.store.Save(ctx, log); err != nil {
		return model.Submission{}, fmt.Errorf("save history: %w", err)
	}

	sub := model.Submission{
		QuestionSet: qs,
		Answers:     answers,
		Entry:       log[len(log)-1],
		Summary:     Summarize(answers),
	}
	slog.Info("recorded submission",
		"source", qs.SourceID,
		"correct", sub.Summary.Correct,
		"total", sub.Summary.Total,
		"entries", len(log),
	)
	return sub, nil
}

// Log returns the full stored history log.
func (s *Service) Log(ctx context.Context) (model.HistoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return log, nil
}

// History returns the summarized history log.
func (s *Service) History(ctx context.Context) ([]model.HistoryRow, error) {
	log, err := s.Log(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeHistory(log), nil
}

// ClearHistory deletes the stored log. Callers must obtain confirmation first.
func (s *Service) ClearHistory(ctx context.Context) (model.HistoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx); err != nil {
		return nil, fmt.Errorf("clear history: %w", err)
	}
	slog.Info("cleared history")
	return ClearHistory(), nil
}
