package quiz

import (
	"context"
	"sync"

	"github.com/pavelanni/quizrunner/internal/model"
)

// Session tracks the question set the respondent is currently answering.
type Session struct {
	svc     *Service
	mu      sync.Mutex
	current *model.QuestionSet
}

// NewSession creates a Session with no question set loaded.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

// Service returns the underlying Service.
func (s *Session) Service() *Service {
	return s.svc
}

// Load makes sourceID the active question set. A failed load leaves no
// question set active.
func (s *Session) Load(ctx context.Context, sourceID string) (model.QuestionSet, error) {
	qs, err := s.svc.LoadQuestionSet(ctx, sourceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.current = nil
		return model.QuestionSet{}, err
	}
	s.current = &qs
	return qs, nil
}

// Current returns the active question set, if any.
func (s *Session) Current() (model.QuestionSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.QuestionSet{}, false
	}
	return *s.current, true
}

// Submit scores selections against the active question set and records them.
func (s *Session) Submit(ctx context.Context, selections map[int]string) (model.Submission, error) {
	qs, ok := s.Current()
	if !ok {
		return model.Submission{}, ErrNoQuestionSet
	}
	return s.svc.Submit(ctx, qs, selections)
}
