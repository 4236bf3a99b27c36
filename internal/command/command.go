// Package command turns user intents into engine calls. The web handlers
// and the terminal UI both drive the engine through a Dispatcher.
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// Command is a user intent understood by the Dispatcher.
type Command interface {
	Name() string
}

// ListTests asks for the identifiers the question source can serve.
type ListTests struct{}

// LoadTest selects and loads a question set.
type LoadTest struct {
	SourceID string
}

// Submit scores the selections against the loaded question set.
// Keys are zero-based question indexes. A non-empty Fingerprint must match
// quiz.Fingerprint of the loaded set.
type Submit struct {
	Selections  map[int]string
	Fingerprint string
}

// ViewHistory asks for the summarized history log.
type ViewHistory struct{}

// ClearHistory erases the history log. It is refused unless Confirmed.
type ClearHistory struct {
	Confirmed bool
}

func (ListTests) Name() string    { return "list-tests" }
func (LoadTest) Name() string     { return "load-test" }
func (Submit) Name() string       { return "submit" }
func (ViewHistory) Name() string  { return "view-history" }
func (ClearHistory) Name() string { return "clear-history" }

// Outcome carries the result of a dispatched command. Only the fields that
// belong to the command are set.
type Outcome struct {
	Tests       []string
	QuestionSet *model.QuestionSet
	Submission  *model.Submission
	History     []model.HistoryRow
	Cleared     bool
}

// Dispatcher executes commands against a quiz session.
type Dispatcher struct {
	session *quiz.Session
}

// New creates a Dispatcher for session.
func New(session *quiz.Session) *Dispatcher {
	return &Dispatcher{session: session}
}

// Session returns the session commands run against.
func (d *Dispatcher) Session() *quiz.Session {
	return d.session
}

// Dispatch runs cmd and returns its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	slog.Debug("dispatch", "command", cmd.Name())

	switch c := cmd.(type) {
	case ListTests:
		tests, err := d.session.Service().Tests(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("list tests: %w", err)
		}
		return Outcome{Tests: tests}, nil

	case LoadTest:
		qs, err := d.session.Load(ctx, c.SourceID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{QuestionSet: &qs}, nil

	case Submit:
		if c.Fingerprint != "" {
			if qs, ok := d.session.Current(); ok && quiz.Fingerprint(qs) != c.Fingerprint {
				return Outcome{}, quiz.ErrQuestionSetChanged
			}
		}
		sub, err := d.session.Submit(ctx, c.Selections)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Submission: &sub}, nil

	case ViewHistory:
		rows, err := d.session.Service().History(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{History: rows}, nil

	case ClearHistory:
		if !c.Confirmed {
			return Outcome{}, quiz.ErrConfirmationRequired
		}
		if _, err := d.session.Service().ClearHistory(ctx); err != nil {
			return Outcome{}, err
		}
		return Outcome{Cleared: true, History: []model.HistoryRow{}}, nil

	default:
		return Outcome{}, fmt.Errorf("unknown command %q", cmd.Name())
	}
}
