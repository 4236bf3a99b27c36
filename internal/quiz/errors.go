package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestionSet is returned when submitting before a test was loaded.
	ErrNoQuestionSet = errors.New("no question set loaded")
	// ErrConfirmationRequired is returned when clearing history without confirmation.
	ErrConfirmationRequired = errors.New("clearing history requires confirmation")
	// ErrDegenerateScore is returned by SummarizeStrict for a zero-question record.
	ErrDegenerateScore = errors.New("cannot compute percentage of zero questions")
	// ErrQuestionSetChanged is returned when answers were given for a version
	// of the question set that no longer matches the loaded one.
	ErrQuestionSetChanged = errors.New("question set changed since it was shown")
	// ErrNoIdentifier indicates an option string without a usable choice identifier.
	ErrNoIdentifier = errors.New("option has no choice identifier")
)

// FetchError reports that a question-set resource could not be retrieved.
// Status is the HTTP-like status code when one is known, otherwise zero.
type FetchError struct {
	SourceID string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.SourceID, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: status %d", e.SourceID, e.Status)
	default:
		return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports a question-set resource without the required structure.
type SchemaError struct {
	SourceID string
	Reason   string
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question set %s: %s: %v", e.SourceID, e.Reason, e.Err)
	}
	return fmt.Sprintf("question set %s: %s", e.SourceID, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is a FetchError or a SchemaError.
func IsLoadError(err error) bool {
	var fe *FetchError
	var se *SchemaError
	return errors.As(err, &fe) || errors.As(err, &se)
}
