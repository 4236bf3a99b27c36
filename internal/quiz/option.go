package quiz

import (
	"fmt"
	"strings"

	"github.com/pavelanni/quizrunner/internal/model"
)

// OptionDelimiter separates the choice identifier from the option text.
const OptionDelimiter = ")"

// ParseOption splits an option such as "A) Paris" into its identifier and text.
// The identifier is everything before the first delimiter, trimmed, so
// "Option A) Paris" yields ID "Option A" and "B) f(x) = 2" yields ID "B" with
// text "f(x) = 2". It fails when there is no delimiter or nothing before it.
func ParseOption(s string) (model.Option, error) {
	id, text, found := strings.Cut(s, OptionDelimiter)
	id = strings.TrimSpace(id)
	if !found || id == "" {
		return model.Option{Text: strings.TrimSpace(s)}, fmt.Errorf("%w: %q", ErrNoIdentifier, s)
	}
	return model.Option{ID: id, Text: strings.TrimSpace(text)}, nil
}

// Options parses every option of q. An option without an identifier uses
// its full text as the identifier. So does an option whose full text is the
// correct answer while its parsed identifier is not, as in "Paris (capital)".
func Options(q model.Question) []model.Option {
	out := make([]model.Option, 0, len(q.Options))
	for _, raw := range q.Options {
		opt, err := ParseOption(raw)
		full := strings.TrimSpace(raw)
		switch {
		case err != nil:
			opt.ID = opt.Text
		case opt.ID != q.CorrectAnswer && full == q.CorrectAnswer:
			opt = model.Option{ID: full, Text: full}
		}
		out = append(out, opt)
	}
	return out
}

// duplicateIDs returns identifiers that appear more than once in q.
func duplicateIDs(q model.Question) []string {
	seen := make(map[string]int, len(q.Options))
	var dups []string
	for _, opt := range Options(q) {
		id := opt.ID
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}
