// Package datefmt formats calendar dates the way a given locale writes them
// in short numeric form (for example 10/18/2026 in en-US, 18/10/2026 in es).
package datefmt

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Formatter formats a time as a short calendar date.
type Formatter struct {
	tag    language.Tag
	layout string
}

var supported = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.French, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.Russian, "02.01.2006"},
	{language.Japanese, "2006/1/2"},
	{language.Chinese, "2006/1/2"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, s.tag)
	}
	return language.NewMatcher(tags)
}()

// New returns a Formatter for the given BCP 47 tag. An empty tag means en-US.
func New(locale string) (Formatter, error) {
	if locale == "" {
		locale = "en-US"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	_, idx, _ := matcher.Match(tag)
	return Formatter{tag: tag, layout: supported[idx].layout}, nil
}

// Default returns the en-US formatter.
func Default() Formatter {
	return Formatter{tag: language.AmericanEnglish, layout: supported[0].layout}
}

// Format renders t as a calendar date in its own location.
func (f Formatter) Format(t time.Time) string {
	layout := f.layout
	if layout == "" {
		layout = supported[0].layout
	}
	return t.Format(layout)
}

// Tag returns the locale this formatter was built for.
func (f Formatter) Tag() language.Tag {
	return f.tag
}
