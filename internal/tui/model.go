// Package tui is the terminal presentation: an interactive question runner
// built on Bubble Tea and plain-text renderings of results and history.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// Model asks the questions of one set, one per screen.
type Model struct {
	ctx        context.Context
	qs         model.QuestionSet
	options    [][]model.Option
	index      int
	cursor     int
	selections map[int]string
	aborted    bool
	noColor    bool
}

// NewModel creates a runner for qs. ctx carries the localizer.
func NewModel(ctx context.Context, qs model.QuestionSet, noColor bool) Model {
	opts := make([][]model.Option, len(qs.Questions))
	for i, q := range qs.Questions {
		opts[i] = quiz.Options(q)
	}
	return Model{
		ctx:        ctx,
		qs:         qs,
		options:    opts,
		selections: make(map[int]string, len(qs.Questions)),
		noColor:    noColor,
	}
}

// Init quits right away when there is nothing to ask.
func (m Model) Init() tea.Cmd {
	if m.Done() {
		return tea.Quit
	}
	return nil
}

// Update handles navigation and answer keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.Done() || m.aborted {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options[m.index])-1 {
			m.cursor++
		}
	case "enter", " ":
		opts := m.options[m.index]
		if len(opts) == 0 {
			return m.advance(model.NoSelection)
		}
		return m.advance(opts[m.cursor].ID)
	case "n":
		return m.advance(model.NoSelection)
	}
	return m, nil
}

func (m Model) advance(selection string) (tea.Model, tea.Cmd) {
	m.selections[m.index] = selection
	m.index++
	m.cursor = 0
	if m.Done() {
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current question.
func (m Model) View() string {
	if m.Done() || m.aborted {
		return ""
	}
	q := m.qs.Questions[m.index]

	var b strings.Builder
	b.WriteString(stylize(quiz.DisplayName(m.qs.SourceID)+"  "+
		i18n.Td(m.ctx, "QuestionN", map[string]any{"N": m.index + 1})+
		" / "+itoa(m.qs.Len()), m.noColor, lipgloss.Color("33")))
	b.WriteString("\n\n")
	b.WriteString(q.Prompt)
	b.WriteString("\n\n")
	for i := range m.options[m.index] {
		pointer := "  "
		line := q.Options[i]
		if i == m.cursor {
			pointer = "> "
			line = stylize(line, m.noColor, lipgloss.Color("212"))
		}
		b.WriteString(pointer + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(stylize(i18n.T(m.ctx, "TakeHelp"), m.noColor, lipgloss.Color("242")))
	b.WriteString("\n")
	return b.String()
}

// Done reports whether every question has an answer.
func (m Model) Done() bool {
	return m.index >= len(m.qs.Questions)
}

// Aborted reports whether the respondent quit early.
func (m Model) Aborted() bool {
	return m.aborted
}

// Selections returns the chosen identifiers by question index.
func (m Model) Selections() map[int]string {
	out := make(map[int]string, len(m.selections))
	for k, v := range m.selections {
		out[k] = v
	}
	return out
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
