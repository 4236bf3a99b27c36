package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pavelanni/quizrunner/internal/chart"
	"github.com/pavelanni/quizrunner/internal/command"
	"github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
)

// ErrAborted is returned by Take when the respondent quits before the end.
var ErrAborted = errors.New("test aborted")

// IsTerminal reports whether w is a TTY.
func IsTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

// Take loads sourceID, runs the interactive runner, and submits the answers.
func Take(ctx context.Context, d *command.Dispatcher, sourceID string, in io.Reader, out io.Writer, noColor bool) (model.Submission, map[int]string, error) {
	loaded, err := d.Dispatch(ctx, command.LoadTest{SourceID: sourceID})
	if err != nil {
		return model.Submission{}, nil, err
	}

	p := tea.NewProgram(NewModel(ctx, *loaded.QuestionSet, noColor),
		tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return model.Submission{}, nil, fmt.Errorf("run test: %w", err)
	}
	m := final.(Model)
	if m.Aborted() {
		return model.Submission{}, nil, ErrAborted
	}

	selections := m.Selections()
	res, err := d.Dispatch(ctx, command.Submit{Selections: selections})
	if err != nil {
		return model.Submission{}, nil, err
	}
	return *res.Submission, selections, nil
}

// RenderResults renders the chart and the results message.
func RenderResults(ctx context.Context, sub model.Submission, noColor bool) string {
	c := chart.Build(sub.Answers, func(i int) string {
		return i18n.Td(ctx, "QuestionN", map[string]any{"N": i + 1})
	})
	title := stylize(i18n.T(ctx, "ResultsTitle"), noColor, lipgloss.Color("33"))
	lines := []string{
		title,
		"",
		chart.Render(c, noColor),
		"",
		i18n.Td(ctx, "CorrectOfTotal", map[string]any{"Correct": sub.Summary.Correct, "Total": sub.Summary.Total}),
		i18n.Td(ctx, "PercentageLine", map[string]any{"Percentage": quiz.FormatPercentage(sub.Summary)}),
	}
	return strings.Join(lines, "\n")
}

// RenderHistory renders the summarized history as a table.
func RenderHistory(ctx context.Context, rows []model.HistoryRow, noColor bool) string {
	if len(rows) == 0 {
		return i18n.T(ctx, "NoSavedResults")
	}
	columns := []table.Column{
		{Title: i18n.T(ctx, "HistoryDate"), Width: 12},
		{Title: i18n.T(ctx, "HistoryTest"), Width: 24},
		{Title: i18n.T(ctx, "HistoryCorrect"), Width: 8},
		{Title: i18n.T(ctx, "HistoryTotal"), Width: 16},
		{Title: i18n.T(ctx, "HistoryPercentage"), Width: 11},
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, table.Row{
			r.Date,
			quiz.DisplayName(r.SourceID),
			strconv.Itoa(r.Correct),
			strconv.Itoa(r.Total),
			quiz.FormatPercentage(r.Summary) + "%",
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(false),
		table.WithHeight(len(tableRows)+1),
	)
	t.SetStyles(tableStyles(noColor))
	return t.View()
}

func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	// No row is focused, so nothing should look selected.
	styles.Selected = lipgloss.NewStyle()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252")).Bold(true)
	return styles
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
