// Package chart builds the per-question results bar chart and renders it as
// inline SVG or as terminal text.
package chart

import (
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pavelanni/quizrunner/internal/model"
)

const (
	ColorCorrect   = "green"
	ColorIncorrect = "red"
)

// Bar is one question in the chart.
type Bar struct {
	Label string
	Value int // 1 when correct, 0 otherwise
	Color string
}

// Chart is the bar chart for one submission. The value axis runs from 0 to 1.
type Chart struct {
	Title string
	Bars  []Bar
}

// Build makes one bar per answer, in question order.
func Build(answers model.AnswerRecord, label func(i int) string) Chart {
	if label == nil {
		label = func(i int) string { return fmt.Sprintf("Question %d", i+1) }
	}
	c := Chart{Title: "Results", Bars: make([]Bar, 0, len(answers))}
	for i, ok := range answers {
		b := Bar{Label: label(i), Color: ColorIncorrect}
		if ok {
			b.Value = 1
			b.Color = ColorCorrect
		}
		c.Bars = append(c.Bars, b)
	}
	return c
}

// Correct counts the bars with value 1.
func (c Chart) Correct() int {
	n := 0
	for _, b := range c.Bars {
		n += b.Value
	}
	return n
}

const (
	svgBarWidth  = 48
	svgGap       = 16
	svgHeight    = 160
	svgLabelArea = 28
	svgAxisArea  = 24
)

// SVG renders the chart as a standalone <svg> element.
func SVG(c Chart) string {
	width := svgAxisArea + len(c.Bars)*(svgBarWidth+svgGap) + svgGap
	total := svgHeight + svgLabelArea

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="results-chart" role="img" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, total, width, total)
	fmt.Fprintf(&b, `<title>%s</title>`, html.EscapeString(c.Title))
	// Axis from 0 to 1.
	fmt.Fprintf(&b, `<line x1="%d" y1="0" x2="%d" y2="%d" stroke="#888"/>`, svgAxisArea, svgAxisArea, svgHeight)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#888"/>`, svgAxisArea, svgHeight, width, svgHeight)
	fmt.Fprintf(&b, `<text x="2" y="12" font-size="11">1</text><text x="2" y="%d" font-size="11">0</text>`, svgHeight)

	for i, bar := range c.Bars {
		x := svgAxisArea + svgGap + i*(svgBarWidth+svgGap)
		h := bar.Value * (svgHeight - 8)
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s: %d</title></rect>`,
			x, svgHeight-h, svgBarWidth, h, bar.Color, html.EscapeString(bar.Label), bar.Value)
		// Zero-height bars still get a visible marker.
		if h == 0 {
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="3" fill="%s"/>`, x, svgHeight-3, svgBarWidth, bar.Color)
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="10" text-anchor="middle">%s</text>`,
			x+svgBarWidth/2, svgHeight+18, html.EscapeString(bar.Label))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

const barCells = 10

// Render draws the chart as horizontal bars for a terminal.
func Render(c Chart, noColor bool) string {
	width := 0
	for _, bar := range c.Bars {
		width = max(width, lipgloss.Width(bar.Label))
	}

	lines := make([]string, 0, len(c.Bars))
	for _, bar := range c.Bars {
		label := bar.Label + strings.Repeat(" ", width-lipgloss.Width(bar.Label))
		cells := strings.Repeat("█", bar.Value*barCells)
		mark := "✗"
		if bar.Value == 1 {
			mark = "✓"
		} else {
			cells = "·"
		}
		line := fmt.Sprintf("%s │ %s %s", label, stylize(cells, noColor, bar.Color), stylize(mark, noColor, bar.Color))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stylize(text string, noColor bool, color string) string {
	if noColor {
		return text
	}
	c := lipgloss.Color("1")
	if color == ColorCorrect {
		c = lipgloss.Color("2")
	}
	return lipgloss.NewStyle().Foreground(c).Render(text)
}
