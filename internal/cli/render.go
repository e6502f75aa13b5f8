package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette used by the CLI output.
var (
	colorBorder   = lipgloss.Color("#4D4C57")
	colorHeader   = lipgloss.Color("#6B50FF")
	colorPositive = lipgloss.Color("#00C48C")
	colorNegative = lipgloss.Color("#E94090")
	colorMuted    = lipgloss.Color("#858392")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
)

// RenderTable renders rows under headers. Columns listed in numeric are
// right-aligned.
func RenderTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if right[col] {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
	return t.String()
}

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// RenderBarChart draws horizontal bars scaled to width characters. Negative
// values are drawn in the negative colour with the same scale.
func RenderBarChart(title string, bars []Bar, width int) string {
	if len(bars) == 0 || width <= 0 {
		return ""
	}

	labelWidth := 0
	maxAbs := 0.0
	for _, b := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(b.Label))
		maxAbs = math.Max(maxAbs, math.Abs(b.Value))
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(titleStyle.Render(title))
		sb.WriteString("\n")
	}
	for _, b := range bars {
		n := int(math.Round(math.Abs(b.Value) / maxAbs * float64(width)))
		if n == 0 && b.Value != 0 {
			n = 1
		}
		color := colorPositive
		if b.Value < 0 {
			color = colorNegative
		}
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
		fmt.Fprintf(&sb, "%-*s %s %s\n", labelWidth, b.Label, bar, mutedStyle.Render(fmt.Sprintf("%.2f", b.Value)))
	}
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
