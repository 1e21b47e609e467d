package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// overviewTopQuestions is how many clusters the overview lists.
const overviewTopQuestions = 5

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	d := a.data.dash
	cur, tr := d.Current, d.Trends
	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Students", Value: cli.FormatNumber(int64(cur.Students)), Trend: tr.Students, UpIsGood: true},
		{Label: "Messages", Value: cli.FormatNumber(int64(cur.Messages)), Trend: tr.Messages, UpIsGood: true},
		{Label: "Questions", Value: cli.FormatNumber(int64(cur.Questions)), Trend: tr.Questions, UpIsGood: true},
		{Label: "Sessions", Value: cli.FormatNumber(int64(cur.Sessions)), Trend: tr.Sessions, UpIsGood: true},
	}, cw))
	b.WriteString("\n")
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Completion", Value: cli.FormatPercent(cur.CompletionRate), Trend: tr.CompletionRate, UpIsGood: true},
		{Label: "Avg Session", Value: cli.FormatMinutes(cur.AvgSessionMinutes), Trend: tr.AvgSessionMinutes, UpIsGood: true},
		{Label: "AI Cost", Value: cli.FormatCost(cur.Cost), Trend: tr.Cost},
		{Label: "Engagement", Value: cli.FormatScore(d.Engagement), NoTrend: true},
	}, cw))
	b.WriteString("\n")

	if len(d.Daily) > 0 {
		vals := make([]float64, len(d.Daily))
		for i, day := range d.Daily {
			vals[i] = float64(day.Messages)
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 6
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Messages (%dd)", a.days),
			components.BarChart(vals, chartDateLabels(d.Daily), t.Blue, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Top Questions", a.renderTopQuestions(cw), cw))
	return b.String()
}

func (a App) renderTopQuestions(cw int) string {
	t := theme.Active
	top := a.data.dash.TopQuestions
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(top) == 0 {
		return mutedStyle.Render("No student questions in this window")
	}

	countStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	var b strings.Builder
	for i, c := range top[:min(len(top), overviewTopQuestions)] {
		if i > 0 {
			b.WriteString("\n")
		}
		count := fmt.Sprintf("%4dx ", c.Count)
		b.WriteString(countStyle.Render(count))
		b.WriteString(textStyle.Render(cli.Truncate(c.Representative, innerW-len(count)-12)))
		if n := len(c.Variations); n > 1 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  +%d ways", n-1)))
		}
	}
	return b.String()
}
