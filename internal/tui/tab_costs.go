package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

func (a App) renderCostsTab(cw int) string {
	t := theme.Active
	d := a.data.dash
	costs := d.Costs
	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Cost", Value: cli.FormatCost(costs.Total), Trend: d.Trends.Cost},
		{Label: "Per Message", Value: cli.FormatCost(costs.PerMessage), NoTrend: true},
		{Label: "Per Student", Value: cli.FormatCost(costs.PerStudent), NoTrend: true},
		{Label: "Priced / Skipped", Value: fmt.Sprintf("%s / %s",
			cli.FormatNumber(int64(costs.PricedMessages)), cli.FormatNumber(int64(costs.SkippedMessages))), NoTrend: true},
	}, cw))
	b.WriteString("\n")

	if len(d.Daily) > 0 {
		vals := make([]float64, len(d.Daily))
		for i, day := range d.Daily {
			vals[i] = day.Cost
		}
		chartH := 8
		if a.isCompactLayout() {
			chartH = 5
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Cost (%dd)", a.days),
			components.BarChart(vals, chartDateLabels(d.Daily), t.Orange, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	if a.isCompactLayout() {
		b.WriteString(a.renderModelCosts(cw))
		b.WriteString("\n")
		b.WriteString(a.renderRecentDayCosts(cw))
		return b.String()
	}
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		a.renderModelCosts(halves[0]),
		a.renderRecentDayCosts(halves[1]),
	}))
	return b.String()
}

// renderModelCosts lists each model's spend with its share as a bar.
func (a App) renderModelCosts(w int) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.data.models) == 0 {
		return components.ContentCard("By Model", mutedStyle.Render("No priced messages"), w)
	}

	innerW := components.CardInnerWidth(w)
	nameW := min(24, max(10, innerW/3))
	barW := max(4, innerW-nameW-20)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %9s %6s", nameW, "Model", "Cost", "Share")))
	for _, m := range a.data.models {
		filled := min(barW, int(m.SharePercent/100*float64(barW)+0.5))
		body.WriteString("\n")
		body.WriteString(rowStyle.Render(fmt.Sprintf("%-*s %9s %5.1f%% ",
			nameW, cli.Truncate(m.Model, nameW), cli.FormatCost(m.Cost), m.SharePercent)))
		body.WriteString(barStyle.Render(strings.Repeat("█", filled)))
	}
	return components.ContentCard("By Model", body.String(), w)
}

// recentCostDays caps the per-day cost list.
const recentCostDays = 10

func (a App) renderRecentDayCosts(w int) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	days := a.data.costDays
	if len(days) == 0 {
		return components.ContentCard("By Day", mutedStyle.Render("No spend recorded"), w)
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %10s", "Date", "Cost")))
	for _, d := range days[:min(len(days), recentCostDays)] {
		body.WriteString("\n")
		body.WriteString(rowStyle.Render(fmt.Sprintf("%-12s %10s", d.Date, cli.FormatCost(d.Cost))))
	}
	if len(days) > recentCostDays {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(fmt.Sprintf("… %d earlier days", len(days)-recentCostDays)))
	}
	return components.ContentCard("By Day", body.String(), w)
}
