package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

type engagementState struct {
	listState
}

// scoreBars renders the four sub-scores against their caps.
func (a App) scoreBars(s model.EngagementScore, w int) string {
	weights := a.cfg.Engagement
	barW := max(components.CardInnerWidth(w)-18, 8)
	rows := []string{
		components.ScoreBar("Video", s.Breakdown.Video, weights.VideoCap, 9, barW),
		components.ScoreBar("Chat", s.Breakdown.Chat, weights.ChatCap, 9, barW),
		components.ScoreBar("Progress", s.Breakdown.Progress, weights.ProgressCap, 9, barW),
		components.ScoreBar("Login", s.Breakdown.Login, weights.LoginCap, 9, barW),
	}
	return strings.Join(rows, "\n")
}

func (a App) renderEngagementTab(cw, h int) string {
	t := theme.Active
	d := a.data.dash
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	totalStyle := lipgloss.NewStyle().Foreground(t.ScoreColor(float64(d.Engagement.Total)/100)).
		Background(t.Surface).Bold(true)

	overall := totalStyle.Render(cli.FormatScore(d.Engagement)) +
		mutedStyle.Render(fmt.Sprintf("  across %d students", len(d.Students))) +
		"\n\n" + a.scoreBars(d.Engagement, cw/2)

	if len(d.Students) == 0 {
		return components.ContentCard("Creator Engagement", overall, cw) + "\n" +
			components.ContentCard("Students", mutedStyle.Render("No student activity in this window"), cw)
	}

	sel := d.Students[min(a.engage.cursor, len(d.Students)-1)]
	halves := components.LayoutRow(cw, 2)
	top := components.CardRow([]string{
		components.ContentCard("Creator Engagement", overall, halves[0]),
		components.ContentCard("Student · "+sel.StudentID, a.renderStudentDetail(sel, halves[1]), halves[1]),
	})

	return top + "\n" + a.renderStudentTable(cw, h-lipgloss.Height(top))
}

func (a App) renderStudentDetail(s model.StudentEngagement, w int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.scoreBars(s.Score, w))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Videos ") + valueStyle.Render(cli.FormatPercent(s.Input.VideoCompletionRate)))
	b.WriteString(labelStyle.Render("  Course ") + valueStyle.Render(cli.FormatPercent(s.Input.CourseProgress)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Last active ") + valueStyle.Render(cli.FormatAgo(s.LastActive)))
	return b.String()
}

func (a App) renderStudentTable(cw, h int) string {
	t := theme.Active
	students := a.data.dash.Students
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)

	idW := max(innerW-46, 10)
	format := fmt.Sprintf("%%-%ds %%7s %%8s %%8s %%8s %%10s", idW)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf(format, "Student", "Score", "Sessions", "Messages", "Progress", "Active")))

	start, end := a.engage.window(len(students), h-5)
	for i := start; i < end; i++ {
		s := students[i]
		line := fmt.Sprintf(format,
			cli.Truncate(s.StudentID, idW),
			cli.FormatScore(s.Score),
			cli.FormatNumber(int64(s.Sessions)),
			cli.FormatNumber(int64(s.Messages)),
			cli.FormatPercent(s.Input.CourseProgress),
			s.LastActive.In(a.data.window.Location).Format("Jan 02"))
		body.WriteString("\n")
		if i == a.engage.cursor {
			body.WriteString(selectedStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
	}
	return components.ContentCard(fmt.Sprintf("Students [%dd]", a.days), body.String(), cw)
}
