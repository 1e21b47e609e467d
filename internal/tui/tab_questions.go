package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

type questionsState struct {
	listState
	searching   bool
	searchInput textinput.Model
	query       string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "search questions..."
	ti.CharLimit = 128
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// clusterSource adapts clusters for fuzzy matching against every phrasing.
type clusterSource []model.QuestionCluster

func (c clusterSource) Len() int { return len(c) }

func (c clusterSource) String(i int) string {
	parts := make([]string, 0, len(c[i].Variations)+1)
	parts = append(parts, c[i].Representative)
	for _, v := range c[i].Variations {
		if v.Text != c[i].Representative {
			parts = append(parts, v.Text)
		}
	}
	return strings.Join(parts, " | ")
}

// filterClusters returns the clusters matching query, best match first.
// An empty query keeps the input order.
func filterClusters(clusters []model.QuestionCluster, query string) []model.QuestionCluster {
	if query == "" {
		return clusters
	}
	matches := fuzzy.FindFrom(query, clusterSource(clusters))
	out := make([]model.QuestionCluster, len(matches))
	for i, m := range matches {
		out[i] = clusters[m.Index]
	}
	return out
}

func (a App) filteredClusters() []model.QuestionCluster {
	if a.data == nil {
		return nil
	}
	return filterClusters(a.data.clusters, a.questions.query)
}

func (a App) updateQuestionsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "/":
		a.questions.searching = true
		a.questions.searchInput = newSearchInput()
		a.questions.searchInput.SetValue(a.questions.query)
		a.questions.searchInput.Focus()
		return a, a.questions.searchInput.Cursor.BlinkCmd(), true
	case "esc":
		if a.questions.query != "" {
			a.questions.query = ""
			a.questions.listState = listState{}
		}
		return a, nil, true
	}
	return a, nil, false
}

func (a App) updateQuestionsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.questions.query = strings.TrimSpace(a.questions.searchInput.Value())
		a.questions.searching = false
		a.questions.listState = listState{}
		return a, nil
	case "esc":
		a.questions.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.questions.searchInput, cmd = a.questions.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderQuestionsTab(cw, h int) string {
	t := theme.Active
	clusters := a.filteredClusters()
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	if a.questions.searching {
		b.WriteString(components.ContentCard("Search", a.questions.searchInput.View(), cw))
		b.WriteString("\n")
		h -= 3
	}

	if len(clusters) == 0 {
		msg := "No student questions in this window"
		if a.questions.query != "" {
			msg = fmt.Sprintf("No questions match %q (esc to clear)", a.questions.query)
		}
		b.WriteString(components.ContentCard("Questions", mutedStyle.Render(msg), cw))
		return b.String()
	}

	sel := clusters[min(a.questions.cursor, len(clusters)-1)]
	if a.isCompactLayout() {
		b.WriteString(a.renderClusterList(clusters, cw, h))
		return b.String()
	}
	leftW := cw / 2
	b.WriteString(components.CardRow([]string{
		a.renderClusterList(clusters, leftW, h),
		components.ContentCard("Cluster", renderClusterDetail(sel, cw-leftW), cw-leftW),
	}))
	return b.String()
}

func (a App) renderClusterList(clusters []model.QuestionCluster, w, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%5s  %s", "Count", "Question")))
	body.WriteString("\n")

	start, end := a.questions.window(len(clusters), h-6)
	for i := start; i < end; i++ {
		c := clusters[i]
		line := fmt.Sprintf("%5d  %s", c.Count, cli.Truncate(c.Representative, innerW-7))
		if i == a.questions.cursor {
			body.WriteString(selectedStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}

	hint := "/ search"
	if a.questions.query != "" {
		hint = fmt.Sprintf("filter %q · esc clears", a.questions.query)
	}
	body.WriteString(mutedStyle.Render(fmt.Sprintf("%d clusters · %s", len(clusters), hint)))

	title := fmt.Sprintf("Questions [%dd]", a.days)
	return components.ContentCard(title, body.String(), w)
}

func renderClusterDetail(c model.QuestionCluster, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	countStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	var b strings.Builder
	for _, line := range wrap(c.Representative, innerW) {
		b.WriteString(valueStyle.Bold(true).Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Asked          ") + valueStyle.Render(cli.FormatNumber(int64(c.Count))) + "\n")
	b.WriteString(labelStyle.Render("Avg response   ") +
		valueStyle.Render(cli.FormatResponseTime(c.AvgResponseTimeMs, c.ResponseSamples)) + "\n")
	if len(c.VideoIDs) > 0 {
		b.WriteString(labelStyle.Render("Videos cited   ") +
			valueStyle.Render(cli.Truncate(strings.Join(c.VideoIDs, ", "), innerW-15)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Phrasings"))
	for _, v := range c.Variations {
		b.WriteString("\n")
		count := fmt.Sprintf("%4dx ", v.Count)
		b.WriteString(countStyle.Render(count))
		b.WriteString(valueStyle.Render(cli.Truncate(v.Text, innerW-len(count))))
	}
	return b.String()
}
