package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// listState is a cursor into a scrolling list.
type listState struct {
	cursor int
	offset int
}

func (l *listState) move(delta, n int) {
	l.cursor = min(max(l.cursor+delta, 0), max(n-1, 0))
}

func (l *listState) clamp(n int) {
	l.move(0, n)
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
}

// window returns the [start, end) range of rows to draw so the cursor
// stays visible.
func (l listState) window(n, visible int) (int, int) {
	visible = max(visible, 1)
	offset := l.offset
	if l.cursor < offset {
		offset = l.cursor
	}
	if l.cursor >= offset+visible {
		offset = l.cursor - visible + 1
	}
	return offset, min(offset+visible, n)
}

// Session view modes. Split is the zero value.
const (
	sessViewSplit = iota
	sessViewDetail
)

type sessionsState struct {
	listState
	viewMode     int
	detailScroll int
}

func (s *sessionsState) move(delta, n int) {
	before := s.cursor
	s.listState.move(delta, n)
	if s.cursor != before {
		s.detailScroll = 0
	}
}

// updateSessionsKey handles keys specific to the sessions tab. ok is false
// when the key should fall through to global handling.
func (a App) updateSessionsKey(key string) (tea.Model, tea.Cmd, bool) {
	ss := &a.sessState
	halfPage := max((a.height-scrollOverhead)/2, 1)
	compact := a.isCompactLayout()

	switch key {
	case "enter", "f":
		if !compact {
			ss.viewMode = sessViewDetail
		}
	case "esc":
		ss.viewMode = sessViewSplit
	case "q":
		if ss.viewMode != sessViewDetail {
			return a, nil, false
		}
		ss.viewMode = sessViewSplit
	case "J":
		ss.detailScroll++
	case "K":
		ss.detailScroll = max(ss.detailScroll-1, 0)
	case "ctrl+d":
		ss.detailScroll += halfPage
	case "ctrl+u":
		ss.detailScroll = max(ss.detailScroll-halfPage, 0)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderSessionsTab(cw, h int) string {
	t := theme.Active
	sessions := a.data.sessions
	if len(sessions) == 0 {
		return components.ContentCard("Sessions",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No sessions in this window"), cw)
	}
	sel := sessions[a.sessState.cursor]

	if a.sessState.viewMode == sessViewDetail {
		return components.ContentCard(sessionTitle(sel), a.renderSessionDetail(sel, cw, h), cw)
	}
	if a.isCompactLayout() {
		return a.renderSessionList(cw, h)
	}

	leftW := max(cw*2/5, 40)
	rightW := cw - leftW
	return components.CardRow([]string{
		a.renderSessionList(leftW, h),
		components.ContentCard(sessionTitle(sel), a.renderSessionDetail(sel, rightW, h), rightW),
	})
}

func sessionTitle(s model.Session) string {
	return fmt.Sprintf("Session · %s", s.StudentID)
}

func (a App) renderSessionList(w, h int) string {
	t := theme.Active
	sessions := a.data.sessions
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	studentW := max(innerW-36, 8)
	format := fmt.Sprintf("%%-12s %%-%ds %%8s %%5s %%3s", studentW)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf(format, "Start", "Student", "Length", "Msgs", "")))
	body.WriteString("\n")

	// card border (2) + title (1) + header (1) + footer (2)
	start, end := a.sessState.window(len(sessions), h-6)
	for i := start; i < end; i++ {
		s := sessions[i]
		done := "·"
		if s.Completed {
			done = "✓"
		}
		line := fmt.Sprintf(format,
			s.StartTime.In(a.data.window.Location).Format("Jan 02 15:04"),
			cli.Truncate(s.StudentID, studentW),
			cli.FormatDuration(s.Duration),
			cli.FormatNumber(int64(s.MessageCount)),
			done)
		line = cli.Truncate(line, innerW)
		if i == a.sessState.cursor {
			body.WriteString(selectedStyle.Render(line))
		} else {
			body.WriteString(rowStyle.Render(line))
		}
		body.WriteString("\n")
	}

	body.WriteString(mutedStyle.Render(fmt.Sprintf("%d of %d · ✓ tutor answered last",
		a.sessState.cursor+1, len(sessions))))
	return components.ContentCard(fmt.Sprintf("Sessions [%dd]", a.days), body.String(), w)
}

// renderSessionDetail shows session stats and its transcript, scrolled by
// the detail offset.
func (a App) renderSessionDetail(s model.Session, w, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)
	loc := a.data.window.Location

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	studentStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	tutorStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)

	status := "awaiting tutor"
	if s.Completed {
		status = "answered"
	}

	var lines []string
	field := func(label, value string) {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-10s", label))+valueStyle.Render(value))
	}
	field("Started", s.StartTime.In(loc).Format("Mon Jan 02 15:04"))
	field("Ended", s.EndTime.In(loc).Format("Mon Jan 02 15:04"))
	field("Length", cli.FormatDuration(s.Duration))
	field("Messages", cli.FormatNumber(int64(s.MessageCount)))
	field("Status", status)
	lines = append(lines, "")

	textW := max(innerW-10, 10)
	for _, m := range s.Messages {
		who := studentStyle.Render("student ")
		if m.Role == model.RoleAssistant {
			who = tutorStyle.Render("tutor   ")
		}
		stamp := labelStyle.Render(m.CreatedAt.In(loc).Format("15:04") + " ")
		text := strings.Join(strings.Fields(m.Content), " ")
		lines = append(lines, stamp+who)
		for _, chunk := range wrap(text, textW) {
			lines = append(lines, labelStyle.Render("  ")+valueStyle.Render(chunk))
		}
	}

	scroll := min(a.sessState.detailScroll, max(len(lines)-1, 0))
	visible := max(h-4, 3)
	return strings.Join(lines[scroll:min(len(lines), scroll+visible)], "\n")
}

// wrap breaks text into lines of at most width runes on word boundaries.
// Words longer than width are cut.
func wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	var out []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		r := []rune(word)
		for len(r) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(r[:width]))
			r = r[width:]
		}
		switch {
		case len(cur) == 0:
			cur = r
		case len(cur)+1+len(r) <= width:
			cur = append(append(cur, ' '), r...)
		default:
			out = append(out, string(cur))
			cur = r
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
