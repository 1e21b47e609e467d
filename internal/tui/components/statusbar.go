package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left, the
// creator and window in the middle, and data freshness on the right.
func RenderStatusBar(width int, creator, window, dataAge string) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := hintStyle.Render(" ") + keyStyle.Render("?") + hintStyle.Render(" help  ") +
		keyStyle.Render("r") + hintStyle.Render(" refresh  ") +
		keyStyle.Render("q") + hintStyle.Render(" quit")

	var mid string
	if creator != "" {
		mid = infoStyle.Render(creator + "  " + window)
	}

	right := ""
	if dataAge != "" {
		right = infoStyle.Render("Data: " + dataAge + " ")
	}

	used := lipgloss.Width(left) + lipgloss.Width(mid) + lipgloss.Width(right)
	gap := max(0, width-used)
	leftGap, rightGap := gap/2, gap-gap/2

	return barStyle.Width(width).Render(
		left + barStyle.Render(strings.Repeat(" ", leftGap)) +
			mid + barStyle.Render(strings.Repeat(" ", rightGap)) + right)
}
