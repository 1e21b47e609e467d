package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

// Tab is one tab in the tab bar, selected by its number key.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: '1'},
	{Name: "Costs", Key: '2'},
	{Name: "Sessions", Key: '3'},
	{Name: "Questions", Key: '4'},
	{Name: "Engagement", Key: '5'},
	{Name: "Settings", Key: '6'},
}

// tabPadding is the horizontal padding each side of a tab label.
const tabPadding = 1

// TabVisualWidth returns the rendered width of tab idx. Inactive tabs show
// their key hint, so they are wider than the active one.
func TabVisualWidth(idx, activeIdx int) int {
	w := lipgloss.Width(Tabs[idx].Name) + 2*tabPadding
	if idx != activeIdx {
		w += 2 // "1 " prefix
	}
	return w
}

// TabSeparatorWidth is the width of the gap between tabs.
const TabSeparatorWidth = 1

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, tabPadding)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, tabPadding)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)
	sepStyle := lipgloss.NewStyle().Background(t.Background)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		parts[i] = inactiveStyle.Render(keyStyle.Render(string(tab.Key)+" ") + tab.Name)
	}

	bar := strings.Join(parts, sepStyle.Render(strings.Repeat(" ", TabSeparatorWidth)))
	if pad := width - lipgloss.Width(bar); pad > 0 {
		bar += sepStyle.Render(strings.Repeat(" ", pad))
	}
	return bar
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
