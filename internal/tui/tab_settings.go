package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/tui/components"
	"github.com/theirongolddev/cpulse/internal/tui/theme"
)

const (
	settingsFieldTheme = iota
	settingsFieldDays
	settingsFieldCreator
	settingsFieldSessionGap
	settingsFieldSimilarity
	settingsFieldCount // sentinel
)

type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}

// settingsValue renders field i of cfg for display and editing.
func settingsValue(cfg config.Config, i int) string {
	switch i {
	case settingsFieldTheme:
		return cfg.Appearance.Theme
	case settingsFieldDays:
		return strconv.Itoa(cfg.General.DefaultDays)
	case settingsFieldCreator:
		return cfg.General.Creator
	case settingsFieldSessionGap:
		return strconv.FormatFloat(cfg.Thresholds.SessionGapMinutes, 'f', -1, 64)
	case settingsFieldSimilarity:
		return strconv.FormatFloat(cfg.Thresholds.Similarity, 'f', 2, 64)
	}
	return ""
}

var settingsLabels = [settingsFieldCount]string{
	"Theme", "Default Days", "Default Creator", "Session Gap (min)", "Similarity",
}

var settingsPlaceholders = [settingsFieldCount]string{
	strings.Join(theme.Names(), ", "),
	"30",
	"creator id, empty for first in store",
	"30",
	"0.70",
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	ti.Placeholder = settingsPlaceholders[a.settings.cursor]
	ti.SetValue(settingsValue(a.cfg, a.settings.cursor))
	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		next, err := applySetting(a.cfg, a.settings.cursor, strings.TrimSpace(a.settings.input.Value()))
		if err == nil {
			err = config.SaveTo(a.settingsPath(), next)
		}
		a.settings.saveErr = err
		a.settings.saved = err == nil
		if err != nil {
			return a, nil
		}

		reload := a.settings.cursor != settingsFieldTheme
		a.cfg = next
		theme.SetActive(next.Appearance.Theme)
		if a.settings.cursor == settingsFieldDays {
			a.days = next.General.DefaultDays
		}
		if a.settings.cursor == settingsFieldCreator && next.General.Creator != "" {
			a.creator = next.General.Creator
		}
		if reload {
			return a.reload()
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a App) settingsPath() string {
	if a.opts.ConfigPath != "" {
		return a.opts.ConfigPath
	}
	return config.ConfigPath()
}

// applySetting returns cfg with field set to val, or an error when val is
// not acceptable for that field.
func applySetting(cfg config.Config, field int, val string) (config.Config, error) {
	switch field {
	case settingsFieldTheme:
		found := false
		for _, name := range theme.Names() {
			found = found || name == val
		}
		if !found {
			return cfg, fmt.Errorf("unknown theme %q", val)
		}
		cfg.Appearance.Theme = val
	case settingsFieldDays:
		d, err := strconv.Atoi(val)
		if err != nil || d < 1 {
			return cfg, fmt.Errorf("default days must be a positive integer")
		}
		cfg.General.DefaultDays = d
	case settingsFieldCreator:
		cfg.General.Creator = val
	case settingsFieldSessionGap:
		m, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return cfg, fmt.Errorf("session gap must be a number of minutes")
		}
		cfg.Thresholds.SessionGapMinutes = m
	case settingsFieldSimilarity:
		s, err := parseSimilarity(val)
		if err != nil {
			return cfg, err
		}
		cfg.Thresholds.Similarity = s
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i, label := range settingsLabels {
		value := settingsValue(a.cfg, i)
		if value == "" {
			value = "(not set)"
		}

		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", label)))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			row := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-20s ", label+":")) +
				selectedStyle.Render(value)
			form.WriteString(row)
			if pad := innerW - lipgloss.Width(row); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		default:
			form.WriteString(labelStyle.Render("  " + fmt.Sprintf("%-20s ", label+":")))
			form.WriteString(valueStyle.Render(value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render("Not saved: " + a.settings.saveErr.Error()))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var info strings.Builder
	row := func(label, value string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", label)) + valueStyle.Render(value) + "\n")
	}
	row("Database:", a.opts.DBPath)
	if a.opts.ImportDir != "" {
		row("Import dir:", a.opts.ImportDir)
	}
	row("Config file:", a.settingsPath())
	if a.data != nil {
		row("Creators:", cli.FormatNumber(int64(len(a.data.creators))))
		if imp := a.data.imported; imp != nil {
			row("Last import:", fmt.Sprintf("%d files, %d reparsed, %s messages",
				imp.TotalFiles, imp.Reparsed, cli.FormatNumber(int64(len(imp.Messages)))))
		}
	}
	info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", "Load time:")) +
		valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", info.String(), cw)
}
