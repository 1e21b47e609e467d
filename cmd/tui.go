package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive creator dashboard",
	RunE:  runTUI,
}

var flagTUIImport string

func init() {
	tuiCmd.Flags().StringVar(&flagTUIImport, "import", "", "Directory of JSONL exports to import on every refresh")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	loc, err := location()
	if err != nil {
		return err
	}

	// Background styling only produces ANSI codes with a color profile;
	// detection may otherwise fall back to Ascii.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		DBPath:     dbPath(),
		ImportDir:  flagTUIImport,
		CreatorID:  flagCreator,
		Days:       flagDays,
		Location:   loc,
		Config:     cfg,
		ConfigPath: config.ConfigPath(),
		NeedSetup:  !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
