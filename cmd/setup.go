package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	creators, err := st.Creators(cmd.Context())
	_ = st.Close()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  Welcome to cpulse!")
	if len(creators) == 0 {
		fmt.Println("  The store is empty; run `cpulse import <dir>` to load chat exports.")
	}
	fmt.Println()

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(creators, &vals).RunWithContext(cmd.Context()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := config.Save(vals.Apply(cfg)); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\n  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `cpulse tui` for the dashboard or `cpulse summary` for a quick look.")
	return nil
}
