package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagJSON {
		return printJSON(cfg)
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days:  %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Database:      %s\n", dbPath())
	if cfg.General.Creator != "" {
		fmt.Printf("    Creator:       %s\n", cfg.General.Creator)
	}
	fmt.Println()

	fmt.Println("  [Thresholds]")
	fmt.Printf("    Session gap:   %gm\n", cfg.Thresholds.SessionGapMinutes)
	fmt.Printf("    Similarity:    %.2f\n", cfg.Thresholds.Similarity)
	fmt.Println()

	w := cfg.Engagement
	fmt.Println("  [Engagement]")
	fmt.Printf("    Caps:          video %d, chat %d, progress %d, login %d\n", w.VideoCap, w.ChatCap, w.ProgressCap, w.LoginCap)
	fmt.Printf("    Targets:       %g chats, %g sessions\n", w.ChatTarget, w.LoginTarget)
	fmt.Println()

	fmt.Println("  [Clustering]")
	if cfg.Clustering.NoAliases {
		fmt.Println("    Aliases:       disabled")
	} else {
		aliases := make([]string, 0, len(cfg.Clustering.Aliases))
		for from, to := range cfg.Clustering.Aliases {
			aliases = append(aliases, fmt.Sprintf("%q -> %q", from, to))
		}
		sort.Strings(aliases)
		fmt.Printf("    Aliases:       %d\n", len(aliases))
		for _, a := range aliases {
			fmt.Printf("      %s\n", a)
		}
	}
	fmt.Println()

	fmt.Println("  [Pricing]")
	prices := cfg.PriceTable()
	for _, m := range prices.Models() {
		p, _ := prices.Lookup(m)
		fmt.Printf("    %-26s $%g in / $%g out per MTok\n", m, p.InputPerMTok, p.OutputPerMTok)
	}
	if n := len(cfg.Pricing.Models); n > 0 {
		fmt.Printf("    (%d configured overrides)\n", n)
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Timeout:       %ds\n", cfg.Server.RequestTimeoutSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:         %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `cpulse setup` to reconfigure.")
	return nil
}
