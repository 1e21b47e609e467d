// Package cmd implements the cpulse CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/config"
	"github.com/theirongolddev/cpulse/internal/pipeline"
	"github.com/theirongolddev/cpulse/internal/store"
)

var (
	flagDays    int
	flagFrom    string
	flagTo      string
	flagCreator string
	flagDBPath  string
	flagTZ      string
	flagQuiet   bool
	flagJSON    bool
)

// cfg is loaded once in PersistentPreRunE and shared by every command.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "cpulse",
	Short: "Creator analytics for AI tutor chats",
	Long:  "Analyze AI tutor conversations: sessions, question clusters, costs, engagement and trends.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		return nil
	},
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Time window in days (0 uses the configured default)")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "Window start, YYYY-MM-DD (inclusive)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "Window end, YYYY-MM-DD (inclusive)")
	rootCmd.PersistentFlags().StringVarP(&flagCreator, "creator", "c", "", "Creator ID (defaults to the configured or only creator)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the analytics database")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", "", "IANA time zone for day buckets (default: local)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
}

func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return config.DBPath(cfg)
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func location() (*time.Location, error) {
	if flagTZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(flagTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", flagTZ, err)
	}
	return loc, nil
}

func days() int {
	if flagDays > 0 {
		return flagDays
	}
	return cfg.General.DefaultDays
}

// window resolves --days/--from/--to into a query window.
func window() (pipeline.Window, error) {
	loc, err := location()
	if err != nil {
		return pipeline.Window{}, err
	}
	return pipeline.ParseWindow(flagFrom, flagTo, days(), time.Now(), loc)
}

// resolveCreator picks --creator, then the configured creator, then the
// first creator in the store.
func resolveCreator(ctx context.Context, st *store.Store) (string, error) {
	if flagCreator != "" {
		return flagCreator, nil
	}
	if cfg.General.Creator != "" {
		return cfg.General.Creator, nil
	}
	creators, err := st.Creators(ctx)
	if err != nil {
		return "", err
	}
	if len(creators) == 0 {
		return "", nil
	}
	if len(creators) > 1 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %d creators in store, showing %s (use --creator)\n", len(creators), creators[0])
	}
	return creators[0], nil
}

// query bundles what most report commands need.
type query struct {
	st       *store.Store
	creator  string
	window   pipeline.Window
	settings pipeline.Settings
}

// openQuery opens the store and resolves creator and window. The caller
// closes q.st. An empty creator means the store has no data.
func openQuery(ctx context.Context) (*query, error) {
	w, err := window()
	if err != nil {
		return nil, err
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	creator, err := resolveCreator(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &query{st: st, creator: creator, window: w, settings: pipeline.SettingsFrom(cfg)}, nil
}

func printNoData() {
	fmt.Println("\n  No chat data in the store.")
	fmt.Println("  Run `cpulse import <dir>` first.")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func progressPrinter() pipeline.ProgressFunc {
	return func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}
}

func title(label string, w pipeline.Window) string {
	return cli.RenderTitle(fmt.Sprintf("%s  %s", label, w.Label()))
}
