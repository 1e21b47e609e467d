package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var trendCmd = &cobra.Command{
	Use:   "trend <current> <previous>",
	Short: "Compare two values as a period-over-period trend",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrend,
}

var trendUpIsBad bool

func init() {
	trendCmd.Flags().BoolVar(&trendUpIsBad, "up-is-bad", false, "Color increases as regressions (e.g. costs)")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(_ *cobra.Command, args []string) error {
	cur, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("current %q is not a number", args[0])
	}
	prev, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("previous %q is not a number", args[1])
	}

	t, err := pipeline.CalculateTrend(cur, prev)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(t)
	}
	fmt.Printf("  %s  (%s -> %s)\n", cli.RenderTrend(t, !trendUpIsBad),
		strconv.FormatFloat(prev, 'f', -1, 64), strconv.FormatFloat(cur, 'f', -1, 64))
	return nil
}
