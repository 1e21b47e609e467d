package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily messages, sessions and cost",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	q, err := openQuery(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = q.st.Close() }()

	if q.creator == "" {
		printNoData()
		return nil
	}

	w := q.window
	msgs, err := pipeline.LoadWindow(cmd.Context(), q.st, q.creator, "", w)
	if err != nil {
		return err
	}
	sessions, err := pipeline.SegmentAll(msgs, q.settings.Thresholds.SessionGap)
	if err != nil {
		return err
	}
	costs := pipeline.CalculateCosts(msgs, q.settings.Prices, pipeline.CostOptions{
		Since: w.From, Until: w.To, Location: w.Location,
	})
	days := pipeline.AggregateDays(msgs, sessions, costs, w.From, w.To, w.Location)

	if flagJSON {
		return printJSON(days)
	}

	fmt.Println()
	fmt.Println(title("DAILY ACTIVITY", w))
	fmt.Println()

	values := make([]float64, len(days))
	rows := make([][]string, 0, len(days))
	for i, d := range days {
		values[i] = float64(d.Messages)
		rows = append(rows, []string{
			d.Date,
			cli.FormatNumber(int64(d.Messages)),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatCost(d.Cost),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Messages", "Sessions", "Cost"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Messages  %s\n", cli.RenderSparkline(values))
	return nil
}
