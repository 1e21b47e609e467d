package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "AI spend by model and by day",
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, _ []string) error {
	q, err := openQuery(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = q.st.Close() }()

	if q.creator == "" {
		printNoData()
		return nil
	}

	msgs, err := pipeline.LoadWindow(cmd.Context(), q.st, q.creator, "", q.window)
	if err != nil {
		return err
	}
	costs := pipeline.CalculateCosts(msgs, q.settings.Prices, pipeline.CostOptions{
		Since:    q.window.From,
		Until:    q.window.To,
		Location: q.window.Location,
	})

	if flagJSON {
		return printJSON(struct {
			model.CostBreakdown
			Models []pipeline.ModelCost `json:"models"`
			Days   []pipeline.DateCost  `json:"days"`
		}{costs, pipeline.ModelCosts(costs), pipeline.DateCosts(costs)})
	}
	if costs.PricedMessages == 0 {
		fmt.Println("\n  No priced assistant messages in the selected window.")
		if costs.SkippedMessages > 0 {
			fmt.Fprintf(os.Stderr, "  %d assistant messages had no known model or token counts\n", costs.SkippedMessages)
		}
		return nil
	}

	fmt.Println()
	fmt.Println(title("AI COSTS", q.window))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Cost", "Value"},
		Rows: [][]string{
			{"Total", cli.FormatCost(costs.Total)},
			{"Per message", cli.FormatCost(costs.PerMessage)},
			{"Per student", cli.FormatCost(costs.PerStudent)},
			{"---"},
			{"Priced messages", cli.FormatNumber(int64(costs.PricedMessages))},
			{"Skipped", cli.FormatNumber(int64(costs.SkippedMessages))},
		},
	}))

	modelRows := make([][]string, 0, len(costs.ByModel))
	for _, mc := range pipeline.ModelCosts(costs) {
		modelRows = append(modelRows, []string{
			mc.Model,
			cli.FormatCost(mc.Cost),
			cli.FormatPercent(mc.SharePercent),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Model",
		Headers: []string{"Model", "Cost", "Share"},
		Rows:    modelRows,
	}))

	dayRows := make([][]string, 0, len(costs.ByDate))
	for _, dc := range pipeline.DateCosts(costs) {
		dayRows = append(dayRows, []string{dc.Date, cli.FormatCost(dc.Cost)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Day",
		Headers: []string{"Date", "Cost"},
		Rows:    dayRows,
	}))
	return nil
}
