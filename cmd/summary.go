package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Creator overview with period-over-period trends",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	q, err := openQuery(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = q.st.Close() }()

	if q.creator == "" {
		printNoData()
		return nil
	}

	dash, err := pipeline.LoadDashboard(cmd.Context(), q.st, q.creator, q.window, q.settings)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(dash)
	}

	if dash.Current.Messages == 0 && dash.Previous.Messages == 0 {
		fmt.Printf("\n  No messages for %s in %s.\n", q.creator, q.window.Label())
		return nil
	}

	cur, tr := dash.Current, dash.Trends
	row := func(label, value string, t model.Trend, upIsGood bool) []string {
		return []string{label, value, cli.RenderTrend(t, upIsGood)}
	}

	fmt.Println()
	fmt.Println(title("CREATOR "+q.creator, q.window))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value", fmt.Sprintf("vs prev %dd", q.window.Days())},
		Rows: [][]string{
			row("Students", cli.FormatNumber(int64(cur.Students)), tr.Students, true),
			row("Messages", cli.FormatNumber(int64(cur.Messages)), tr.Messages, true),
			row("Questions", cli.FormatNumber(int64(cur.Questions)), tr.Questions, true),
			{"---"},
			row("Sessions", cli.FormatNumber(int64(cur.Sessions)), tr.Sessions, true),
			row("Completion", cli.FormatPercent(cur.CompletionRate), tr.CompletionRate, true),
			row("Avg session", cli.FormatMinutes(cur.AvgSessionMinutes), tr.AvgSessionMinutes, true),
			{"---"},
			row("AI cost", cli.FormatCost(cur.Cost), tr.Cost, false),
			{"Engagement", cli.FormatScore(dash.Engagement), ""},
		},
	}))

	if len(dash.TopQuestions) > 0 {
		fmt.Println()
		fmt.Println(cli.RenderTitle("TOP QUESTIONS"))
		fmt.Println()
		rows := make([][]string, 0, 5)
		for i, c := range dash.TopQuestions[:min(5, len(dash.TopQuestions))] {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				cli.Truncate(c.Representative, 60),
				cli.FormatNumber(int64(c.Count)),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"#", "Question", "Asked"}, Rows: rows}))
	}
	return nil
}
