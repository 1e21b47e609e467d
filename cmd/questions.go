package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Most asked student questions, clustered by similarity",
	RunE:  runQuestions,
}

var (
	questionsLimit      int
	questionsVariations bool
)

func init() {
	questionsCmd.Flags().IntVarP(&questionsLimit, "limit", "l", 10, "Number of clusters to show (0 for all)")
	questionsCmd.Flags().BoolVarP(&questionsVariations, "variations", "v", false, "List every phrasing under each cluster")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, _ []string) error {
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
	clusters := pipeline.SortClustersByCount(
		pipeline.ClusterQuestions(pipeline.ExtractQuestions(msgs), q.settings.ClusterOptions()))
	total := len(clusters)
	if questionsLimit > 0 && len(clusters) > questionsLimit {
		clusters = clusters[:questionsLimit]
	}

	if flagJSON {
		return printJSON(clusters)
	}
	if total == 0 {
		fmt.Println("\n  No student questions in the selected window.")
		return nil
	}

	fmt.Println()
	fmt.Println(title(fmt.Sprintf("QUESTIONS (%d clusters)", total), q.window))
	fmt.Println()

	rows := make([][]string, 0, len(clusters))
	for i, c := range clusters {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			cli.Truncate(c.Representative, 56),
			cli.FormatNumber(int64(c.Count)),
			cli.FormatNumber(int64(len(c.Variations))),
			cli.FormatResponseTime(c.AvgResponseTimeMs, c.ResponseSamples),
		})
		if questionsVariations && len(c.Variations) > 1 {
			for _, v := range c.Variations[1:] {
				rows = append(rows, []string{"", "  " + cli.Truncate(v.Text, 54), fmt.Sprintf("%dx", v.Count), "", ""})
			}
		}
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "Question", "Asked", "Forms", "Avg reply"},
		Rows:    rows,
	}))

	if videos := citedVideos(clusters); len(videos) > 0 {
		fmt.Printf("\n  Videos cited in answers: %s\n", strings.Join(videos, ", "))
	}
	return nil
}

func citedVideos(clusters []model.QuestionCluster) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range clusters {
		for _, id := range c.VideoIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
