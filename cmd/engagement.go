package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/model"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var engagementCmd = &cobra.Command{
	Use:   "engagement",
	Short: "Engagement scores for the creator and each student",
	RunE:  runEngagement,
}

var (
	engagementStudent string
	engagementLimit   int
)

func init() {
	engagementCmd.Flags().StringVarP(&engagementStudent, "student", "s", "", "Show the breakdown for one student")
	engagementCmd.Flags().IntVarP(&engagementLimit, "limit", "l", 25, "Number of students to list (0 for all)")
	rootCmd.AddCommand(engagementCmd)
}

func runEngagement(cmd *cobra.Command, _ []string) error {
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

	if engagementStudent != "" {
		for _, s := range dash.Students {
			if s.StudentID == engagementStudent {
				if flagJSON {
					return printJSON(s)
				}
				printScore("STUDENT "+s.StudentID, s.Score, q)
				fmt.Printf("\n  Videos %s · Course %s · %d sessions · %d messages · last active %s\n",
					cli.FormatPercent(s.Input.VideoCompletionRate), cli.FormatPercent(s.Input.CourseProgress),
					s.Sessions, s.Messages, cli.FormatAgo(s.LastActive))
				return nil
			}
		}
		return fmt.Errorf("student %q has no activity for %s in %s", engagementStudent, q.creator, q.window.Label())
	}

	students := dash.Students
	if engagementLimit > 0 && len(students) > engagementLimit {
		students = students[:engagementLimit]
	}
	if flagJSON {
		return printJSON(struct {
			Engagement model.EngagementScore     `json:"engagement"`
			Students   []model.StudentEngagement `json:"students"`
		}{dash.Engagement, students})
	}

	printScore("ENGAGEMENT "+q.creator, dash.Engagement, q)
	if len(students) == 0 {
		fmt.Println("\n  No student activity in the selected window.")
		return nil
	}

	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{
			cli.Truncate(s.StudentID, 18),
			cli.FormatScore(s.Score),
			cli.FormatNumber(int64(s.Sessions)),
			cli.FormatNumber(int64(s.Messages)),
			cli.FormatPercent(s.Input.CourseProgress),
			s.LastActive.In(q.window.Location).Format("Jan 02"),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Students (%d of %d)", len(students), len(dash.Students)),
		Headers: []string{"Student", "Score", "Sessions", "Messages", "Progress", "Active"},
		Rows:    rows,
	}))
	return nil
}

func printScore(label string, s model.EngagementScore, q *query) {
	w := cfg.Engagement
	bar := func(got, limit int) string {
		return fmt.Sprintf("%s %2d/%d", cli.RenderBar(got, limit, 20), got, limit)
	}

	fmt.Println()
	fmt.Println(title(label, q.window))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Component", "Score"},
		Rows: [][]string{
			{"Video", bar(s.Breakdown.Video, w.VideoCap)},
			{"Chat", bar(s.Breakdown.Chat, w.ChatCap)},
			{"Progress", bar(s.Breakdown.Progress, w.ProgressCap)},
			{"Login", bar(s.Breakdown.Login, w.LoginCap)},
			{"---"},
			{"Total", cli.FormatScore(s)},
		},
	}))
}
