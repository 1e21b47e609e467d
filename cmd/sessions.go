package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Student sessions, newest first",
	RunE:  runSessions,
}

var (
	sessionsLimit   int
	sessionsStudent string
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show (0 for all)")
	sessionsCmd.Flags().StringVarP(&sessionsStudent, "student", "s", "", "Only this student's sessions")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	q, err := openQuery(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = q.st.Close() }()

	if q.creator == "" {
		printNoData()
		return nil
	}

	msgs, err := pipeline.LoadWindow(cmd.Context(), q.st, q.creator, sessionsStudent, q.window)
	if err != nil {
		return err
	}
	sessions, err := pipeline.SegmentAll(msgs, q.settings.Thresholds.SessionGap)
	if err != nil {
		return err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	total := len(sessions)
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	if flagJSON {
		return printJSON(pipeline.StripMessages(sessions))
	}
	if total == 0 {
		fmt.Println("\n  No sessions in the selected window.")
		return nil
	}

	fmt.Println()
	fmt.Println(title(fmt.Sprintf("SESSIONS (%d of %d)", len(sessions), total), q.window))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		done := ""
		if s.Completed {
			done = "✓"
		}
		rows = append(rows, []string{
			s.StartTime.In(q.window.Location).Format("Jan 02 15:04"),
			cli.Truncate(s.StudentID, 18),
			cli.FormatDuration(s.Duration),
			cli.FormatNumber(int64(s.MessageCount)),
			done,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Start", "Student", "Duration", "Messages", "Done"},
		Rows:    rows,
	}))
	return nil
}
