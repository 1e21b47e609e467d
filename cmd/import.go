package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cpulse/internal/cli"
	"github.com/theirongolddev/cpulse/internal/pipeline"
)

var flagForce bool

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import JSONL chat exports into the store",
	Long: "Scan dir for .jsonl exports and store their messages and progress rows.\n" +
		"Files unchanged since the last import are skipped unless --force is set.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagForce, "force", false, "Reparse every file, ignoring the file tracker")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", args[0])
	}
	res, err := pipeline.Import(cmd.Context(), args[0], st, flagForce, progressPrinter())
	if err != nil {
		return err
	}
	if !flagQuiet && res.Reparsed > 0 {
		fmt.Fprintln(os.Stderr)
	}

	if flagJSON {
		return printJSON(map[string]int{
			"files":        res.TotalFiles,
			"skipped":      res.Skipped,
			"reparsed":     res.Reparsed,
			"messages":     len(res.Messages),
			"progress":     len(res.Progress),
			"parse_errors": res.ParseErrors,
			"file_errors":  res.FileErrors,
		})
	}

	total, err := st.MessageCount(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Import", "Count"},
		Rows: [][]string{
			{"Files found", cli.FormatNumber(int64(res.TotalFiles))},
			{"Unchanged", cli.FormatNumber(int64(res.Skipped))},
			{"Parsed", cli.FormatNumber(int64(res.ParsedFiles))},
			{"Messages", cli.FormatNumber(int64(len(res.Messages)))},
			{"Progress rows", cli.FormatNumber(int64(len(res.Progress)))},
			{"---"},
			{"Messages in store", cli.FormatNumber(int64(total))},
		},
	}))

	if res.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d malformed rows skipped\n", res.ParseErrors)
	}
	if res.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d files could not be read\n", res.FileErrors)
	}
	return nil
}
