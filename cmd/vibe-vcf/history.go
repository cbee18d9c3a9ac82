package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-vcf/internal/duckdb"
)

func newHistoryCmd() *cobra.Command {
	var (
		input    string
		runID    int64
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `List the validation runs stored in a report database by
'vibe-vcf validate --report-db'. With --run, show the diagnostics of one run.`,
		Example: `  vibe-vcf history --report-db reports.duckdb
  vibe-vcf history --report-db reports.duckdb --input sample.vcf.gz
  vibe-vcf history --report-db reports.duckdb --run 3`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"report.db": "report-db"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("report.db")
			if path == "" {
				return &usageError{fmt.Errorf("no report database given (use --report-db or set report.db)")}
			}

			store, err := duckdb.Open(path)
			if err != nil {
				return fmt.Errorf("opening report database: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				if err := store.ClearRuns(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared all runs from %s\n", path)
				return nil
			case runID > 0:
				return showRun(out, store, runID)
			default:
				return listRuns(out, store, input)
			}
		},
	}

	flags := cmd.Flags()
	flags.String("report-db", "", "DuckDB report database")
	flags.StringVarP(&input, "input", "i", "", "Only list runs of this input")
	flags.Int64Var(&runID, "run", 0, "Show the diagnostics of this run")
	flags.BoolVar(&clearAll, "clear", false, "Delete all recorded runs")

	return cmd
}

func listRuns(out io.Writer, store *duckdb.Store, input string) error {
	runs, err := store.Runs(input)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCHECKED\tINPUT\tLEVEL\tVERDICT\tRECORDS\tWARNINGS\tERRORS")
	for _, r := range runs {
		verdict := "valid"
		switch {
		case r.Error != "":
			verdict = "unreadable"
		case !r.Valid:
			verdict = "not valid"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.CheckedAt.Local().Format(time.DateTime), r.Input, r.Level,
			verdict, r.Records, r.Warnings, r.Errors)
	}
	return w.Flush()
}

func showRun(out io.Writer, store *duckdb.Store, runID int64) error {
	diags, err := store.Diagnostics(runID)
	if err != nil {
		return err
	}
	if len(diags) == 0 {
		fmt.Fprintf(out, "Run %d has no stored diagnostics.\n", runID)
		return nil
	}
	for _, d := range diags {
		fmt.Fprintln(out, d.String())
	}

	counts, err := store.RuleCounts(runID)
	if err != nil {
		return err
	}
	rules := make([]string, 0, len(counts))
	for rule := range counts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tCOUNT")
	for _, rule := range rules {
		fmt.Fprintf(w, "%s\t%d\n", rule, counts[rule])
	}
	return w.Flush()
}
