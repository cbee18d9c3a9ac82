package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-vcf/internal/duckdb"
	"github.com/inodb/vibe-vcf/internal/report"
	"github.com/inodb/vibe-vcf/internal/validate"
	"github.com/inodb/vibe-vcf/internal/vcf"
)

func newValidateCmd() *cobra.Command {
	var skipUnchanged bool

	cmd := &cobra.Command{
		Use:   "validate [flags] [input-file...]",
		Short: "Validate VCF files",
		Long: `Validate one or more VCF files (plain, gzip or bgzip) line by line.

Levels, from least to most strict:
  permissive  only structural errors make a file invalid
  standard    invariant violations also make a file invalid (default)
  strict      like standard, and stop at the first failure

The exit code is 0 when every input is valid and 1 otherwise.`,
		Example: `  vibe-vcf validate input.vcf.gz
  vibe-vcf validate --level strict a.vcf b.vcf
  cat input.vcf | vibe-vcf validate
  vibe-vcf validate -f json --report-db ~/.vibe-vcf/reports.duckdb input.vcf`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"validation.level":           "level",
				"validation.input":           "input",
				"validation.max_diagnostics": "max-diagnostics",
				"output.format":              "format",
				"report.db":                  "report-db",
				"workers":                    "workers",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				inputs = []string{viper.GetString("validation.input")}
			}
			return runValidate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), inputs, skipUnchanged)
		},
	}

	flags := cmd.Flags()
	flags.StringP("level", "l", "standard", "Validation level: permissive, standard, strict")
	flags.StringP("input", "i", vcf.StdinName, "Path to the input VCF file, or stdin")
	flags.StringP("format", "f", "text", "Output format: "+strings.Join(report.Formats, ", "))
	flags.Int("max-diagnostics", 1000, "Maximum diagnostics kept per input (0 = unlimited)")
	flags.String("report-db", "", "DuckDB file to record the run in")
	flags.IntP("workers", "j", 0, "Inputs validated concurrently (0 = number of CPUs)")
	flags.BoolVar(&skipUnchanged, "skip-unchanged", false, "Reuse the recorded verdict of inputs unchanged since their last run (needs --report-db)")

	return cmd
}

func runValidate(ctx context.Context, stdout, stderr io.Writer, inputs []string, skipUnchanged bool) error {
	level, err := validate.ParseLevel(viper.GetString("validation.level"))
	if err != nil {
		return &usageError{err}
	}

	writer, err := report.NewWriter(viper.GetString("output.format"), stdout)
	if err != nil {
		return &usageError{err}
	}

	logger, err := newLogger()
	if err != nil {
		return &usageError{err}
	}
	defer logger.Sync()

	var store *duckdb.Store
	if path := viper.GetString("report.db"); path != "" {
		store, err = duckdb.Open(path)
		if err != nil {
			return fmt.Errorf("opening report database: %w", err)
		}
		defer store.Close()
	} else if skipUnchanged {
		return &usageError{fmt.Errorf("--skip-unchanged requires --report-db")}
	}

	maxDiagnostics := viper.GetInt("validation.max_diagnostics")
	if maxDiagnostics == 0 {
		maxDiagnostics = -1
	}
	cfg := validate.Config{
		Level:          level,
		MaxDiagnostics: maxDiagnostics,
		Logger:         logger,
	}

	allValid := true
	if skipUnchanged {
		inputs, allValid, err = skipRecorded(stdout, store, inputs, level)
		if err != nil {
			return err
		}
	}

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	// Progress lines would corrupt tab and JSON output, so only text gets them.
	textWriter, isText := writer.(*report.TextWriter)
	if isText {
		for _, in := range inputs {
			if isStdin(in) {
				fmt.Fprintln(stdout, "Reading from standard input...")
			} else {
				fmt.Fprintf(stdout, "Reading from input file %s...\n", in)
			}
		}
	}

	err = validate.Files(ctx, inputs, cfg, viper.GetInt("workers"), func(r validate.WorkResult) error {
		res := r.Result
		if !res.Valid {
			allValid = false
		}
		if res.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", res.Err)
		}

		logger.Info("validated",
			zap.String("input", res.Name),
			zap.Bool("valid", res.Valid),
			zap.Int("records", res.Stats.Records),
			zap.Int("warnings", res.Warnings),
			zap.Int("errors", res.Errors))

		if store != nil {
			if err := recordRun(store, r.Path, res); err != nil {
				logger.Warn("could not record run", zap.String("input", res.Name), zap.Error(err))
			}
		}
		return writer.Write(res)
	})
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if isText && len(inputs) > 1 {
		textWriter.WriteSummary(stdout)
	}

	if !allValid {
		return &exitError{code: ExitError}
	}
	return nil
}

func isStdin(path string) bool {
	return path == "-" || path == vcf.StdinName
}

func fingerprint(path string) duckdb.FileFingerprint {
	if isStdin(path) {
		return duckdb.FileFingerprint{Path: vcf.StdinName}
	}
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return duckdb.FileFingerprint{Path: path}
	}
	return fp
}

func recordRun(store *duckdb.Store, path string, res *validate.Result) error {
	_, err := store.RecordRun(res, fingerprint(path), time.Now())
	return err
}

// skipRecorded drops inputs whose last run at this level covered the same
// file contents, printing the recorded verdict instead.
func skipRecorded(stdout io.Writer, store *duckdb.Store, inputs []string, level validate.Level) ([]string, bool, error) {
	allValid := true
	var remaining []string
	for _, in := range inputs {
		run, err := store.FindRun(fingerprint(in), level)
		if err != nil {
			return nil, false, fmt.Errorf("looking up previous run: %w", err)
		}
		if run == nil {
			remaining = append(remaining, in)
			continue
		}
		verdict := "valid"
		if !run.Valid {
			verdict = "not valid"
			allValid = false
		}
		fmt.Fprintf(stdout, "The input file %s is %s (unchanged since run %d)\n", in, verdict, run.ID)
	}
	return remaining, allValid, nil
}
