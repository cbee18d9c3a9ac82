// Package main provides the vibe-vcf command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configName is the config file name in the user's home directory.
const configName = ".vibe-vcf"

// exitError carries a process exit code through cobra without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError marks errors caused by bad arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Interrupts stop validation between lines; partial results are still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)

	return exitCode(root.ExecuteContext(ctx), os.Stderr)
}

// exitCode maps a command error to the process exit code, printing it
// unless it only carries a code.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "vibe-vcf",
		Short: "Streaming VCF validator",
		Long: `vibe-vcf checks VCF files line by line against the format's grammar and
record invariants, and reports whether each file is valid at the selected
strictness level.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("log.verbose", cmd.Flags().Lookup("verbose")); err != nil {
				return err
			}
			return initConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	root.AddCommand(newValidateCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads ~/.vibe-vcf.yaml and VIBE_VCF_* environment variables.
func initConfig() error {
	viper.SetDefault("validation.level", "standard")
	viper.SetDefault("validation.max_diagnostics", 1000)
	viper.SetDefault("output.format", "text")
	viper.SetDefault("report.db", "")
	viper.SetDefault("workers", 0)
	viper.SetDefault("log.level", "warn")

	viper.SetEnvPrefix("VIBE_VCF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.ConfigFileUsed() == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(filepath.Join(home, configName+".yaml"))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

// bindFlags binds config keys to the named flags of cmd. Binding happens
// per invocation so commands sharing a key do not steal each other's flag.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// newLogger builds a console logger on stderr. --verbose forces debug level.
func newLogger() (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", viper.GetString("log.level"), err)
	}
	if viper.GetBool("log.verbose") {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
