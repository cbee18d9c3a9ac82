package validate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/vibe-vcf/internal/vcf"
)

// Config holds the settings for validating one input.
type Config struct {
	Level Level
	// MaxDiagnostics bounds the stored diagnostics. Zero selects
	// DefaultMaxDiagnostics and a negative value means unlimited.
	MaxDiagnostics int
	Logger         *zap.Logger
}

// Result is the outcome of validating one input.
type Result struct {
	Name        string
	Level       Level
	Valid       bool
	Halted      bool
	Source      *vcf.Source // nil if the column header was never seen
	Stats       Stats
	Diagnostics []Diagnostic
	Warnings    int
	Errors      int
	Dropped     int

	// Err is an I/O failure; a result with Err set is never valid.
	Err error
}

// Result summarizes the engine state. Call it after End.
func (e *Engine) Result() *Result {
	return &Result{
		Name:        e.name,
		Level:       e.level,
		Valid:       e.IsValid(),
		Halted:      e.halted,
		Source:      e.source,
		Stats:       e.stats,
		Diagnostics: e.Diagnostics(),
		Warnings:    e.counts[SeverityWarning],
		Errors:      e.counts[SeverityError],
		Dropped:     e.dropped,
	}
}

// Run feeds every line of r into e, stopping at EOF, on a halt or when ctx
// is done, and then ends the engine. Records are passed to onRecord when it
// is not nil. Read failures and context errors are returned; the engine is
// still ended so its provisional verdict can be queried.
func Run(ctx context.Context, r vcf.LineReader, e *Engine, onRecord func(*vcf.Record)) error {
	e.SetEncoding(r.Encoding())

	var runErr error
	for !e.Halted() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = err
			break
		}

		rec, err := e.Parse(line)
		if err != nil {
			// Only ErrEnded or ErrHalted; neither means more lines are wanted.
			break
		}
		if rec != nil && onRecord != nil {
			onRecord(rec)
		}
	}

	if err := e.End(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// ValidateFile opens path ("-" or "stdin" for standard input), validates
// it and returns the result. Open and read failures are reported in
// Result.Err and make the result invalid.
func ValidateFile(ctx context.Context, path string, cfg Config) *Result {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reader, err := vcf.Open(path)
	if err != nil {
		return &Result{Name: path, Level: cfg.Level, Err: err}
	}
	defer reader.Close()

	e := NewEngine(reader.Name(), cfg.Level)
	e.SetLogger(logger)
	if cfg.MaxDiagnostics != 0 {
		e.SetMaxDiagnostics(cfg.MaxDiagnostics)
	}

	logger.Debug("validating",
		zap.String("input", reader.Name()),
		zap.Stringer("encoding", reader.Encoding()),
		zap.Stringer("level", cfg.Level))

	runErr := Run(ctx, reader, e, nil)
	res := e.Result()
	if runErr != nil {
		res.Err = fmt.Errorf("validate %s: %w", reader.Name(), runErr)
		res.Valid = false
	}
	return res
}
