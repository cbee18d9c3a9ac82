package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inodb/vibe-vcf/internal/validate"
)

// TextWriter writes a human-readable verdict per input followed by its
// diagnostics, and keeps totals for WriteSummary.
type TextWriter struct {
	w       *tabwriter.Writer
	total   int
	valid   int
	invalid int
}

// NewTextWriter creates a new text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{
		w: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader is a no-op for text output.
func (tw *TextWriter) WriteHeader() error { return nil }

// Write writes the verdict and diagnostics of one result.
func (tw *TextWriter) Write(res *validate.Result) error {
	tw.total++
	if res.Valid {
		tw.valid++
	} else {
		tw.invalid++
	}

	if _, err := fmt.Fprintf(tw.w, "The input file %s is %s (level %s)\n", res.Name, Verdict(res), res.Level); err != nil {
		return err
	}
	if res.Err != nil {
		return nil
	}

	for _, d := range res.Diagnostics {
		if _, err := fmt.Fprintf(tw.w, "  line %d\t%s\t%s\t%s\n",
			d.Line, d.Severity, dash(string(d.Rule)), d.Message); err != nil {
			return err
		}
	}
	if res.Dropped > 0 {
		if _, err := fmt.Fprintf(tw.w, "  ... %d more diagnostics not shown\n", res.Dropped); err != nil {
			return err
		}
	}
	if res.Halted {
		if _, err := fmt.Fprintf(tw.w, "  validation stopped at the first failure\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the writer.
func (tw *TextWriter) Flush() error {
	return tw.w.Flush()
}

// Summary returns verdict counts.
func (tw *TextWriter) Summary() (total, valid, invalid int) {
	return tw.total, tw.valid, tw.invalid
}

// WriteSummary writes a summary over every result written so far.
func (tw *TextWriter) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nValidation Summary:\n")
	fmt.Fprintf(w, "  Inputs:     %d\n", tw.total)
	fmt.Fprintf(w, "  Valid:      %d\n", tw.valid)
	fmt.Fprintf(w, "  Not valid:  %d\n", tw.invalid)
}
