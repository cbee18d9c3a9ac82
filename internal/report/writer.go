// Package report provides output formatters for validation results.
package report

import (
	"fmt"
	"io"

	"github.com/inodb/vibe-vcf/internal/validate"
)

// ResultWriter writes validation results.
type ResultWriter interface {
	WriteHeader() error
	Write(res *validate.Result) error
	Flush() error
}

// Formats lists the names accepted by NewWriter.
var Formats = []string{"text", "tab", "json"}

// NewWriter returns the writer for the named format.
func NewWriter(format string, w io.Writer) (ResultWriter, error) {
	switch format {
	case "text", "":
		return NewTextWriter(w), nil
	case "tab":
		return NewTabWriter(w), nil
	case "json":
		return NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Verdict is the human-readable outcome used by every format.
func Verdict(res *validate.Result) string {
	if res.Valid {
		return "valid"
	}
	return "not valid"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
