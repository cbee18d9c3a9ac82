package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-vcf/internal/validate"
)

// TabWriter writes one tab-delimited row per diagnostic.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Input",
			"Line",
			"Severity",
			"Kind",
			"Rule",
			"Message",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes the diagnostics of one result. An I/O failure is written as
// a single row with line 0.
func (tw *TabWriter) Write(res *validate.Result) error {
	if res.Err != nil {
		return tw.row(res.Name, "0", "error", "io_failure", "-", res.Err.Error())
	}
	for _, d := range res.Diagnostics {
		if err := tw.row(
			res.Name,
			strconv.Itoa(d.Line),
			d.Severity.String(),
			d.Kind.String(),
			dash(string(d.Rule)),
			d.Message,
		); err != nil {
			return err
		}
	}
	return nil
}

// cellEscaper keeps quoted line content from breaking the row layout.
var cellEscaper = strings.NewReplacer("\t", `\t`, "\n", `\n`)

func (tw *TabWriter) row(values ...string) error {
	for i, v := range values {
		values[i] = cellEscaper.Replace(v)
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
