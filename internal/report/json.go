package report

import (
	"bufio"
	"io"

	"github.com/goccy/go-json"

	"github.com/inodb/vibe-vcf/internal/validate"
)

// JSONWriter writes one JSON object per result (JSON Lines).
type JSONWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

type jsonDiagnostic struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Rule     string `json:"rule,omitempty"`
	Message  string `json:"message"`
}

type jsonResult struct {
	Input       string           `json:"input"`
	Level       string           `json:"level"`
	Valid       bool             `json:"valid"`
	Halted      bool             `json:"halted"`
	Version     string           `json:"version,omitempty"`
	Content     string           `json:"content,omitempty"`
	Encoding    string           `json:"encoding,omitempty"`
	Samples     []string         `json:"samples,omitempty"`
	Stats       validate.Stats   `json:"stats"`
	Warnings    int              `json:"warnings"`
	Errors      int              `json:"errors"`
	Dropped     int              `json:"dropped,omitempty"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

// NewJSONWriter creates a new JSON Lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	bw := bufio.NewWriter(w)
	return &JSONWriter{w: bw, enc: json.NewEncoder(bw)}
}

// WriteHeader is a no-op; JSON Lines has no header.
func (jw *JSONWriter) WriteHeader() error { return nil }

// Write encodes one result.
func (jw *JSONWriter) Write(res *validate.Result) error {
	out := jsonResult{
		Input:       res.Name,
		Level:       res.Level.String(),
		Valid:       res.Valid,
		Halted:      res.Halted,
		Stats:       res.Stats,
		Warnings:    res.Warnings,
		Errors:      res.Errors,
		Dropped:     res.Dropped,
		Diagnostics: make([]jsonDiagnostic, 0, len(res.Diagnostics)),
	}
	if res.Source != nil {
		out.Version = res.Source.Version()
		out.Content = res.Source.InputFormat().Content.String()
		out.Encoding = res.Source.InputFormat().Encoding.String()
		out.Samples = res.Source.SampleNames()
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			Line:     d.Line,
			Severity: d.Severity.String(),
			Kind:     d.Kind.String(),
			Rule:     string(d.Rule),
			Message:  d.Message,
		})
	}
	return jw.enc.Encode(out)
}

// Flush flushes any buffered data to the underlying writer.
func (jw *JSONWriter) Flush() error {
	return jw.w.Flush()
}
