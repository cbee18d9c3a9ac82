package validate

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-vcf/internal/vcf"
)

var (
	// ErrEnded is returned by Parse and End once End has been called.
	ErrEnded = errors.New("validation already ended")
	// ErrHalted is returned by Parse after a strict run stopped.
	ErrHalted = errors.New("validation halted")
)

type state uint8

const (
	stateHeaderMeta state = iota
	stateHeaderColumns
	stateBody
)

func (s state) String() string {
	switch s {
	case stateHeaderMeta:
		return "header_meta"
	case stateHeaderColumns:
		return "header_columns"
	default:
		return "body"
	}
}

// Stats counts what the engine has seen so far.
type Stats struct {
	Lines          int `json:"lines"` // submitted lines, blank lines included
	MetaLines      int `json:"meta_lines"`
	DataLines      int `json:"data_lines"`
	Records        int `json:"records"` // data lines that produced a Record
	Indels         int `json:"indels"`
	InvalidRecords int `json:"invalid_records"` // rejected by the grammar or an invariant
}

// Engine validates a VCF stream one line at a time. It is not safe for
// concurrent use; lines must be submitted in file order.
type Engine struct {
	name     string
	encoding vcf.Encoding
	level    Level
	logger   *zap.Logger

	state      state
	lineNumber int
	halted     bool
	ended      bool

	// Pending header, frozen into source at the column header line.
	version string
	content vcf.Content
	meta    []vcf.MetaEntry
	source  *vcf.Source

	columns   int
	hasFormat bool

	diagnostics    []Diagnostic
	maxDiagnostics int
	dropped        int
	counts         [SeverityError + 1]int
	maxSeverity    Severity

	stats Stats
}

// DefaultMaxDiagnostics is the stored diagnostic limit of a new engine.
const DefaultMaxDiagnostics = 1000

// NewEngine creates an engine for the named input at the given level. It
// stores at most DefaultMaxDiagnostics diagnostics; see SetMaxDiagnostics.
func NewEngine(name string, level Level) *Engine {
	return &Engine{
		name:           name,
		level:          level,
		logger:         zap.NewNop(),
		maxDiagnostics: DefaultMaxDiagnostics,
	}
}

// SetLogger sets the logger for state changes and halts.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// SetEncoding records the container encoding the lines were decoded from.
// It only takes effect before the column header line.
func (e *Engine) SetEncoding(enc vcf.Encoding) {
	e.encoding = enc
}

// SetMaxDiagnostics bounds the stored diagnostic log. Diagnostics beyond the
// limit are counted but not kept. Zero or less means unlimited, which lets
// a long malformed input grow the log by one entry per line.
func (e *Engine) SetMaxDiagnostics(n int) {
	e.maxDiagnostics = n
}

// SetLevel changes the strictness. Diagnostics already recorded are
// re-judged by IsValid; a halt that already happened is not undone.
func (e *Engine) SetLevel(l Level) {
	e.level = l
}

// Parse submits the next line, with or without its terminator. It returns
// the Record built from a valid data line, or nil for header lines, blank
// lines and lines that produced a diagnostic. Line failures never surface
// as errors; the only errors are ErrEnded and ErrHalted.
func (e *Engine) Parse(line string) (*vcf.Record, error) {
	if e.ended {
		return nil, ErrEnded
	}
	if e.halted {
		return nil, ErrHalted
	}

	e.lineNumber++
	e.stats.Lines++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(line, "##"):
		e.stats.MetaLines++
		if e.state == stateBody {
			e.structural("meta line after the column header line")
			return nil, nil
		}
		e.parseMeta(line[2:])
		return nil, nil

	case strings.HasPrefix(line, "#"):
		if e.state == stateBody {
			e.structural("duplicate column header line")
			return nil, nil
		}
		e.setState(stateHeaderColumns)
		e.parseColumnHeader(line[1:])
		e.setState(stateBody)
		return nil, nil

	default:
		e.stats.DataLines++
		if e.state != stateBody {
			e.stats.InvalidRecords++
			e.structural("data line before the column header line")
			return nil, nil
		}
		return e.parseData(line), nil
	}
}

// End finalizes the run. A stream that never reached the body is reported
// as a structural error unless the run already halted.
func (e *Engine) End() error {
	if e.ended {
		return ErrEnded
	}
	e.ended = true

	if e.state != stateBody && !e.halted {
		e.structural("no column header line found")
	}

	e.logger.Debug("validation ended",
		zap.String("input", e.name),
		zap.Int("lines", e.stats.Lines),
		zap.Int("records", e.stats.Records),
		zap.Int("diagnostics", e.DiagnosticCount()),
		zap.Bool("valid", e.IsValid()))
	return nil
}

// IsValid reports whether no diagnostic at or above the level's threshold
// was recorded. Before End it is a provisional verdict over the lines seen.
func (e *Engine) IsValid() bool {
	return e.maxSeverity < e.level.Threshold()
}

// Halted reports whether a strict run stopped accepting lines.
func (e *Engine) Halted() bool { return e.halted }

// Ended reports whether End was called.
func (e *Engine) Ended() bool { return e.ended }

// Level returns the strictness in effect.
func (e *Engine) Level() Level { return e.level }

// Name returns the input name.
func (e *Engine) Name() string { return e.name }

// LineNumber returns the number of lines submitted so far.
func (e *Engine) LineNumber() int { return e.lineNumber }

// Source returns the header context, or nil before the column header line.
func (e *Engine) Source() *vcf.Source { return e.source }

// Stats returns the running counters.
func (e *Engine) Stats() Stats { return e.stats }

// Diagnostics returns the stored diagnostics in line order.
func (e *Engine) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), e.diagnostics...)
}

// Dropped returns how many diagnostics exceeded the storage limit.
func (e *Engine) Dropped() int { return e.dropped }

// DiagnosticCount returns the number of diagnostics recorded, stored or not.
func (e *Engine) DiagnosticCount() int {
	return e.counts[SeverityWarning] + e.counts[SeverityError]
}

// Count returns the number of diagnostics recorded at severity s.
func (e *Engine) Count(s Severity) int {
	if s > SeverityError {
		return 0
	}
	return e.counts[s]
}

// MaxSeverity returns the highest severity recorded.
func (e *Engine) MaxSeverity() Severity { return e.maxSeverity }

func (e *Engine) setState(s state) {
	if s == e.state {
		return
	}
	e.logger.Debug("state change",
		zap.String("input", e.name),
		zap.Int("line", e.lineNumber),
		zap.Stringer("from", e.state),
		zap.Stringer("to", s))
	e.state = s
}

func (e *Engine) structural(msg string) {
	e.report(Diagnostic{Line: e.lineNumber, Kind: KindStructural, Message: msg})
}

func (e *Engine) invariant(err *vcf.InvariantError) {
	e.report(Diagnostic{Line: e.lineNumber, Kind: KindInvariant, Rule: err.Rule, Message: err.Message})
}

func (e *Engine) report(d Diagnostic) {
	if e.halted {
		return
	}
	d.Severity = severityOf(d.Kind)
	e.counts[d.Severity]++
	if d.Severity > e.maxSeverity {
		e.maxSeverity = d.Severity
	}

	if e.maxDiagnostics > 0 && len(e.diagnostics) >= e.maxDiagnostics {
		e.dropped++
	} else {
		e.diagnostics = append(e.diagnostics, d)
	}

	if e.level.Halts() && d.Severity >= e.level.Threshold() {
		e.halted = true
		e.logger.Info("validation halted",
			zap.String("input", e.name),
			zap.Int("line", d.Line),
			zap.Stringer("kind", d.Kind),
			zap.String("message", d.Message))
	}
}
