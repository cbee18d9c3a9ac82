// Package validate implements the streaming VCF validation engine: a line
// classifier and state machine that builds the header context, constructs
// records under their invariants and collects diagnostics.
package validate

import (
	"fmt"

	"github.com/inodb/vibe-vcf/internal/vcf"
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	// KindStructural is a line that does not match the grammar of its phase.
	KindStructural Kind = iota + 1
	// KindInvariant is a well-formed data line that breaks a record invariant.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural_error"
	case KindInvariant:
		return "invariant_violation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Severity orders diagnostics. The zero value means "no diagnostic".
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// severityOf is the fixed severity of each diagnostic kind.
func severityOf(k Kind) Severity {
	if k == KindStructural {
		return SeverityError
	}
	return SeverityWarning
}

// Diagnostic is one recorded failure. Line is 1-based; it is the number of
// the last submitted line for diagnostics raised by End.
type Diagnostic struct {
	Line     int
	Kind     Kind
	Severity Severity
	Rule     vcf.Rule // set for KindInvariant only
	Message  string
}

func (d Diagnostic) String() string {
	if d.Rule != "" {
		return fmt.Sprintf("line %d: %s (%s): %s", d.Line, d.Severity, d.Rule, d.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range []Severity{SeverityNone, SeverityWarning, SeverityError} {
		if sev.String() == s {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindStructural, KindInvariant} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown diagnostic kind %q", s)
}
