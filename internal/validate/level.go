package validate

import (
	"fmt"
	"strings"
)

// Level is the caller-selected strictness. Levels are ordered from the
// least to the most strict.
type Level uint8

const (
	// LevelPermissive fails a file on structural errors only.
	LevelPermissive Level = iota
	// LevelStandard also fails a file on invariant violations.
	LevelStandard
	// LevelStrict behaves like LevelStandard and stops at the first failure.
	LevelStrict
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = LevelStandard

var levelNames = map[string]Level{
	"permissive": LevelPermissive,
	"standard":   LevelStandard,
	"strict":     LevelStrict,
	// Level names accepted by EBI vcf-validator.
	"error":   LevelPermissive,
	"warning": LevelStandard,
	"block":   LevelStrict,
	"stop":    LevelStrict,
}

// ParseLevel resolves a level name, case-insensitively.
func ParseLevel(name string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown validation level %q (want permissive, standard or strict)", name)
	}
	return l, nil
}

func (l Level) String() string {
	switch l {
	case LevelPermissive:
		return "permissive"
	case LevelStandard:
		return "standard"
	case LevelStrict:
		return "strict"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// Threshold is the lowest severity that makes a file invalid at this level.
func (l Level) Threshold() Severity {
	if l == LevelPermissive {
		return SeverityError
	}
	return SeverityWarning
}

// Halts reports whether the engine stops at the first qualifying diagnostic.
func (l Level) Halts() bool { return l == LevelStrict }
