package vcf

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
)

// Rule names the record invariant that failed.
type Rule string

const (
	RuleChromosome Rule = "chromosome"
	RuleIDs        Rule = "ids"
	RuleAlternates Rule = "alternate_alleles"
	RuleQuality    Rule = "quality"
	RuleFormat     Rule = "format"
)

// GenotypeKey is the FORMAT key that must come first when present.
const GenotypeKey = "GT"

// InvariantError reports the first record invariant a data line violated.
type InvariantError struct {
	Rule    Rule
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Rule, e.Message)
}

// MissingQuality returns the sentinel for a "." QUAL column.
func MissingQuality() float64 { return math.NaN() }

// IsMissingQuality reports whether q is the missing-quality sentinel.
func IsMissingQuality(q float64) bool { return math.IsNaN(q) }

// RecordFields holds the column values a Record is built from.
type RecordFields struct {
	Chromosome string
	Position   uint64
	IDs        []string
	Reference  string
	Alternates []string
	Quality    float64
	Filters    []string
	Info       string
	Format     string
	Samples    []string
}

// Record is one data line that passed every invariant check.
type Record struct {
	f      RecordFields
	source *Source
}

// NewRecord checks the invariants in order and returns the first violation
// as an *InvariantError. The slices in f are copied. source may be nil.
func NewRecord(f RecordFields, source *Source) (*Record, error) {
	checks := []func(*RecordFields) error{
		checkChromosome,
		checkIDs,
		checkAlternates,
		checkQuality,
		checkFormat,
	}
	for _, check := range checks {
		if err := check(&f); err != nil {
			return nil, err
		}
	}

	f.IDs = slices.Clone(f.IDs)
	f.Alternates = slices.Clone(f.Alternates)
	f.Filters = slices.Clone(f.Filters)
	f.Samples = slices.Clone(f.Samples)
	return &Record{f: f, source: source}, nil
}

func checkChromosome(f *RecordFields) error {
	if f.Chromosome == "" {
		return &InvariantError{Rule: RuleChromosome, Message: "chromosome is empty"}
	}
	for _, r := range f.Chromosome {
		if r == ':' || unicode.IsSpace(r) {
			return &InvariantError{
				Rule:    RuleChromosome,
				Message: fmt.Sprintf("chromosome %q contains %q", f.Chromosome, r),
			}
		}
	}
	return nil
}

func checkIDs(f *RecordFields) error {
	for _, id := range f.IDs {
		if strings.IndexFunc(id, func(r rune) bool { return !isAlnum(r) }) >= 0 {
			return &InvariantError{
				Rule:    RuleIDs,
				Message: fmt.Sprintf("id %q is not alphanumeric", id),
			}
		}
	}
	return nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func checkAlternates(f *RecordFields) error {
	ref := f.Reference
	for _, alt := range f.Alternates {
		if len(alt) != len(ref) || alt == ref {
			continue
		}
		if alt[0] != ref[0] {
			return &InvariantError{
				Rule:    RuleAlternates,
				Message: fmt.Sprintf("alternate %q does not share the first base of reference %q", alt, ref),
			}
		}
	}
	return nil
}

func checkQuality(f *RecordFields) error {
	if IsMissingQuality(f.Quality) || f.Quality >= 0 {
		return nil
	}
	return &InvariantError{
		Rule:    RuleQuality,
		Message: fmt.Sprintf("quality %g is negative", f.Quality),
	}
}

func checkFormat(f *RecordFields) error {
	if f.Format == "" {
		return nil
	}
	first, _, _ := strings.Cut(f.Format, ":")
	if first != GenotypeKey {
		return &InvariantError{
			Rule:    RuleFormat,
			Message: fmt.Sprintf("format %q does not start with %s", f.Format, GenotypeKey),
		}
	}
	return nil
}

func (r *Record) Chromosome() string   { return r.f.Chromosome }
func (r *Record) Position() uint64     { return r.f.Position }
func (r *Record) IDs() []string        { return slices.Clone(r.f.IDs) }
func (r *Record) Reference() string    { return r.f.Reference }
func (r *Record) Alternates() []string { return slices.Clone(r.f.Alternates) }
func (r *Record) Quality() float64     { return r.f.Quality }
func (r *Record) Filters() []string    { return slices.Clone(r.f.Filters) }
func (r *Record) Info() string         { return r.f.Info }
func (r *Record) Format() string       { return r.f.Format }
func (r *Record) Samples() []string    { return slices.Clone(r.f.Samples) }

// Source returns the header context the record was read under.
func (r *Record) Source() *Source { return r.source }

// Fields returns a copy of the record's column values.
func (r *Record) Fields() RecordFields {
	f := r.f
	f.IDs = slices.Clone(f.IDs)
	f.Alternates = slices.Clone(f.Alternates)
	f.Filters = slices.Clone(f.Filters)
	f.Samples = slices.Clone(f.Samples)
	return f
}

// Equal compares every column value. The source is not compared.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	a, b := r.f, o.f
	sameQual := a.Quality == b.Quality || (IsMissingQuality(a.Quality) && IsMissingQuality(b.Quality))
	return a.Chromosome == b.Chromosome &&
		a.Position == b.Position &&
		slices.Equal(a.IDs, b.IDs) &&
		a.Reference == b.Reference &&
		slices.Equal(a.Alternates, b.Alternates) &&
		sameQual &&
		slices.Equal(a.Filters, b.Filters) &&
		a.Info == b.Info &&
		a.Format == b.Format &&
		slices.Equal(a.Samples, b.Samples)
}

// IsIndel returns true if any alternate differs in length from the reference.
func (r *Record) IsIndel() bool {
	for _, alt := range r.f.Alternates {
		if !isSymbolic(alt) && len(alt) != len(r.f.Reference) {
			return true
		}
	}
	return false
}

// isSymbolic reports structural alleles such as <DEL> or breakends.
func isSymbolic(alt string) bool {
	return strings.HasPrefix(alt, "<") || strings.ContainsAny(alt, "[]") || alt == "*"
}
