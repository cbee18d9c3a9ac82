package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/vibe-vcf/internal/vcf"
)

const missingValue = "."

// parseData splits a data line, checks its grammar and builds the Record.
func (e *Engine) parseData(line string) *vcf.Record {
	fields := strings.Split(line, "\t")
	if len(fields) != e.columns {
		e.stats.InvalidRecords++
		e.structural(fmt.Sprintf("expected %d columns, found %d", e.columns, len(fields)))
		return nil
	}

	pos, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		e.stats.InvalidRecords++
		e.structural(fmt.Sprintf("invalid position %q", fields[1]))
		return nil
	}

	qual, err := parseQuality(fields[5])
	if err != nil {
		e.stats.InvalidRecords++
		e.structural(err.Error())
		return nil
	}

	f := vcf.RecordFields{
		Chromosome: fields[0],
		Position:   pos,
		IDs:        splitList(fields[2], ";"),
		Reference:  fields[3],
		Alternates: splitList(fields[4], ","),
		Quality:    qual,
		Filters:    splitList(fields[6], ";"),
		Info:       fields[7],
	}
	if e.hasFormat {
		f.Format = fields[8]
		f.Samples = fields[9:]
	}

	r, err := vcf.NewRecord(f, e.source)
	if err != nil {
		e.stats.InvalidRecords++
		var ie *vcf.InvariantError
		if errors.As(err, &ie) {
			e.invariant(ie)
		} else {
			e.structural(err.Error())
		}
		return nil
	}

	e.stats.Records++
	if r.IsIndel() {
		e.stats.Indels++
	}
	return r
}

func parseQuality(s string) (float64, error) {
	if s == missingValue {
		return vcf.MissingQuality(), nil
	}
	// ParseFloat also takes hex floats, which are not VCF numbers.
	if strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("invalid quality %q", s)
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("invalid quality %q", s)
	}
	return q, nil
}

// splitList splits a list column; the "." placeholder is an empty list.
func splitList(s, sep string) []string {
	if s == missingValue {
		return nil
	}
	return strings.Split(s, sep)
}
