package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vibe-vcf/internal/vcf"
)

const fileformatKey = "fileformat"

// fixedColumns are the mandatory leading columns of the column header line.
var fixedColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

const formatColumn = "FORMAT"

func (e *Engine) parseMeta(body string) {
	entry, err := parseMetaLine(body)
	if err != nil {
		e.structural(err.Error())
		return
	}

	if entry.ID() == fileformatKey {
		if len(e.meta) > 0 {
			e.structural("fileformat must be the first meta line")
		}
		if !strings.HasPrefix(entry.PlainValue(), "VCFv") {
			e.structural(fmt.Sprintf("unrecognized fileformat %q", entry.PlainValue()))
		}
		e.version = entry.PlainValue()
	}

	if isGVCFMarker(entry) {
		e.content = vcf.ContentGVCF
	}
	e.meta = append(e.meta, entry)
}

// isGVCFMarker reports meta entries that only genomic VCFs carry.
func isGVCFMarker(m vcf.MetaEntry) bool {
	if strings.HasPrefix(m.ID(), "GVCFBlock") {
		return true
	}
	if m.ID() == "ALT" {
		id, _ := m.Value("ID")
		return id == "NON_REF"
	}
	return false
}

// parseMetaLine parses the text after "##": either KEY=value or
// KEY=<k1=v1,k2="quoted, value",...>.
func parseMetaLine(body string) (vcf.MetaEntry, error) {
	key, value, ok := strings.Cut(body, "=")
	if !ok {
		return vcf.MetaEntry{}, errors.New("meta line without '='")
	}
	if key == "" {
		return vcf.MetaEntry{}, errors.New("meta line with empty key")
	}

	if !strings.HasPrefix(value, "<") {
		return vcf.NewPlainMetaEntry(key, value), nil
	}
	if !strings.HasSuffix(value, ">") || len(value) < 2 {
		return vcf.MetaEntry{}, fmt.Errorf("meta line %s: unterminated '<'", key)
	}

	pairs, err := splitMetaPairs(value[1 : len(value)-1])
	if err != nil {
		return vcf.MetaEntry{}, fmt.Errorf("meta line %s: %w", key, err)
	}

	keys := make([]string, 0, len(pairs))
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return vcf.MetaEntry{}, fmt.Errorf("meta line %s: malformed field %q", key, pair)
		}
		if _, dup := values[k]; dup {
			return vcf.MetaEntry{}, fmt.Errorf("meta line %s: duplicate field %q", key, k)
		}
		keys = append(keys, k)
		values[k] = unquote(v)
	}
	return vcf.NewKeyValueMetaEntry(key, keys, values), nil
}

// splitMetaPairs splits on commas outside double quotes. Backslash escapes
// the next character inside quotes.
func splitMetaPairs(s string) ([]string, error) {
	var (
		pairs    []string
		start    int
		inQuotes bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inQuotes && c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			pairs = append(pairs, s[start:i])
			start = i + 1
		}
	}
	if inQuotes {
		return nil, errors.New("unbalanced quotes")
	}
	return append(pairs, s[start:]), nil
}

func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	v = v[1 : len(v)-1]
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// parseColumnHeader checks the "#CHROM..." line and freezes the Source.
// The Source is built even when the line is malformed so the body can
// still be checked against the columns that were declared.
func (e *Engine) parseColumnHeader(body string) {
	fields := strings.Split(body, "\t")

	if e.version == "" {
		e.structural("missing ##fileformat meta line")
	}

	if len(fields) < len(fixedColumns) {
		e.structural(fmt.Sprintf("column header has %d columns, expected at least %d", len(fields), len(fixedColumns)))
	} else {
		for i, want := range fixedColumns {
			if fields[i] != want {
				e.structural(fmt.Sprintf("column %d of the column header is %q, expected %q", i+1, fields[i], want))
				break
			}
		}
	}

	var samples []string
	if len(fields) > len(fixedColumns) {
		e.hasFormat = true
		if fields[len(fixedColumns)] != formatColumn {
			e.structural(fmt.Sprintf("column %d of the column header is %q, expected %q",
				len(fixedColumns)+1, fields[len(fixedColumns)], formatColumn))
		}
		samples = fields[len(fixedColumns)+1:]
	}

	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if seen[s] {
			e.structural(fmt.Sprintf("duplicate sample name %q", s))
			break
		}
		seen[s] = true
	}

	e.columns = max(len(fields), len(fixedColumns))
	format := vcf.InputFormat{Content: e.content, Encoding: e.encoding}
	e.source = vcf.NewSource(e.name, vcf.ModeRead, format, e.version, e.meta, samples)
	e.meta = nil
}
