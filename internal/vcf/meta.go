// Package vcf provides the VCF header and record model and a line reader for
// plain and compressed VCF input.
package vcf

import "sort"

// MetaEntry is a single "##" header line. It carries either a plain value
// (##fileformat=VCFv4.2) or a set of key/value pairs (##INFO=<ID=DP,...>),
// never both.
type MetaEntry struct {
	id         string
	plainValue string
	keyValues  map[string]string
	keyOrder   []string
}

// NewPlainMetaEntry creates a meta entry holding a plain string value.
func NewPlainMetaEntry(id, value string) MetaEntry {
	return MetaEntry{id: id, plainValue: value}
}

// NewKeyValueMetaEntry creates a meta entry holding key/value pairs.
// Keys are kept in the order given; the map is copied.
func NewKeyValueMetaEntry(id string, keys []string, values map[string]string) MetaEntry {
	kv := make(map[string]string, len(values))
	order := make([]string, 0, len(values))
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if _, dup := kv[k]; dup {
			continue
		}
		kv[k] = v
		order = append(order, k)
	}
	// Keys present in the map but missing from keys go last, sorted.
	var rest []string
	for k := range values {
		if _, ok := kv[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		kv[k] = values[k]
		order = append(order, k)
	}
	return MetaEntry{id: id, keyValues: kv, keyOrder: order}
}

// ID returns the entry key, e.g. "fileformat" or "INFO".
func (m MetaEntry) ID() string { return m.id }

// IsKeyValue reports whether the entry holds structured key/value pairs.
func (m MetaEntry) IsKeyValue() bool { return m.keyValues != nil }

// PlainValue returns the plain value; empty for key/value entries.
func (m MetaEntry) PlainValue() string { return m.plainValue }

// Value returns the value stored under key for key/value entries.
func (m MetaEntry) Value(key string) (string, bool) {
	v, ok := m.keyValues[key]
	return v, ok
}

// Keys returns the sub-keys in declaration order.
func (m MetaEntry) Keys() []string {
	return append([]string(nil), m.keyOrder...)
}

// KeyValues returns a copy of the key/value pairs; nil for plain entries.
func (m MetaEntry) KeyValues() map[string]string {
	if m.keyValues == nil {
		return nil
	}
	out := make(map[string]string, len(m.keyValues))
	for k, v := range m.keyValues {
		out[k] = v
	}
	return out
}
