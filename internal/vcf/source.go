package vcf

import "fmt"

// Content is the kind of variant content a file carries.
type Content uint8

const (
	ContentVCF  Content = iota // plain variant calls
	ContentGVCF                // genomic VCF with reference blocks
)

func (c Content) String() string {
	switch c {
	case ContentVCF:
		return "vcf"
	case ContentGVCF:
		return "gvcf"
	default:
		return fmt.Sprintf("content(%d)", uint8(c))
	}
}

// Encoding is the container encoding of the input bytes.
type Encoding uint8

const (
	EncodingPlain Encoding = iota
	EncodingGzip
	EncodingBGZF
	EncodingBCF
)

func (e Encoding) String() string {
	switch e {
	case EncodingPlain:
		return "plain"
	case EncodingGzip:
		return "gzip"
	case EncodingBGZF:
		return "bgzip"
	case EncodingBCF:
		return "bcf"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// InputFormat pairs the content kind with the encoding. Each half is
// exclusive within itself and independent of the other.
type InputFormat struct {
	Content  Content
	Encoding Encoding
}

func (f InputFormat) String() string {
	return f.Content.String() + "/" + f.Encoding.String()
}

// Mode is the intended interaction with a source.
type Mode byte

const (
	ModeRead   Mode = 'r'
	ModeWrite  Mode = 'w'
	ModeAppend Mode = 'a'
)

// Source is the file-level header context. It is built once when the column
// header line is seen and is read-only afterward; every Record of the file
// points back to it.
type Source struct {
	name        string
	mode        Mode
	version     string
	format      InputFormat
	metaEntries []MetaEntry
	sampleNames []string
}

// NewSource builds a Source. The slices are copied.
func NewSource(name string, mode Mode, format InputFormat, version string, meta []MetaEntry, samples []string) *Source {
	return &Source{
		name:        name,
		mode:        mode,
		version:     version,
		format:      format,
		metaEntries: append([]MetaEntry(nil), meta...),
		sampleNames: append([]string(nil), samples...),
	}
}

// Name returns the logical origin, e.g. a path or "stdin".
func (s *Source) Name() string { return s.name }

// Mode returns the interaction mode.
func (s *Source) Mode() Mode { return s.mode }

// Version returns the declared format version, e.g. "VCFv4.2".
func (s *Source) Version() string { return s.version }

// InputFormat returns the content/encoding pair.
func (s *Source) InputFormat() InputFormat { return s.format }

// MetaEntries returns a copy of the meta entries in file order.
func (s *Source) MetaEntries() []MetaEntry {
	return append([]MetaEntry(nil), s.metaEntries...)
}

// MetaEntriesByID returns the meta entries with the given key, in file order.
func (s *Source) MetaEntriesByID(id string) []MetaEntry {
	var out []MetaEntry
	for _, m := range s.metaEntries {
		if m.id == id {
			out = append(out, m)
		}
	}
	return out
}

// SampleNames returns a copy of the sample names in column order.
func (s *Source) SampleNames() []string {
	return append([]string(nil), s.sampleNames...)
}

// SampleCount returns the number of declared samples.
func (s *Source) SampleCount() int { return len(s.sampleNames) }
