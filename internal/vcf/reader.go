package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// StdinName is the input name that selects standard input.
const StdinName = "stdin"

// ErrUnsupportedEncoding is returned for inputs whose encoding is detected
// but not decoded, such as BCF.
var ErrUnsupportedEncoding = errors.New("unsupported input encoding")

// LineReader yields raw text lines in file order.
type LineReader interface {
	// ReadLine returns the next line including its terminator, if any.
	// It returns io.EOF once no bytes remain.
	ReadLine() (string, error)

	// Name returns the logical origin of the lines.
	Name() string

	// Encoding returns the container encoding the lines were read from.
	Encoding() Encoding
}

// ReadError is an I/O failure while opening or reading an input.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Reader reads lines from a plain, gzip or BGZF compressed VCF stream.
type Reader struct {
	name       string
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	encoding   Encoding
}

// Open opens the VCF at path. "-" and "stdin" read standard input.
// Compression is detected from the leading bytes, so pipes work too.
func Open(path string) (*Reader, error) {
	if path == "-" || path == StdinName {
		return NewReader(StdinName, os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Name: path, Err: err}
	}

	r, err := NewReader(path, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader wraps an io.Reader (e.g. stdin) under the given name.
func NewReader(name string, src io.Reader) (*Reader, error) {
	raw := bufio.NewReader(src)
	r := &Reader{name: name, reader: raw}

	head, err := raw.Peek(18)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, &ReadError{Name: name, Err: err}
	}

	r.encoding = DetectEncoding(head)
	if r.encoding == EncodingGzip || r.encoding == EncodingBGZF {
		r.gzipReader, err = gzip.NewReader(raw)
		if err != nil {
			return nil, &ReadError{Name: name, Err: fmt.Errorf("create gzip reader: %w", err)}
		}
		r.reader = bufio.NewReader(r.gzipReader)

		// BCF is BGZF-compressed binary; it shows itself after inflation.
		magic, err := r.reader.Peek(3)
		if err != nil && !errors.Is(err, io.EOF) {
			r.Close()
			return nil, &ReadError{Name: name, Err: err}
		}
		if string(magic) == "BCF" {
			r.encoding = EncodingBCF
		}
	}

	if r.encoding == EncodingBCF {
		r.Close()
		return nil, &ReadError{Name: name, Err: fmt.Errorf("%w: %s", ErrUnsupportedEncoding, EncodingBCF)}
	}

	return r, nil
}

// DetectEncoding classifies the first bytes of a stream. BGZF is gzip with
// a "BC" extra subfield; uncompressed BCF starts with "BCF".
func DetectEncoding(head []byte) Encoding {
	if len(head) >= 3 && string(head[:3]) == "BCF" {
		return EncodingBCF
	}
	if len(head) < 2 || head[0] != 0x1f || head[1] != 0x8b {
		return EncodingPlain
	}
	const flagExtra = 0x04
	if len(head) >= 14 && head[3]&flagExtra != 0 && head[12] == 'B' && head[13] == 'C' {
		return EncodingBGZF
	}
	return EncodingGzip
}

// ReadLine returns the next line including its newline. The final line of a
// file without a trailing newline is returned without one, followed by io.EOF.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return line, nil
			}
			return "", io.EOF
		}
		return "", &ReadError{Name: r.name, Err: err}
	}
	return line, nil
}

// Name returns the path, or "stdin".
func (r *Reader) Name() string { return r.name }

// Encoding returns the detected container encoding.
func (r *Reader) Encoding() Encoding { return r.encoding }

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
