package vcf

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"12\t25245351\trs121913529\tC\tCA\t50\tPASS\tDP=100"

func readAll(t *testing.T, r LineReader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func gzipBytes(t *testing.T, data string, bgzf bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if bgzf {
		// BSIZE payload is irrelevant to detection.
		zw.Header.Extra = []byte{'B', 'C', 2, 0, 0, 0}
	}
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReader_Plain(t *testing.T) {
	r, err := NewReader("mem", strings.NewReader(sampleVCF))
	require.NoError(t, err)
	defer r.Close()

	lines := readAll(t, r)
	require.Len(t, lines, 3)
	assert.Equal(t, "##fileformat=VCFv4.2\n", lines[0])
	assert.Equal(t, "12\t25245351\trs121913529\tC\tCA\t50\tPASS\tDP=100", lines[2])
	assert.Equal(t, EncodingPlain, r.Encoding())
	assert.Equal(t, "mem", r.Name())
}

func TestReader_Gzip(t *testing.T) {
	r, err := NewReader("mem.gz", bytes.NewReader(gzipBytes(t, sampleVCF, false)))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, EncodingGzip, r.Encoding())
	assert.Len(t, readAll(t, r), 3)
}

func TestReader_BGZF(t *testing.T) {
	r, err := NewReader("mem.gz", bytes.NewReader(gzipBytes(t, sampleVCF, true)))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, EncodingBGZF, r.Encoding())
	assert.Len(t, readAll(t, r), 3)
}

func TestReader_BCFRejected(t *testing.T) {
	_, err := NewReader("mem.bcf", bytes.NewReader(gzipBytes(t, "BCF\x02\x02binary", true)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "mem.bcf", re.Name)
}

func TestReader_Empty(t *testing.T) {
	r, err := NewReader("empty", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, readAll(t, r))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.vcf.gz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, sampleVCF+"\n", false), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, path, r.Name())
	lines := readAll(t, r)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[2], "\n"))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.vcf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want Encoding
	}{
		{"empty", nil, EncodingPlain},
		{"text", []byte("##fileformat=VCFv4.2"), EncodingPlain},
		{"raw bcf", []byte("BCF\x02\x02"), EncodingBCF},
		{"gzip", []byte{0x1f, 0x8b, 8, 0, 0, 0, 0, 0, 0, 0xff}, EncodingGzip},
		{"bgzf", []byte{0x1f, 0x8b, 8, 4, 0, 0, 0, 0, 0, 0xff, 6, 0, 'B', 'C', 2, 0}, EncodingBGZF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.head))
		})
	}
}
