package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetaLine_Plain(t *testing.T) {
	m, err := parseMetaLine("fileDate=20090805")
	require.NoError(t, err)
	assert.Equal(t, "fileDate", m.ID())
	assert.Equal(t, "20090805", m.PlainValue())
	assert.False(t, m.IsKeyValue())

	// Only the first '=' separates key and value.
	m, err = parseMetaLine("source=myImputationProgramV3.1=beta")
	require.NoError(t, err)
	assert.Equal(t, "myImputationProgramV3.1=beta", m.PlainValue())
}

func TestParseMetaLine_KeyValue(t *testing.T) {
	m, err := parseMetaLine(`INFO=<ID=AF,Number=A,Type=Float,Description="Allele Frequency, \"alt\" = 1">`)
	require.NoError(t, err)

	assert.Equal(t, "INFO", m.ID())
	assert.True(t, m.IsKeyValue())
	assert.Equal(t, []string{"ID", "Number", "Type", "Description"}, m.Keys())
	desc, _ := m.Value("Description")
	assert.Equal(t, `Allele Frequency, "alt" = 1`, desc)
	num, _ := m.Value("Number")
	assert.Equal(t, "A", num)
}

func TestParseMetaLine_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no equals", "fileformat", "meta line without '='"},
		{"empty key", "=VCFv4.2", "meta line with empty key"},
		{"unterminated", "INFO=<ID=DP,Number=1", "meta line INFO: unterminated '<'"},
		{"unbalanced quotes", `INFO=<ID=DP,Description="Depth>`, "meta line INFO: unbalanced quotes"},
		{"field without value", "FILTER=<ID=q10,Description>", `meta line FILTER: malformed field "Description"`},
		{"empty field", "FILTER=<ID=q10,,Description=x>", `meta line FILTER: malformed field ""`},
		{"duplicate field", "contig=<ID=20,ID=21>", `meta line contig: duplicate field "ID"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMetaLine(tt.body)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestEngine_MetaDiagnostics(t *testing.T) {
	e := NewEngine("test.vcf", LevelPermissive)
	feed(t, e, metaFileformat, "##broken\n", columnHeader)
	require.NoError(t, e.End())

	require.Len(t, e.Diagnostics(), 1)
	assert.Equal(t, 2, e.Diagnostics()[0].Line)
	assert.Equal(t, KindStructural, e.Diagnostics()[0].Kind)
	// The malformed line is not kept as a meta entry.
	assert.Len(t, e.Source().MetaEntries(), 1)
}

func TestEngine_Fileformat(t *testing.T) {
	t.Run("not first", func(t *testing.T) {
		e := NewEngine("test.vcf", LevelStandard)
		feed(t, e, metaInfoDP, metaFileformat, columnHeader)
		require.NoError(t, e.End())

		require.Len(t, e.Diagnostics(), 1)
		assert.Equal(t, "fileformat must be the first meta line", e.Diagnostics()[0].Message)
		assert.Equal(t, "VCFv4.2", e.Source().Version())
	})

	t.Run("missing", func(t *testing.T) {
		e := NewEngine("test.vcf", LevelStandard)
		feed(t, e, metaInfoDP, columnHeader)
		require.NoError(t, e.End())

		require.Len(t, e.Diagnostics(), 1)
		assert.Equal(t, "missing ##fileformat meta line", e.Diagnostics()[0].Message)
		assert.Equal(t, 2, e.Diagnostics()[0].Line)
	})

	t.Run("unrecognized", func(t *testing.T) {
		e := NewEngine("test.vcf", LevelStandard)
		feed(t, e, "##fileformat=BAM\n", columnHeader)
		require.NoError(t, e.End())

		require.Len(t, e.Diagnostics(), 1)
		assert.Equal(t, `unrecognized fileformat "BAM"`, e.Diagnostics()[0].Message)
	})
}

func TestEngine_ColumnHeader(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantMsg     string
		wantSamples []string
	}{
		{"sites only", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", "", nil},
		{"format without samples", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT", "", []string{}},
		{"three samples", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tB\tC", "", []string{"A", "B", "C"}},
		{"too short", "#CHROM\tPOS\tID", "column header has 3 columns, expected at least 8", nil},
		{"wrong column", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTERS\tINFO", `column 7 of the column header is "FILTERS", expected "FILTER"`, nil},
		{"samples without format", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tA\tB", `column 9 of the column header is "A", expected "FORMAT"`, []string{"B"}},
		{"duplicate sample", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tA", `duplicate sample name "A"`, []string{"A", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine("test.vcf", LevelStandard)
			feed(t, e, metaFileformat, tt.header+"\n")
			require.NoError(t, e.End())

			if tt.wantMsg == "" {
				assert.Empty(t, e.Diagnostics())
			} else {
				require.Len(t, e.Diagnostics(), 1)
				assert.Equal(t, tt.wantMsg, e.Diagnostics()[0].Message)
			}
			require.NotNil(t, e.Source())
			assert.Len(t, e.Source().SampleNames(), len(tt.wantSamples))
			if len(tt.wantSamples) > 0 {
				assert.Equal(t, tt.wantSamples, e.Source().SampleNames())
			}
		})
	}
}

func TestEngine_SampleArity(t *testing.T) {
	e := NewEngine("test.vcf", LevelStandard)
	records := feed(t, e, metaFileformat,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tB\n",
		"1\t10\t.\tA\tAT\t5\tPASS\t.\tGT\t0/1\t1/1\n",
		"1\t11\t.\tA\tAT\t5\tPASS\t.\tGT\t0/1\n")
	require.NoError(t, e.End())

	require.Len(t, records, 1)
	assert.Equal(t, []string{"0/1", "1/1"}, records[0].Samples())
	require.Len(t, e.Diagnostics(), 1)
	assert.Equal(t, "expected 11 columns, found 10", e.Diagnostics()[0].Message)
}
