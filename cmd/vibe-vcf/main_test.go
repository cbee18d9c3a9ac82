package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "##fileformat=VCFv4.3\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"

// execute runs the CLI in-process with a fresh config and an empty home.
func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	code = exitCode(root.ExecuteContext(context.Background()), &errOut)
	return out.String(), errOut.String(), code
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func validFile(t *testing.T) string {
	return writeFile(t, "valid.vcf", header+"1\t100\trs1\tG\tGA\t50\tPASS\t.\tGT\t0/1\n")
}

// SNV whose first base differs from the reference: an invariant violation.
func warningFile(t *testing.T) string {
	return writeFile(t, "warn.vcf", header+"1\t100\trs1\tG\tA\t50\tPASS\t.\tGT\t0/1\n")
}

func TestValidateExitCodes(t *testing.T) {
	valid := validFile(t)
	warn := warningFile(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"valid file", []string{"validate", valid}, ExitSuccess},
		{"input flag", []string{"validate", "-i", valid}, ExitSuccess},
		{"warning at standard", []string{"validate", warn}, ExitError},
		{"warning at permissive", []string{"validate", "-l", "permissive", warn}, ExitSuccess},
		{"warning at strict", []string{"validate", "--level", "strict", warn}, ExitError},
		{"level alias", []string{"validate", "-l", "error", warn}, ExitSuccess},
		{"missing file", []string{"validate", filepath.Join(t.TempDir(), "absent.vcf")}, ExitError},
		{"unknown level", []string{"validate", "-l", "lenient", valid}, ExitUsage},
		{"unknown format", []string{"validate", "-f", "xml", valid}, ExitUsage},
		{"unknown flag", []string{"validate", "--bogus", valid}, ExitUsage},
		{"skip without store", []string{"validate", "--skip-unchanged", valid}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := execute(t, tt.args...)
			assert.Equal(t, tt.want, code, "stderr: %s", stderr)
		})
	}
}

func TestValidateTextOutput(t *testing.T) {
	valid := validFile(t)
	warn := warningFile(t)

	stdout, _, code := execute(t, "validate", valid, warn)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stdout, "The input file "+valid+" is valid (level standard)")
	assert.Contains(t, stdout, "The input file "+warn+" is not valid (level standard)")
	assert.Contains(t, stdout, "alternate_alleles")
	assert.Contains(t, stdout, "Validation Summary:")

	// Inputs keep their command-line order whatever the worker count.
	assert.Less(t, strings.Index(stdout, valid), strings.Index(stdout, warn))
}

func TestValidateProgressOnStdout(t *testing.T) {
	valid := validFile(t)

	stdout, stderr, code := execute(t, "validate", valid)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Reading from input file "+valid+"...")
	assert.Less(t, strings.Index(stdout, "Reading from input file"), strings.Index(stdout, "The input file"))
	assert.NotContains(t, stderr, "Reading from")

	// Machine-readable formats carry only the report.
	stdout, _, code = execute(t, "validate", "-f", "tab", valid)
	assert.Equal(t, ExitSuccess, code)
	assert.NotContains(t, stdout, "Reading from")
}

func TestValidateMissingFileReportsOnStderr(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.vcf")

	_, stderr, code := execute(t, "validate", missing)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "absent.vcf")
}

func TestValidateJSONOutput(t *testing.T) {
	warn := warningFile(t)

	stdout, _, code := execute(t, "validate", "-f", "json", warn)
	assert.Equal(t, ExitError, code)

	var got struct {
		Input       string `json:"input"`
		Level       string `json:"level"`
		Valid       bool   `json:"valid"`
		Warnings    int    `json:"warnings"`
		Diagnostics []struct {
			Line int    `json:"line"`
			Rule string `json:"rule"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stdout)), &got))
	assert.Equal(t, warn, got.Input)
	assert.Equal(t, "standard", got.Level)
	assert.False(t, got.Valid)
	assert.Equal(t, 1, got.Warnings)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, 3, got.Diagnostics[0].Line)
	assert.Equal(t, "alternate_alleles", got.Diagnostics[0].Rule)
}

func TestValidateFromEnvironment(t *testing.T) {
	warn := warningFile(t)
	t.Setenv("VIBE_VCF_VALIDATION_LEVEL", "permissive")

	_, _, code := execute(t, "validate", warn)
	assert.Equal(t, ExitSuccess, code)
}

func TestReportDatabaseAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reports", "runs.duckdb")
	valid := validFile(t)
	warn := warningFile(t)

	_, stderr, code := execute(t, "validate", "--report-db", db, valid, warn)
	require.Equal(t, ExitError, code, "stderr: %s", stderr)

	stdout, stderr, code := execute(t, "history", "--report-db", db)
	require.Equal(t, ExitSuccess, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "RUN")
	assert.Contains(t, stdout, valid)
	assert.Contains(t, stdout, warn)
	assert.Contains(t, stdout, "not valid")

	stdout, _, code = execute(t, "history", "--report-db", db, "--input", valid)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, valid)
	assert.NotContains(t, stdout, warn)

	t.Run("run diagnostics", func(t *testing.T) {
		stdout, _, code := execute(t, "history", "--report-db", db, "--run", "2")
		require.Equal(t, ExitSuccess, code)
		assert.Contains(t, stdout, "line 3")
		assert.Contains(t, stdout, "alternate_alleles")
		assert.Contains(t, stdout, "RULE")
	})

	t.Run("skip unchanged", func(t *testing.T) {
		stdout, _, code := execute(t, "validate", "--report-db", db, "--skip-unchanged", valid, warn)
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stdout, "The input file "+valid+" is valid (unchanged since run 1)")
		assert.Contains(t, stdout, "The input file "+warn+" is not valid (unchanged since run 2)")
	})

	t.Run("clear", func(t *testing.T) {
		_, _, code := execute(t, "history", "--report-db", db, "--clear")
		require.Equal(t, ExitSuccess, code)

		stdout, _, code := execute(t, "history", "--report-db", db)
		require.Equal(t, ExitSuccess, code)
		assert.Contains(t, stdout, "No runs recorded.")
	})
}

func TestHistoryRequiresDatabase(t *testing.T) {
	_, stderr, code := execute(t, "history")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "report database")
}

func TestConfigSetGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "set", "validation.level", "strict"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Set validation.level = strict")

	data, err := os.ReadFile(filepath.Join(home, ".vibe-vcf.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "level: strict")

	viper.Reset()
	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "get", "validation.level"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "strict\n", out.String())
}
