package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-vcf/internal/validate"
	"github.com/inodb/vibe-vcf/internal/vcf"
)

// Run is one stored validation run.
type Run struct {
	ID             int64
	Input          string
	Size           int64
	ModTime        time.Time // zero for stdin
	Level          string
	Valid          bool
	Halted         bool
	Version        string
	Content        string
	Encoding       string
	Samples        int
	Lines          int64
	Records        int64
	InvalidRecords int64
	Warnings       int64
	Errors         int64
	Dropped        int64
	Error          string
	CheckedAt      time.Time
}

const runColumns = `run_id, input, size, mod_time, level, valid, halted,
	version, content, encoding, samples, lines, records, invalid_records,
	warnings, errors, dropped, error, checked_at`

// RecordRun stores a result and its diagnostics and returns the new run id.
// Diagnostics are batch-inserted with the Appender API.
func (s *Store) RecordRun(res *validate.Result, fp FileFingerprint, checkedAt time.Time) (int64, error) {
	var version, content, encoding string
	var samples int
	if res.Source != nil {
		version = res.Source.Version()
		content = res.Source.InputFormat().Content.String()
		encoding = res.Source.InputFormat().Encoding.String()
		samples = res.Source.SampleCount()
	}
	var errMsg string
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	var modTime sql.NullTime
	if !fp.ModTime.IsZero() {
		modTime = sql.NullTime{Time: storedTime(fp.ModTime), Valid: true}
	}

	var runID int64
	err := s.db.QueryRow(`INSERT INTO runs VALUES
		(nextval('run_ids'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING run_id`,
		res.Name, fp.Size, modTime, res.Level.String(), res.Valid, res.Halted,
		version, content, encoding, samples,
		int64(res.Stats.Lines), int64(res.Stats.Records), int64(res.Stats.InvalidRecords),
		int64(res.Warnings), int64(res.Errors), int64(res.Dropped), errMsg, storedTime(checkedAt),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	if err := s.appendDiagnostics(runID, res.Diagnostics); err != nil {
		// A run without its diagnostics must not be reused by FindRun.
		if _, delErr := s.db.Exec(`DELETE FROM runs WHERE run_id=?`, runID); delErr != nil {
			return 0, fmt.Errorf("%w (removing run %d: %v)", err, runID, delErr)
		}
		return 0, err
	}
	return runID, nil
}

func (s *Store) appendDiagnostics(runID int64, diags []validate.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "diagnostics")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, d := range diags {
		if err := appender.AppendRow(
			runID, int64(d.Line), d.Severity.String(), d.Kind.String(), string(d.Rule), d.Message,
		); err != nil {
			return fmt.Errorf("append diagnostic: %w", err)
		}
	}

	return appender.Flush()
}

// Runs returns stored runs in insertion order, optionally only for one input.
func (s *Store) Runs(input string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if input != "" {
		query += ` WHERE input=?`
		args = append(args, input)
	}
	query += ` ORDER BY run_id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// FindRun returns the latest run over an unchanged file at the given level.
func (s *Store) FindRun(fp FileFingerprint, level validate.Level) (*Run, error) {
	if fp.ModTime.IsZero() {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs
		WHERE input=? AND size=? AND mod_time=? AND level=? AND error=''
		ORDER BY run_id DESC LIMIT 1`,
		fp.Path, fp.Size, storedTime(fp.ModTime), level.String())
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// Diagnostics returns the stored diagnostics of a run in line order.
func (s *Store) Diagnostics(runID int64) ([]validate.Diagnostic, error) {
	rows, err := s.db.Query(`SELECT line, severity, kind, rule, message
		FROM diagnostics WHERE run_id=? ORDER BY line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []validate.Diagnostic
	for rows.Next() {
		var (
			line                 int64
			severity, kind, rule string
			d                    validate.Diagnostic
		)
		if err := rows.Scan(&line, &severity, &kind, &rule, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if d.Severity, err = validate.ParseSeverity(severity); err != nil {
			return nil, err
		}
		if d.Kind, err = validate.ParseKind(kind); err != nil {
			return nil, err
		}
		d.Line = int(line)
		d.Rule = vcf.Rule(rule)
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

// RuleCounts returns how many stored diagnostics of a run name each rule.
// Structural errors are counted under "structural".
func (s *Store) RuleCounts(runID int64) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT
		CASE WHEN rule = '' THEN 'structural' ELSE rule END AS r, COUNT(*)
		FROM diagnostics WHERE run_id=? GROUP BY r`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rule counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rule string
		var n int64
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts[rule] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule counts: %w", err)
	}
	return counts, nil
}

// ClearRuns removes all stored runs and diagnostics.
func (s *Store) ClearRuns() error {
	if _, err := s.db.Exec("DELETE FROM diagnostics"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM runs")
	return err
}

// storedTime matches the microsecond precision of DuckDB timestamps.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// scanRuns scans rows into Run slices.
func scanRuns(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var modTime sql.NullTime
		var samples int32
		if err := rows.Scan(
			&r.ID, &r.Input, &r.Size, &modTime, &r.Level, &r.Valid, &r.Halted,
			&r.Version, &r.Content, &r.Encoding, &samples, &r.Lines, &r.Records, &r.InvalidRecords,
			&r.Warnings, &r.Errors, &r.Dropped, &r.Error, &r.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if modTime.Valid {
			r.ModTime = modTime.Time
		}
		r.Samples = int(samples)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
