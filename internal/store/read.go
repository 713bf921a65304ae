package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("run not found")

const runColumns = `id, seq, unit_name, unit_hash, tool_version, status, output, output_hash, splices, order_json`

// LatestByHash returns the most recent run of a unit with the given hash
// produced by the given tool version, with its diagnostics.
// Returns ErrNotFound on a cache miss.
func (s *Store) LatestByHash(ctx context.Context, unitHash, toolVersion string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE unit_hash = ? AND tool_version = ?
		ORDER BY seq DESC
		LIMIT 1
	`, unitHash, toolVersion)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest by hash: %w", err)
	}

	if run.Diagnostics, err = s.readDiagnostics(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// Stats summarizes recorded runs.
type Stats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
	Units  int `json:"units"`
}

// Stats counts the runs of the named unit, or of every unit when unitName
// is empty.
func (s *Store) Stats(ctx context.Context, unitName string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = 'ok'), 0),
		       COALESCE(SUM(status = 'failed'), 0),
		       COUNT(DISTINCT unit_name)
		FROM runs
		WHERE ? = '' OR unit_name = ?
	`, unitName, unitName).Scan(&st.Total, &st.OK, &st.Failed, &st.Units)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// GetRun returns the run with the given ID, with its diagnostics.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if run.Diagnostics, err = s.readDiagnostics(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// ListOptions filters ListRuns.
type ListOptions struct {
	// UnitName restricts the list to one unit. Empty means all units.
	UnitName string

	// Limit bounds the number of runs returned. Zero means no limit.
	Limit int
}

// ListRuns returns runs oldest first, without their diagnostics.
// Returns an empty slice (not nil) if no runs are recorded.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if opts.UnitName != "" {
		query += ` WHERE unit_name = ?`
		args = append(args, opts.UnitName)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// readDiagnostics returns the diagnostics of a run in report order.
func (s *Store) readDiagnostics(ctx context.Context, runID string) ([]*diag.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, code, severity, file, line, col, message, related
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []*diag.Diagnostic
	for rows.Next() {
		var (
			d              diag.Diagnostic
			kind, severity string
			relatedJSON    string
			pos            ast.Pos
		)
		if err := rows.Scan(&kind, &d.Code, &severity, &pos.File, &pos.Line, &pos.Col, &d.Message, &relatedJSON); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = diag.Kind(kind)
		d.Severity = diag.Severity(severity)
		d.Pos = pos
		if d.Related, err = unmarshalRelated(relatedJSON); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*Run, error) {
	var (
		run       Run
		orderJSON string
	)
	err := r.Scan(
		&run.ID,
		&run.Seq,
		&run.UnitName,
		&run.UnitHash,
		&run.ToolVersion,
		&run.Status,
		&run.Output,
		&run.OutputHash,
		&run.Splices,
		&orderJSON,
	)
	if err != nil {
		return nil, err
	}
	if run.Order, err = unmarshalOrder(orderJSON); err != nil {
		return nil, err
	}
	return &run, nil
}
