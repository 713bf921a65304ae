package store

import (
	"context"
	"fmt"
)

// WriteRun appends a run and its diagnostics in one transaction.
//
// WriteRun assigns run.ID from the store's generator when it is empty and
// always assigns run.Seq as one past the highest recorded seq. Writing the
// same ID twice is an error; runs are never overwritten.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	if run.Status != StatusOK && run.Status != StatusFailed {
		return fmt.Errorf("write run: invalid status %q", run.Status)
	}

	orderJSON, err := marshalOrder(run.Order)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	id := run.ID
	if id == "" {
		id = s.ids.Generate()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, unit_name, unit_hash, tool_version, status, output, output_hash, splices, order_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		run.UnitName,
		run.UnitHash,
		run.ToolVersion,
		run.Status,
		run.Output,
		run.OutputHash,
		run.Splices,
		orderJSON,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i, d := range run.Diagnostics {
		relatedJSON, err := marshalRelated(d.Related)
		if err != nil {
			return fmt.Errorf("write run: diagnostic %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics
			(run_id, idx, kind, code, severity, file, line, col, message, related)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			i,
			string(d.Kind),
			d.Code,
			string(d.Severity),
			d.Pos.File,
			d.Pos.Line,
			d.Pos.Col,
			d.Message,
			relatedJSON,
		)
		if err != nil {
			return fmt.Errorf("write run: diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}

	run.ID = id
	run.Seq = seq
	return nil
}
