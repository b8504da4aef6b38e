package store

import (
	"context"
	"fmt"

	"github.com/roach88/framesynth/internal/ir"
)

// WriteTrace records a pass with its scopes and diagnostics in one
// transaction.
//
// Uses ON CONFLICT(id) DO NOTHING on the pass row for idempotency: writing a
// trace whose pass ID is already recorded leaves the stored trace untouched
// and returns inserted=false.
func (s *Store) WriteTrace(ctx context.Context, t Trace) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO passes
		(id, program_hash, source, analyzer_version, ir_version, calls, synthesized, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.Pass.ID,
		t.Pass.ProgramHash,
		t.Pass.Source,
		t.Pass.AnalyzerVersion,
		ir.IRVersion,
		t.Pass.Calls,
		t.Pass.Synthesized,
		t.Pass.Diagnostics,
		t.Pass.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("write trace: insert pass: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write trace: rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	for _, sc := range t.Scopes {
		props, err := marshalProperties(sc.Properties)
		if err != nil {
			return false, fmt.Errorf("write trace: scope %s: %w", sc.Scope, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scopes (pass_id, call_id, root_marker, scope, ordinal, properties)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.Pass.ID, sc.CallID, sc.RootMarker, sc.Scope, sc.Ordinal, props); err != nil {
			return false, fmt.Errorf("write trace: insert scope %s: %w", sc.Scope, err)
		}
	}

	for _, d := range t.Diagnostics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (pass_id, call_id, callee, code, message, pos)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.Pass.ID, d.CallID, d.Callee, d.Code, d.Message, d.Pos); err != nil {
			return false, fmt.Errorf("write trace: insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write trace: commit: %w", err)
	}
	return true, nil
}
