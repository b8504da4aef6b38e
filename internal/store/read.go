package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/framesynth/internal/ir"
)

// ListPasses returns every recorded pass, oldest first.
// Returns an empty slice (not nil) if nothing is recorded.
func (s *Store) ListPasses(ctx context.Context) ([]ir.PassRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_hash, source, analyzer_version, calls, synthesized, diagnostics, created_at
		FROM passes
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []ir.PassRecord{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// ReadPass retrieves a single pass by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadPass(ctx context.Context, id string) (ir.PassRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, program_hash, source, analyzer_version, calls, synthesized, diagnostics, created_at
		FROM passes
		WHERE id = ?
	`, id)
	return scanPass(row)
}

// ReadScopes returns the scopes recorded for a pass, grouped by root marker
// in associated-scope order.
func (s *Store) ReadScopes(ctx context.Context, passID string) ([]ir.ScopeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pass_id, call_id, root_marker, scope, ordinal, properties
		FROM scopes
		WHERE pass_id = ?
		ORDER BY root_marker COLLATE BINARY ASC, ordinal ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()

	scopes := []ir.ScopeRecord{}
	for rows.Next() {
		var sc ir.ScopeRecord
		var props string
		if err := rows.Scan(&sc.ID, &sc.PassID, &sc.CallID, &sc.RootMarker, &sc.Scope, &sc.Ordinal, &props); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		if sc.Properties, err = unmarshalProperties(props); err != nil {
			return nil, fmt.Errorf("scope %s: %w", sc.Scope, err)
		}
		scopes = append(scopes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scopes: %w", err)
	}
	return scopes, nil
}

// ReadDiagnostics returns the diagnostics recorded for a pass in report
// order.
func (s *Store) ReadDiagnostics(ctx context.Context, passID string) ([]ir.DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pass_id, call_id, callee, code, message, pos
		FROM diagnostics
		WHERE pass_id = ?
		ORDER BY id ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []ir.DiagnosticRecord{}
	for rows.Next() {
		var d ir.DiagnosticRecord
		if err := rows.Scan(&d.ID, &d.PassID, &d.CallID, &d.Callee, &d.Code, &d.Message, &d.Pos); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

// ReadTrace loads a full trace. Returns sql.ErrNoRows if the pass is not
// recorded.
func (s *Store) ReadTrace(ctx context.Context, passID string) (Trace, error) {
	p, err := s.ReadPass(ctx, passID)
	if err != nil {
		return Trace{}, err
	}
	scopes, err := s.ReadScopes(ctx, passID)
	if err != nil {
		return Trace{}, err
	}
	diags, err := s.ReadDiagnostics(ctx, passID)
	if err != nil {
		return Trace{}, err
	}
	return Trace{Pass: p, Scopes: scopes, Diagnostics: diags}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPass reads one passes row from *sql.Rows or *sql.Row. sql.ErrNoRows
// is returned unwrapped.
func scanPass(row scanner) (ir.PassRecord, error) {
	var p ir.PassRecord
	err := row.Scan(&p.ID, &p.ProgramHash, &p.Source, &p.AnalyzerVersion,
		&p.Calls, &p.Synthesized, &p.Diagnostics, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return ir.PassRecord{}, err
	}
	if err != nil {
		return ir.PassRecord{}, fmt.Errorf("scan pass: %w", err)
	}
	return p, nil
}
