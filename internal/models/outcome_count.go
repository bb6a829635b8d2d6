package models

import (
	"context"
	"database/sql"
	"fmt"
)

// OutcomeCount is one row of the persisted outcome histogram.
type OutcomeCount struct {
	Outcome int64 `json:"outcome"`
	Count   int64 `json:"count"`
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CountOutcomeRows returns how many outcome rows exist.
func CountOutcomeRows(ctx context.Context, q queryRower) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcome_counts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountOutcomeRows: %w", err)
	}
	return n, nil
}

// SeedOutcomeRowsTx inserts a zero row for every outcome in [0, buckets).
// Existing rows are left alone.
func SeedOutcomeRowsTx(ctx context.Context, tx *sql.Tx, buckets int) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO outcome_counts(outcome, count) VALUES (?, 0)`)
	if err != nil {
		return fmt.Errorf("SeedOutcomeRowsTx: prepare: %w", err)
	}
	defer stmt.Close()
	for outcome := 0; outcome < buckets; outcome++ {
		if _, err := stmt.ExecContext(ctx, outcome); err != nil {
			return fmt.Errorf("SeedOutcomeRowsTx: outcome %d: %w", outcome, err)
		}
	}
	return nil
}

// AddOutcomeCountTx adds delta to the stored count for outcome. The addition
// happens in SQL so concurrent writers cannot lose updates.
func AddOutcomeCountTx(ctx context.Context, tx *sql.Tx, outcome, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("AddOutcomeCountTx: %w: negative delta %d for outcome %d", ErrInvalidOutcome, delta, outcome)
	}
	res, err := tx.ExecContext(ctx, `UPDATE outcome_counts SET count = count + ? WHERE outcome = ?`, delta, outcome)
	if err != nil {
		return fmt.Errorf("AddOutcomeCountTx: outcome %d: %w", outcome, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("AddOutcomeCountTx: rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("AddOutcomeCountTx: %w: outcome %d", ErrOutcomeRowMissing, outcome)
	}
	return nil
}

// ListOutcomeCounts returns every stored row ordered by outcome.
func ListOutcomeCounts(ctx context.Context, db *sql.DB) ([]OutcomeCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT outcome, count FROM outcome_counts ORDER BY outcome ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListOutcomeCounts: querying: %w", err)
	}
	defer rows.Close()

	var out []OutcomeCount
	for rows.Next() {
		var oc OutcomeCount
		if err := rows.Scan(&oc.Outcome, &oc.Count); err != nil {
			return nil, fmt.Errorf("ListOutcomeCounts: scanning: %w", err)
		}
		out = append(out, oc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListOutcomeCounts: iterating: %w", err)
	}
	return out, nil
}
