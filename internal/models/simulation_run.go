package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SimulationRun is the ledger entry for one simulator invocation.
type SimulationRun struct {
	ID             string     `json:"id"`
	Rounds         int64      `json:"rounds"`
	TrialsPerRound int64      `json:"trials_per_round"`
	Workers        int64      `json:"workers"`
	MergedRounds   int64      `json:"merged_rounds"`
	SkippedRounds  int64      `json:"skipped_rounds"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func InsertSimulationRun(ctx context.Context, db *sql.DB, run SimulationRun) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO simulation_runs(id, rounds, trials_per_round, workers, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Rounds, run.TrialsPerRound, run.Workers, run.StartedAt.UTC(),
	)
	if err != nil {
		if IsUniqueConstraint(err) {
			return fmt.Errorf("InsertSimulationRun: %w: %s", ErrRunExists, run.ID)
		}
		return fmt.Errorf("InsertSimulationRun: %w", err)
	}
	return nil
}

func FinishSimulationRun(ctx context.Context, db *sql.DB, id string, merged, skipped int64, finishedAt time.Time) error {
	res, err := db.ExecContext(
		ctx,
		`UPDATE simulation_runs SET merged_rounds = ?, skipped_rounds = ?, finished_at = ? WHERE id = ?`,
		merged, skipped, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("FinishSimulationRun: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("FinishSimulationRun: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("FinishSimulationRun: %w: %s", ErrNotFound, id)
	}
	return nil
}

// ListSimulationRuns returns the most recent runs first. limit is clamped to [1, 200].
func ListSimulationRuns(ctx context.Context, db *sql.DB, limit int64) ([]SimulationRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.QueryContext(
		ctx,
		`SELECT id, rounds, trials_per_round, workers, merged_rounds, skipped_rounds, started_at, finished_at
		 FROM simulation_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListSimulationRuns: querying: %w", err)
	}
	defer rows.Close()

	var out []SimulationRun
	for rows.Next() {
		var r SimulationRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Rounds, &r.TrialsPerRound, &r.Workers, &r.MergedRounds, &r.SkippedRounds, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("ListSimulationRuns: scanning: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSimulationRuns: iterating: %w", err)
	}
	return out, nil
}
