package simulation

import (
	"context"
	"database/sql"

	"solitaire-sim/internal/models"
)

// SQLLedger records runs in the simulation_runs table.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

func (l *SQLLedger) Start(ctx context.Context, s Summary, cfg Config) error {
	return models.InsertSimulationRun(ctx, l.db, models.SimulationRun{
		ID:             s.RunID,
		Rounds:         int64(cfg.Rounds),
		TrialsPerRound: int64(cfg.TrialsPerRound),
		Workers:        int64(cfg.Workers),
		StartedAt:      s.Started,
	})
}

func (l *SQLLedger) Finish(ctx context.Context, s Summary) error {
	return models.FinishSimulationRun(ctx, l.db, s.RunID, int64(s.MergedRounds), int64(s.SkippedRounds), s.Finished)
}
