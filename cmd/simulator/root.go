package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"solitaire-sim/internal/config"
	"solitaire-sim/internal/database"
	"solitaire-sim/internal/histogram"
	"solitaire-sim/internal/tracing"

	"github.com/spf13/cobra"
)

const serviceName = "solitaire-simulator"

// options holds flags shared by every command. Flags that were not set leave
// the environment value in place.
type options struct {
	histogramFile string
	databasePath  string
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "simulator",
		Short:         "Monte Carlo simulator for the four-card solitaire reduction game",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.histogramFile, "histogram-file", "", "histogram text file (SIM_HISTOGRAM_FILE)")
	root.PersistentFlags().StringVar(&opts.databasePath, "db", "", "SQLite database path (DATABASE_PATH)")

	run := newRunCmd(&opts)
	root.AddCommand(run, newReplayCmd(), newShowCmd(&opts), newReconcileCmd(&opts))

	// Bare "simulator" behaves like "simulator run".
	root.Flags().AddFlagSet(run.Flags())
	root.RunE = run.RunE
	return root
}

// loadConfig reads the environment and applies the shared flag overrides.
// Callers apply their own overrides and call Validate again.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("histogram-file") {
		cfg.HistogramFile = opts.histogramFile
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = opts.databasePath
	}
	return cfg, nil
}

type session struct {
	db       *sql.DB
	file     *histogram.FileStore
	table    *histogram.TableStore
	shutdown func(context.Context) error
}

// openSession initializes tracing and both histogram stores.
func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.AppEnv,
		TracesExport: cfg.TracesExport,
	})
	if err != nil {
		return nil, err
	}
	db, err := database.OpenAndMigrate(ctx, cfg.DatabasePath)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db open/migrate: %w", err)
	}
	table, err := histogram.NewTableStore(ctx, db)
	if err != nil {
		_ = db.Close()
		_ = shutdown(ctx)
		return nil, err
	}
	return &session{
		db:       db,
		file:     histogram.NewFileStore(cfg.HistogramFile),
		table:    table,
		shutdown: shutdown,
	}, nil
}

func (s *session) sinks() []histogram.Sink {
	return []histogram.Sink{s.file, s.table}
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		log.Printf("db close error: %v", err)
	}
	if err := s.shutdown(context.Background()); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
}
