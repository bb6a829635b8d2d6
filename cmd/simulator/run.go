package main

import (
	"solitaire-sim/internal/simulation"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		rounds, trials, workers int
		seed                    uint64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play rounds of trials and merge each round into both histogram stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rounds") {
				cfg.Rounds = rounds
			}
			if cmd.Flags().Changed("trials") {
				cfg.TrialsPerRound = trials
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := simulation.NewDriver(simulation.ConfigFrom(cfg), s.sinks(),
				simulation.WithReporter(simulation.TerminalReporter{}),
				simulation.WithLedger(simulation.NewSQLLedger(s.db)),
			)
			if err != nil {
				return err
			}
			_, err = d.Run(ctx)
			return err
		},
	}
	f := cmd.Flags()
	f.IntVar(&rounds, "rounds", 0, "number of rounds (SIM_ROUNDS)")
	f.IntVar(&trials, "trials", 0, "trials per round (SIM_TRIALS_PER_ROUND)")
	f.IntVar(&workers, "workers", 0, "worker goroutines, 0 = one per CPU (SIM_WORKERS)")
	f.Uint64Var(&seed, "seed", 0, "run seed, 0 = random (SIM_SEED)")
	return cmd
}
