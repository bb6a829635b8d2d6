package main

import (
	"errors"
	"fmt"
	"strconv"

	"solitaire-sim/internal/histogram"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the file and table histograms; exits non-zero when they differ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := histogram.Reconcile(ctx, s.file, s.table)
			if err != nil && !errors.Is(err, histogram.ErrDiverged) {
				return err
			}
			for _, line := range totalsLines(report, s.file.Name(), s.table.Name()) {
				pterm.Info.Println(line)
			}
			if err == nil {
				pterm.Success.Println("Stores agree.")
				return nil
			}
			data := pterm.TableData{{"Cards left", s.file.Name(), s.table.Name()}}
			for _, d := range report.Diffs {
				data = append(data, []string{
					strconv.Itoa(d.Outcome),
					strconv.FormatInt(d.Counts[s.file.Name()], 10),
					strconv.FormatInt(d.Counts[s.table.Name()], 10),
				})
			}
			if rerr := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); rerr != nil {
				return rerr
			}
			return err
		},
	}
}

// totalsLines renders per-store totals in the given store order.
func totalsLines(report histogram.Report, names ...string) []string {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%s: %d trials", name, report.Totals[name])
	}
	return lines
}
