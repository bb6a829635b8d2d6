package main

import (
	"fmt"
	"strconv"

	"solitaire-sim/internal/histogram"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	var (
		source string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the persisted outcome histogram",
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

			var sink histogram.Sink
			switch source {
			case "table":
				sink = s.table
			case "file":
				sink = s.file
			default:
				return fmt.Errorf("unknown source %q (want file or table)", source)
			}
			h, err := sink.Load(ctx)
			if err != nil {
				return err
			}
			return renderHistogram(sink.Name(), h, all)
		},
	}
	cmd.Flags().StringVar(&source, "source", "table", "store to read: file or table")
	cmd.Flags().BoolVar(&all, "all", false, "include outcomes never observed")
	return cmd
}

func renderHistogram(name string, h histogram.Histogram, all bool) error {
	st := h.Stats()
	data := pterm.TableData{{"Cards left", "Count", "Share"}}
	for outcome, n := range h {
		if n == 0 && !all {
			continue
		}
		share := 0.0
		if st.Trials > 0 {
			share = float64(n) / float64(st.Trials)
		}
		data = append(data, []string{strconv.Itoa(outcome), strconv.FormatInt(n, 10), fmt.Sprintf("%.4f%%", share*100)})
	}

	pterm.DefaultSection.Printfln("Histogram (%s)", name)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("Trials: %d  Wins: %d  Win rate: %.5f%%  Mean cards left: %.3f",
		st.Trials, st.Wins, st.WinRate*100, st.Mean)
	if st.Best >= 0 {
		pterm.Info.Printfln("Best outcome: %d", st.Best)
	}
	return nil
}
