package simulation

import (
	"strings"

	"github.com/pterm/pterm"
)

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) RoundDone(RoundResult) {}
func (NopReporter) Done(Summary)          {}

// TerminalReporter prints a line per round and a final summary with pterm.
// Skipped rounds are always printed as warnings.
type TerminalReporter struct{}

func (TerminalReporter) RoundDone(r RoundResult) {
	if r.Skipped {
		missing := append([]string{r.Failed}, r.NotTried...)
		pterm.Warning.Printfln("Simulation round number %d skipped: %d trials not merged into %s (%v)",
			r.Round, r.Histogram.Total(), strings.Join(missing, ", "), r.FailErr)
		return
	}
	pterm.Info.Printfln("Simulation round number %d completed.", r.Round)
}

func (TerminalReporter) Done(s Summary) {
	pterm.Success.Printfln("Completed %d simulations.", s.Trials)
	if s.SkippedRounds > 0 {
		pterm.Warning.Printfln("%d of %d rounds were skipped; %d of %d trials were persisted.",
			s.SkippedRounds, s.Rounds, s.MergedTrials, s.Trials)
	}
}
