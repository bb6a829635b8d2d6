package main

import (
	"strings"

	"solitaire-sim/internal/game/common"
	"solitaire-sim/internal/game/elimination"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var deck string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Reduce one given deck and print the surviving cards",
		Long: "Reduce one 52-card deck, listed top to bottom as card names (AS, 10H, KC)\n" +
			"or ids 0-51 separated by commas or spaces. Nothing is persisted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cards, err := common.ParseDeck(deck)
			if err != nil {
				return err
			}
			left, err := elimination.Remaining(cards)
			if err != nil {
				return err
			}
			names := make([]string, len(left))
			for i, id := range left {
				names[i] = id.String()
			}
			pterm.Info.Printfln("Outcome: %d cards left", len(left))
			if len(left) == 0 {
				pterm.Success.Println("Deck cleared.")
				return nil
			}
			pterm.Println(strings.Join(names, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "deck to reduce, top card first")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}
