// Command simulator plays the solitaire reduction game many times and keeps
// a cumulative histogram of outcomes in a text file and a SQLite table.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			pterm.Warning.Println("interrupted; the round in flight was not persisted")
			os.Exit(130)
		}
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
