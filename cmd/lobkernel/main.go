// Command lobkernel is the CLI front end for the simulation kernel:
// replaying a recorded tape against a bare order book, generating a
// deterministic synthetic tape, or running the full strategy/risk/venue
// pipeline over a tape and reporting P&L and latency.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()

	root := newRootCmd(log)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
