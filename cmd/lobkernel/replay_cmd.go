package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lobkernel/internal/book"
	"lobkernel/internal/core"
	"lobkernel/internal/replay"
)

func newReplayCmd(log zerolog.Logger) *cobra.Command {
	var input, symbol, format string
	var limit int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Stream a tape against a bare order book and print final stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseReplayFormat(format)
			if err != nil {
				return err
			}

			table := core.NewSymbolTable()
			reader, err := replay.Open(input, f, table, []string{symbol})
			if err != nil {
				log.Error().Err(err).Str("input", input).Msg("failed to open tape")
				return err
			}
			defer reader.Close()

			symbolID, _ := table.Intern(symbol)
			b := book.New(symbolID, log)

			var applied, dropped, read int
			for limit <= 0 || read < limit {
				event, ok, err := reader.Next()
				if err != nil {
					log.Error().Err(err).Int("events_read", read).Msg("tape decode failed")
					return err
				}
				if !ok {
					break
				}
				read++
				if b.Apply(event) {
					applied++
				} else {
					dropped++
				}
			}

			bid, hasBid := b.BestBid()
			ask, hasAsk := b.BestAsk()
			fmt.Fprintf(cmd.OutOrStdout(), "events_read=%d events_applied=%d events_dropped=%d\n", read, applied, dropped)
			if hasBid {
				fmt.Fprintf(cmd.OutOrStdout(), "best_bid=%d@%d\n", bid.Price.Ticks(), bid.Qty.Lots())
			}
			if hasAsk {
				fmt.Fprintf(cmd.OutOrStdout(), "best_ask=%d@%d\n", ask.Price.Ticks(), ask.Qty.Lots())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "path to the event tape")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol text to replay")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after N events (0 = unlimited)")
	cmd.Flags().StringVar(&format, "format", "jsonl", "tape format: jsonl or bin")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("symbol")

	return cmd
}
