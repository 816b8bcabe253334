package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lobkernel/internal/core"
	genpkg "lobkernel/internal/gen"
)

func newGenCmd(log zerolog.Logger) *cobra.Command {
	var output, symbol, format string
	var events int
	var seed int64
	var snapshotFirst bool

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Write a deterministic synthetic event tape to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseGenFormat(format)
			if err != nil {
				return err
			}

			cfg := genpkg.DefaultConfig()
			cfg.Symbol = symbol
			cfg.Events = events
			cfg.Seed = seed
			cfg.SnapshotFirst = snapshotFirst

			table := core.NewSymbolTable()
			g, err := genpkg.New(cfg, table)
			if err != nil {
				return err
			}

			data, err := genpkg.EncodeAll(g.Events(), table, f)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				err = fmt.Errorf("gen: write %s: %w", output, err)
				log.Error().Err(err).Msg("failed to write tape")
				return err
			}
			log.Info().Str("output", output).Int("events", events).Int64("seed", seed).Msg("wrote synthetic tape")
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "path to write the generated tape")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol text to generate events for")
	cmd.Flags().IntVar(&events, "events", 0, "number of delta events to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed; same seed produces byte-identical output")
	cmd.Flags().BoolVar(&snapshotFirst, "snapshot-first", false, "emit a leading L2 snapshot before the deltas")
	cmd.Flags().StringVar(&format, "format", "jsonl", "tape format: jsonl or bin")
	cmd.MarkFlagRequired("output")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("events")

	return cmd
}
