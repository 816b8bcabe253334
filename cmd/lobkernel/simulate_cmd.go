package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lobkernel/internal/book"
	"lobkernel/internal/core"
	"lobkernel/internal/engine"
	"lobkernel/internal/metrics"
	"lobkernel/internal/oms"
	"lobkernel/internal/portfolio"
	"lobkernel/internal/replay"
	"lobkernel/internal/risk"
	"lobkernel/internal/strategy"
	"lobkernel/internal/venue"
)

func newSimulateCmd(log zerolog.Logger) *cobra.Command {
	var input, symbol, format, strategyName string
	var limit int
	var timerIntervalNs uint64
	var twapTarget, twapSlice int64
	var twapHorizonSecs float64
	var mmHalfSpread, mmQty, mmSkew int64
	var maxPosition, priceBand, rateLimit int64
	var haveMaxPosition, havePriceBand, haveRateLimit bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the full strategy/risk/venue pipeline over a tape",
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := uuid.New().String()
			log := log.With().Str("run_id", runID).Logger()

			v := viper.New()
			v.SetEnvPrefix("LOBKERNEL")
			v.AutomaticEnv()
			v.BindEnv("max_position")
			v.BindEnv("price_band")
			v.BindEnv("rate_limit")
			if v.IsSet("max_position") && !haveMaxPosition {
				maxPosition = v.GetInt64("max_position")
				haveMaxPosition = true
			}
			if v.IsSet("price_band") && !havePriceBand {
				priceBand = v.GetInt64("price_band")
				havePriceBand = true
			}
			if v.IsSet("rate_limit") && !haveRateLimit {
				rateLimit = v.GetInt64("rate_limit")
				haveRateLimit = true
			}

			f, err := parseReplayFormat(format)
			if err != nil {
				return err
			}

			baseStrat, err := buildStrategy(strategyName, twapTarget, twapHorizonSecs, twapSlice, mmHalfSpread, mmQty, mmSkew)
			if err != nil {
				return err
			}
			strat := newLoggingStrategy(baseStrat, log)

			table := core.NewSymbolTable()
			reader, err := replay.Open(input, f, table, []string{symbol})
			if err != nil {
				log.Error().Err(err).Str("input", input).Msg("failed to open tape")
				return err
			}
			defer reader.Close()

			symbolID, _ := table.Intern(symbol)
			b := book.New(symbolID, log)
			p := portfolio.New(log)
			o := oms.New(log)

			var policies []risk.Policy
			if haveMaxPosition {
				policies = append(policies, risk.MaxPosition{Limit: maxPosition})
			}
			if havePriceBand {
				policies = append(policies, risk.PriceBand{MaxDistance: priceBand})
			}
			if haveRateLimit {
				policies = append(policies, &risk.RateLimit{MaxPerSec: rateLimit})
			}
			r := risk.New(policies...)

			ven := venue.New(b, 0, 1, log)
			latency := metrics.NewLatencyStats()
			throughput := metrics.NewThroughputTracker(time.Second)
			eng := engine.New(b, p, o, r, strat, ven, latency, log)

			var lastTsNs uint64
			var read int
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

				for _, tick := range engine.NextTimerTicks(lastTsNs, event.TsNs, timerIntervalNs) {
					eng.OnTimer(tick, symbolID)
				}
				lastTsNs = event.TsNs

				eng.OnMarketEvent(event)
				throughput.Record(1)
			}

			pos := p.Position(symbolID)
			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s\n", runID)
			fmt.Fprintf(cmd.OutOrStdout(), "events_read=%d events_applied=%d events_dropped=%d\n", read, eng.EventsApplied(), eng.EventsDropped())
			fmt.Fprintf(cmd.OutOrStdout(), "open_orders=%d orphan_reports=%d\n", o.OpenOrdersCount(), o.OrphanReports())
			fmt.Fprintf(cmd.OutOrStdout(), "position_lots=%d realized_pnl=%s fees_paid=%s\n", pos.PositionLots, pos.RealizedPnLTicks.String(), pos.FeesPaidTicks.String())
			fmt.Fprintf(cmd.OutOrStdout(), "latency: %s\n", latency.SummaryString())
			if rate, ok := throughput.EventsPerSec(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "throughput_events_per_sec=%.1f\n", rate)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "path to the event tape")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol text to simulate")
	cmd.Flags().StringVar(&strategyName, "strategy", "noop", "strategy: noop, twap, or mm")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after N events (0 = unlimited)")
	cmd.Flags().Uint64Var(&timerIntervalNs, "timer-interval-ns", 0, "synthesize a timer tick every N nanoseconds (0 disables)")
	cmd.Flags().StringVar(&format, "format", "jsonl", "tape format: jsonl or bin")

	cmd.Flags().Int64Var(&twapTarget, "twap-target", 0, "TWAP signed target quantity in lots")
	cmd.Flags().Float64Var(&twapHorizonSecs, "twap-horizon-secs", 60, "TWAP horizon in seconds")
	cmd.Flags().Int64Var(&twapSlice, "twap-slice", 1, "TWAP max slice quantity in lots")

	cmd.Flags().Int64Var(&mmHalfSpread, "mm-half-spread", 1, "market-maker half spread in ticks")
	cmd.Flags().Int64Var(&mmQty, "mm-qty", 1, "market-maker quote quantity in lots")
	cmd.Flags().Int64Var(&mmSkew, "mm-skew", 0, "market-maker inventory skew in ticks per lot")

	cmd.Flags().Int64Var(&maxPosition, "max-position", 0, "reject place intents beyond this absolute position (0 = policy disabled unless set)")
	cmd.Flags().Int64Var(&priceBand, "price-band", 0, "reject place intents further than this many ticks from mid (0 = policy disabled unless set)")
	cmd.Flags().Int64Var(&rateLimit, "rate-limit", 0, "max order intents per second (0 = policy disabled unless set)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("symbol")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		haveMaxPosition = cmd.Flags().Changed("max-position")
		havePriceBand = cmd.Flags().Changed("price-band")
		haveRateLimit = cmd.Flags().Changed("rate-limit")
	}

	return cmd
}

func buildStrategy(name string, twapTarget int64, twapHorizonSecs float64, twapSlice int64, mmHalfSpread, mmQty, mmSkew int64) (strategy.Strategy, error) {
	switch name {
	case "", "noop":
		return &strategy.Noop{}, nil
	case "twap":
		return strategy.NewTWAP(twapTarget, twapHorizonSecs, twapSlice), nil
	case "mm":
		return strategy.NewMarketMaker(mmHalfSpread, mmQty, mmSkew), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want noop, twap, or mm)", name)
	}
}
