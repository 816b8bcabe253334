package main

import (
	"github.com/rs/zerolog"

	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// loggingStrategy wraps a strategy.Strategy and emits a zerolog event for
// every terminal execution report, the CLI-side adaptation of the
// teacher's net.Server.ReportTrade/ReportError pattern: the kernel has no
// network clients to write a report to, so the equivalent sink is a log
// line carrying the same status/qty/price/fee fields the teacher's wire
// Report struct carried.
type loggingStrategy struct {
	inner strategyLike
	log   zerolog.Logger
}

// strategyLike mirrors strategy.Strategy without importing it here, kept
// minimal so this file only depends on what it calls.
type strategyLike interface {
	OnMarketEvent(ctx types.ContextSnapshot, event core.MarketEvent, out *[]types.Intent)
	OnTimer(ctx types.ContextSnapshot, out *[]types.Intent)
	OnExecutionReport(ctx types.ContextSnapshot, report types.ExecutionReport, out *[]types.Intent)
}

func newLoggingStrategy(inner strategyLike, log zerolog.Logger) *loggingStrategy {
	return &loggingStrategy{inner: inner, log: log}
}

func (s *loggingStrategy) OnMarketEvent(ctx types.ContextSnapshot, event core.MarketEvent, out *[]types.Intent) {
	s.inner.OnMarketEvent(ctx, event, out)
}

func (s *loggingStrategy) OnTimer(ctx types.ContextSnapshot, out *[]types.Intent) {
	s.inner.OnTimer(ctx, out)
}

func (s *loggingStrategy) OnExecutionReport(ctx types.ContextSnapshot, report types.ExecutionReport, out *[]types.Intent) {
	if report.Status.IsTerminal() {
		s.log.Info().
			Uint64("coid", uint64(report.Coid)).
			Str("status", report.Status.String()).
			Int64("qty", report.CumulativeFilledQty.Lots()).
			Int64("price", report.LastFillPrice.Ticks()).
			Int64("fee", report.FeeTicks).
			Msg("execution report")
	}
	s.inner.OnExecutionReport(ctx, report, out)
}
