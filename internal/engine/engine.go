// Package engine implements the kernel's orchestration state machine: the
// single-threaded loop that turns one market event or timer tick into a
// bounded, deterministic cascade through the book, strategy, risk, OMS,
// venue, and portfolio. Its overall orchestration shape (own the book,
// dispatch to components, fire a Trade/report callback) is grounded on
// the teacher's internal/engine/engine.go, generalized from a single
// PlaceOrder/Trade pair into the specification's full event pipeline.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"lobkernel/internal/book"
	"lobkernel/internal/core"
	"lobkernel/internal/metrics"
	"lobkernel/internal/oms"
	"lobkernel/internal/portfolio"
	"lobkernel/internal/risk"
	"lobkernel/internal/strategy"
	"lobkernel/internal/types"
	"lobkernel/internal/venue"
)

// Bounded caps, invariant guards against a misbehaving strategy or venue
// rather than expected operating limits.
const (
	MaxIntentSteps          = 1024
	MaxTimerTicksPerEvent   = 1024
	MaxPassiveFillsPerEvent = venue.MaxPassiveFillsPerEvent
)

// Engine owns the book, portfolio, OMS, risk chain, strategy, and venue
// for one symbol's simulation run, plus the three reusable scratch
// buffers the pipeline splices intents and reports through.
type Engine struct {
	Book      *book.OrderBook
	Portfolio *portfolio.Portfolio
	OMS       *oms.OMS
	Risk      *risk.Engine
	Strategy  strategy.Strategy
	Venue     *venue.Simulator
	Latency   *metrics.LatencyStats

	intentQueue   []types.Intent
	intentScratch []types.Intent
	reportScratch []types.ExecutionReport

	eventsApplied uint64
	eventsDropped uint64

	now func() time.Time
	log zerolog.Logger
}

// New wires together an engine from its already-constructed components.
func New(b *book.OrderBook, p *portfolio.Portfolio, o *oms.OMS, r *risk.Engine, s strategy.Strategy, v *venue.Simulator, latency *metrics.LatencyStats, log zerolog.Logger) *Engine {
	return &Engine{
		Book: b, Portfolio: p, OMS: o, Risk: r, Strategy: s, Venue: v, Latency: latency,
		now: time.Now, log: log,
	}
}

// EventsApplied returns the count of market events whose symbol matched
// the book and were applied.
func (e *Engine) EventsApplied() uint64 { return e.eventsApplied }

// EventsDropped returns the count of market events dropped due to a
// symbol mismatch.
func (e *Engine) EventsDropped() uint64 { return e.eventsDropped }

func (e *Engine) buildContext(tsNs uint64, symbol core.SymbolId) types.ContextSnapshot {
	var bidPtr, askPtr *core.PriceQty
	if bid, ok := e.Book.BestBid(); ok {
		bidPtr = &bid
	}
	if ask, ok := e.Book.BestAsk(); ok {
		askPtr = &ask
	}
	position := e.Portfolio.Position(symbol)
	return types.NewContextSnapshot(tsNs, symbol, bidPtr, askPtr, position.PositionLots, e.OMS.OpenOrdersCount())
}

// OnMarketEvent runs the full market-event pipeline: book mutation,
// passive-fill sweep, strategy decision, and intent drain. It returns
// true if the event's symbol matched the book (and was therefore
// processed) and false if it was silently dropped.
func (e *Engine) OnMarketEvent(event core.MarketEvent) bool {
	t0 := e.now()

	applied := e.Book.Apply(event)
	if !applied {
		e.eventsDropped++
		return false
	}
	e.eventsApplied++

	tsNs := event.TsNs
	symbol := event.Symbol

	e.intentQueue = e.intentQueue[:0]
	e.reportScratch = e.reportScratch[:0]

	e.Venue.OnBookUpdate(&e.reportScratch)
	e.processReports(e.reportScratch)

	ctx := e.buildContext(tsNs, symbol)
	e.intentScratch = e.intentScratch[:0]
	e.Strategy.OnMarketEvent(ctx, event, &e.intentScratch)
	e.intentQueue = append(e.intentQueue, e.intentScratch...)

	e.drainIntentQueue(tsNs, symbol)

	ns := e.now().Sub(t0).Nanoseconds()
	if ns < 1 {
		ns = 1
	}
	e.Latency.Record(ns)

	return true
}

// OnTimer runs the timer-tick pipeline: the same machinery as
// OnMarketEvent minus the book-apply and passive-sweep steps.
func (e *Engine) OnTimer(tsNs uint64, symbol core.SymbolId) {
	e.intentQueue = e.intentQueue[:0]

	ctx := e.buildContext(tsNs, symbol)
	e.intentScratch = e.intentScratch[:0]
	e.Strategy.OnTimer(ctx, &e.intentScratch)
	e.intentQueue = append(e.intentQueue, e.intentScratch...)

	e.drainIntentQueue(tsNs, symbol)
}

// processReports feeds venue-produced reports through OMS, portfolio, and
// the strategy's execution-report callback, in the order the venue
// produced them, appending any follow-up intents to the engine's queue.
func (e *Engine) processReports(reports []types.ExecutionReport) {
	for _, report := range reports {
		e.OMS.OnExecutionReport(report)
		e.Portfolio.OnExecutionReport(report)

		ctx := e.buildContext(report.TsNs, report.Symbol)
		e.intentScratch = e.intentScratch[:0]
		e.Strategy.OnExecutionReport(ctx, report, &e.intentScratch)
		e.intentQueue = append(e.intentQueue, e.intentScratch...)
	}
}

// drainIntentQueue pops intents FIFO (via a growing slice and a head
// index, so follow-up intents appended mid-drain are still processed)
// up to MaxIntentSteps, running each through risk, OMS, and the venue.
func (e *Engine) drainIntentQueue(tsNs uint64, symbol core.SymbolId) {
	head := 0
	steps := 0
	for head < len(e.intentQueue) && steps < MaxIntentSteps {
		intent := e.intentQueue[head]
		head++
		steps++

		ctx := e.buildContext(tsNs, symbol)
		action := e.Risk.Evaluate(ctx, intent)
		if action.Kind == risk.Reject {
			continue
		}

		request, ok := e.OMS.ApplyIntent(action.Intent, tsNs)
		if !ok {
			continue
		}

		e.reportScratch = e.reportScratch[:0]
		e.Venue.Submit(request, &e.reportScratch)
		e.processReports(e.reportScratch)
	}
}

// NextTimerTicks computes how many timer ticks should fire between
// lastTsNs and currentTsNs given a fixed intervalNs, capped at
// MaxTimerTicksPerEvent — the outer replay/simulate loop's scheduling
// decision, factored out here so it's tested alongside the engine.
func NextTimerTicks(lastTsNs, currentTsNs, intervalNs uint64) []uint64 {
	if intervalNs == 0 || currentTsNs <= lastTsNs {
		return nil
	}
	var ticks []uint64
	next := lastTsNs + intervalNs
	for next <= currentTsNs && len(ticks) < MaxTimerTicksPerEvent {
		ticks = append(ticks, next)
		next += intervalNs
	}
	return ticks
}
