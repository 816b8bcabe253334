package engine

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func zeroLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// recordingStrategy is a test double that places a single order the first
// time it sees a market event with both sides of the book present, then
// goes quiet; it also counts execution reports it observes.
type recordingStrategy struct {
	placed  bool
	reports []types.ExecutionReport
}

func (s *recordingStrategy) OnMarketEvent(ctx types.ContextSnapshot, event core.MarketEvent, out *[]types.Intent) {
	if s.placed || ctx.BestBid == nil || ctx.BestAsk == nil {
		return
	}
	s.placed = true
	*out = append(*out, types.PlaceLimit(ctx.Symbol, core.Bid, ctx.BestAsk.Price, mustQty(1), types.GTC, "", false))
}

func (s *recordingStrategy) OnTimer(ctx types.ContextSnapshot, out *[]types.Intent) {}

func (s *recordingStrategy) OnExecutionReport(ctx types.ContextSnapshot, report types.ExecutionReport, out *[]types.Intent) {
	s.reports = append(s.reports, report)
}

func mustQty(n int64) core.Qty {
	q, err := core.NewQty(n)
	if err != nil {
		panic(err)
	}
	return q
}

func mustPrice(n int64) core.Price {
	p, err := core.NewPrice(n)
	if err != nil {
		panic(err)
	}
	return p
}

func newTestEngine(t *testing.T, symbol core.SymbolId, strat strategy.Strategy) *Engine {
	t.Helper()
	b := book.New(symbol, zeroLogger())
	p := portfolio.New(zeroLogger())
	o := oms.New(zeroLogger())
	r := risk.New()
	v := venue.New(b, 0, 1, zeroLogger())
	return New(b, p, o, r, strat, v, metrics.NewLatencyStats(), zeroLogger())
}

func TestSnapshotThenDeltaAppliesToBook(t *testing.T) {
	symbol := core.SymbolId(1)
	eng := newTestEngine(t, symbol, &strategy.Noop{})

	snapshot := core.NewL2Snapshot(1, symbol,
		[]core.PriceQty{{Price: mustPrice(99), Qty: mustQty(10)}},
		[]core.PriceQty{{Price: mustPrice(101), Qty: mustQty(10)}},
	)
	ok := eng.OnMarketEvent(snapshot)
	require.True(t, ok)

	delta := core.NewL2Delta(2, symbol, []core.LevelUpdate{
		{Side: core.Bid, Price: mustPrice(100), Qty: mustQty(5)},
	})
	ok = eng.OnMarketEvent(delta)
	require.True(t, ok)

	bid, hasBid := eng.Book.BestBid()
	require.True(t, hasBid)
	assert.Equal(t, int64(100), bid.Price.Ticks())
	assert.EqualValues(t, 2, eng.EventsApplied())
}

func TestMismatchedSymbolEventIsDropped(t *testing.T) {
	symbol := core.SymbolId(1)
	other := core.SymbolId(2)
	eng := newTestEngine(t, symbol, &strategy.Noop{})

	ok := eng.OnMarketEvent(core.NewL2Snapshot(1, other, nil, nil))
	assert.False(t, ok)
	assert.EqualValues(t, 1, eng.EventsDropped())
	assert.EqualValues(t, 0, eng.EventsApplied())
}

// TestStrategyPlaceCrossesAndFillsThroughPipeline drives a two-sided book
// through the full event pipeline and checks that a strategy-placed order
// that crosses the spread flows through risk, OMS, and venue into a filled
// position and a realized execution report delivered back to the strategy.
func TestStrategyPlaceCrossesAndFillsThroughPipeline(t *testing.T) {
	symbol := core.SymbolId(1)
	strat := &recordingStrategy{}
	eng := newTestEngine(t, symbol, strat)

	snapshot := core.NewL2Snapshot(1, symbol,
		[]core.PriceQty{{Price: mustPrice(99), Qty: mustQty(10)}},
		[]core.PriceQty{{Price: mustPrice(101), Qty: mustQty(10)}},
	)
	ok := eng.OnMarketEvent(snapshot)
	require.True(t, ok)
	assert.True(t, strat.placed)

	require.Len(t, strat.reports, 2)
	assert.Equal(t, types.StatusAccepted, strat.reports[0].Status)
	assert.Equal(t, types.StatusFilled, strat.reports[1].Status)

	pos := eng.Portfolio.Position(symbol)
	assert.EqualValues(t, 1, pos.PositionLots)
}

// TestPassiveSweepFiresOnBookUpdate places a resting order that doesn't
// cross, then moves the book so it does, and confirms the sweep fills it
// without any further strategy intent.
func TestPassiveSweepFiresOnBookUpdate(t *testing.T) {
	symbol := core.SymbolId(1)
	strat := &strategy.Noop{}
	eng := newTestEngine(t, symbol, strat)

	snapshot := core.NewL2Snapshot(1, symbol,
		[]core.PriceQty{{Price: mustPrice(99), Qty: mustQty(10)}},
		[]core.PriceQty{{Price: mustPrice(101), Qty: mustQty(10)}},
	)
	require.True(t, eng.OnMarketEvent(snapshot))

	req, ok := eng.OMS.ApplyIntent(types.PlaceLimit(symbol, core.Ask, mustPrice(102), mustQty(3), types.GTC, "", false), 2)
	require.True(t, ok)
	var reports []types.ExecutionReport
	eng.Venue.Submit(req, &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, types.StatusAccepted, reports[0].Status)

	delta := core.NewL2Delta(3, symbol, []core.LevelUpdate{
		{Side: core.Bid, Price: mustPrice(103), Qty: mustQty(5)},
	})
	require.True(t, eng.OnMarketEvent(delta))

	state, ok := eng.OMS.State(req.Coid)
	require.True(t, ok)
	assert.Equal(t, oms.Filled, state)
}

func TestNextTimerTicksCapsAtMax(t *testing.T) {
	ticks := NextTimerTicks(0, 10_000_000, 1)
	assert.Len(t, ticks, MaxTimerTicksPerEvent)
}

func TestNextTimerTicksEmptyWhenIntervalZero(t *testing.T) {
	ticks := NextTimerTicks(0, 100, 0)
	assert.Nil(t, ticks)
}
