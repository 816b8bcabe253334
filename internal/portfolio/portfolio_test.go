package portfolio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

const sym = core.SymbolId(1)

func TestBuyThenSellRealizesProfit(t *testing.T) {
	p := New(zerolog.Nop())

	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2),
		LastFillPrice: core.Price(100), Symbol: sym, Side: core.Bid,
	})
	p.OnExecutionReport(types.ExecutionReport{
		Coid: 2, Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2),
		LastFillPrice: core.Price(110), Symbol: sym, Side: core.Ask,
	})

	pos := p.Position(sym)
	assert.EqualValues(t, 0, pos.PositionLots)
	assert.False(t, pos.HasAvgEntry)
	assert.Equal(t, "20", pos.RealizedPnLTicks.String())
	assert.Equal(t, "0", pos.FeesPaidTicks.String())
}

func TestFeesReducePnl(t *testing.T) {
	p := New(zerolog.Nop())
	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusFilled, CumulativeFilledQty: core.Qty(1),
		LastFillPrice: core.Price(100), FeeTicks: 3, Symbol: sym, Side: core.Bid,
	})
	pos := p.Position(sym)
	assert.Equal(t, "3", pos.FeesPaidTicks.String())
}

func TestMarkToMidUsesMidPrice(t *testing.T) {
	p := New(zerolog.Nop())
	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2),
		LastFillPrice: core.Price(100), Symbol: sym, Side: core.Bid,
	})

	bid := core.PriceQty{Price: core.Price(104), Qty: core.Qty(1)}
	ask := core.PriceQty{Price: core.Price(106), Qty: core.Qty(1)}
	mtm, ok := p.MarkToMid(sym, &bid, &ask)
	require.True(t, ok)
	assert.Equal(t, "10", mtm.String()) // mid=105, entry=100, lots=2 -> 10
}

func TestCumulativePartialFillsUseDelta(t *testing.T) {
	p := New(zerolog.Nop())
	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusPartiallyFilled, CumulativeFilledQty: core.Qty(1),
		LastFillPrice: core.Price(100), Symbol: sym, Side: core.Bid,
	})
	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusPartiallyFilled, CumulativeFilledQty: core.Qty(1),
		LastFillPrice: core.Price(200), Symbol: sym, Side: core.Bid,
	})
	pos := p.Position(sym)
	// second report has delta<=0 (1-1=0), so it must be ignored entirely.
	assert.EqualValues(t, 1, pos.PositionLots)
	assert.EqualValues(t, 100, pos.AvgEntryPrice.Ticks())

	p.OnExecutionReport(types.ExecutionReport{
		Coid: 1, Status: types.StatusFilled, CumulativeFilledQty: core.Qty(3),
		LastFillPrice: core.Price(120), Symbol: sym, Side: core.Bid,
	})
	pos = p.Position(sym)
	assert.EqualValues(t, 3, pos.PositionLots)
}

func TestCanceledDropsOrderTracking(t *testing.T) {
	p := New(zerolog.Nop())
	p.OnExecutionReport(types.ExecutionReport{Coid: 1, Status: types.StatusCanceled, Symbol: sym})
	pos := p.Position(sym)
	assert.EqualValues(t, 0, pos.PositionLots)
}
