package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

func TestNoopStrategyReturnsEmptyIntents(t *testing.T) {
	var out []types.Intent
	n := Noop{}
	ctx := types.ContextSnapshot{}
	n.OnMarketEvent(ctx, core.MarketEvent{}, &out)
	n.OnTimer(ctx, &out)
	n.OnExecutionReport(ctx, types.ExecutionReport{}, &out)
	assert.Empty(t, out)
}

func ctxWithBook(tsNs uint64, bidTicks, askTicks int64, position int64) types.ContextSnapshot {
	bid := core.PriceQty{Price: core.Price(bidTicks), Qty: core.Qty(5)}
	ask := core.PriceQty{Price: core.Price(askTicks), Qty: core.Qty(5)}
	return types.ContextSnapshot{TsNs: tsNs, Symbol: 1, BestBid: &bid, BestAsk: &ask, PositionLots: position}
}

func TestTwapEmitsUntilTargetReached(t *testing.T) {
	tw := NewTWAP(6, 0, 2)
	ctx := ctxWithBook(0, 99, 101, 0)

	var out []types.Intent
	tw.OnMarketEvent(ctx, core.MarketEvent{}, &out)
	require.Len(t, out, 1)
	assert.Equal(t, types.IntentPlaceLimit, out[0].Kind)
	assert.Equal(t, core.Bid, out[0].Side)
	assert.EqualValues(t, 2, out[0].Qty.Lots())

	tw.OnExecutionReport(ctx, types.ExecutionReport{
		Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2), Side: core.Bid,
	}, &out)

	out = out[:0]
	ctx2 := ctxWithBook(1, 99, 101, 2)
	tw.OnMarketEvent(ctx2, core.MarketEvent{}, &out)
	require.Len(t, out, 1)
	assert.EqualValues(t, 2, out[0].Qty.Lots())

	tw.OnExecutionReport(ctx2, types.ExecutionReport{
		Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2), Side: core.Bid,
	}, &out)

	out = out[:0]
	ctx3 := ctxWithBook(2, 99, 101, 4)
	tw.OnMarketEvent(ctx3, core.MarketEvent{}, &out)
	require.Len(t, out, 1)
	assert.EqualValues(t, 2, out[0].Qty.Lots())

	tw.OnExecutionReport(ctx3, types.ExecutionReport{
		Status: types.StatusFilled, CumulativeFilledQty: core.Qty(2), Side: core.Bid,
	}, &out)

	out = out[:0]
	ctx4 := ctxWithBook(3, 99, 101, 6)
	tw.OnMarketEvent(ctx4, core.MarketEvent{}, &out)
	assert.Empty(t, out)
}

func TestMarketMakerQuotesBothSidesAndSkewsWithInventory(t *testing.T) {
	mm := NewMarketMaker(2, 1, 1)
	ctx := ctxWithBook(0, 100, 102, 0) // mid = 101

	var out []types.Intent
	mm.OnMarketEvent(ctx, core.MarketEvent{}, &out)
	require.Len(t, out, 2)
	assert.EqualValues(t, 99, out[0].Price.Ticks())
	assert.EqualValues(t, 103, out[1].Price.Ticks())

	mm2 := NewMarketMaker(2, 1, 1)
	ctxSkewed := ctxWithBook(0, 100, 102, 5)
	var out2 []types.Intent
	mm2.OnMarketEvent(ctxSkewed, core.MarketEvent{}, &out2)
	require.Len(t, out2, 2)
	assert.EqualValues(t, 94, out2[0].Price.Ticks())
	assert.EqualValues(t, 98, out2[1].Price.Ticks())
}

func TestMarketMakerCancelsWhenMidAbsent(t *testing.T) {
	mm := NewMarketMaker(2, 1, 1)
	coid := types.ClientOrderId(7)
	mm.bidOrderID = &coid
	mm.askOrderID = &coid

	var out []types.Intent
	mm.OnMarketEvent(types.ContextSnapshot{}, core.MarketEvent{}, &out)
	assert.Len(t, out, 2)
	assert.Nil(t, mm.bidOrderID)
	assert.Nil(t, mm.askOrderID)
}
