package venue

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobkernel/internal/book"
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

func setupBook(t *testing.T) (*book.OrderBook, core.SymbolId) {
	t.Helper()
	table := core.NewSymbolTable()
	sym, err := table.Intern("BTC-USD")
	require.NoError(t, err)
	b := book.New(sym, zerolog.Nop())
	return b, sym
}

func TestSubmitPlaceRestsWithoutCrossing(t *testing.T) {
	b, sym := setupBook(t)
	b.Apply(core.NewL2Snapshot(1, sym,
		[]core.PriceQty{{Price: core.Price(100), Qty: core.Qty(1)}},
		[]core.PriceQty{{Price: core.Price(101), Qty: core.Qty(1)}},
	))
	v := New(b, 1, 2, zerolog.Nop())

	var reports []types.ExecutionReport
	v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: 1, Symbol: sym, Side: core.Bid, OrderType: types.Limit, Price: core.Price(100), HasPrice: true, Qty: core.Qty(1)}, &reports)

	require.Len(t, reports, 1)
	assert.Equal(t, types.StatusAccepted, reports[0].Status)
}

func TestSubmitPlaceCrossesAndFills(t *testing.T) {
	b, sym := setupBook(t)
	b.Apply(core.NewL2Snapshot(1, sym,
		[]core.PriceQty{{Price: core.Price(100), Qty: core.Qty(1)}},
		[]core.PriceQty{{Price: core.Price(101), Qty: core.Qty(1)}},
	))
	v := New(b, 1, 2, zerolog.Nop())

	var reports []types.ExecutionReport
	v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: 1, Symbol: sym, Side: core.Bid, OrderType: types.Limit, Price: core.Price(101), HasPrice: true, Qty: core.Qty(1)}, &reports)

	require.Len(t, reports, 2)
	assert.Equal(t, types.StatusAccepted, reports[0].Status)
	assert.Equal(t, types.StatusFilled, reports[1].Status)
	assert.EqualValues(t, 101, reports[1].LastFillPrice.Ticks())
	assert.EqualValues(t, 2, reports[1].FeeTicks)
}

func TestPassiveSweepFiresWhenMarketCrosses(t *testing.T) {
	b, sym := setupBook(t)
	b.Apply(core.NewL2Snapshot(1, sym,
		[]core.PriceQty{{Price: core.Price(100), Qty: core.Qty(1)}},
		[]core.PriceQty{{Price: core.Price(101), Qty: core.Qty(1)}},
	))
	v := New(b, 1, 2, zerolog.Nop())

	var reports []types.ExecutionReport
	v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: 1, Symbol: sym, Side: core.Bid, OrderType: types.Limit, Price: core.Price(100), HasPrice: true, Qty: core.Qty(1)}, &reports)
	require.Len(t, reports, 1) // rests, no cross yet

	b.Apply(core.NewL2Delta(2, sym, []core.LevelUpdate{
		{Side: core.Ask, Price: core.Price(100), Qty: core.Qty(1)},
	}))

	var sweep []types.ExecutionReport
	v.OnBookUpdate(&sweep)
	require.Len(t, sweep, 1)
	assert.Equal(t, types.StatusFilled, sweep[0].Status)
	assert.EqualValues(t, 1, sweep[0].FeeTicks) // maker fee
	assert.EqualValues(t, 1, sweep[0].Coid)
}

func TestPassiveSweepOrdersByAscendingCoid(t *testing.T) {
	b, sym := setupBook(t)
	b.Apply(core.NewL2Snapshot(1, sym,
		[]core.PriceQty{{Price: core.Price(100), Qty: core.Qty(3)}},
		[]core.PriceQty{{Price: core.Price(105), Qty: core.Qty(1)}},
	))
	v := New(b, 1, 2, zerolog.Nop())

	var reports []types.ExecutionReport
	for _, coid := range []types.ClientOrderId{5, 2, 9} {
		v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: coid, Symbol: sym, Side: core.Bid, OrderType: types.Limit, Price: core.Price(100), HasPrice: true, Qty: core.Qty(1)}, &reports)
	}

	b.Apply(core.NewL2Delta(2, sym, []core.LevelUpdate{
		{Side: core.Ask, Price: core.Price(100), Qty: core.Qty(1)},
	}))

	var sweep []types.ExecutionReport
	v.OnBookUpdate(&sweep)
	require.Len(t, sweep, 3)
	assert.EqualValues(t, 2, sweep[0].Coid)
	assert.EqualValues(t, 5, sweep[1].Coid)
	assert.EqualValues(t, 9, sweep[2].Coid)
}

func TestCancelRemovesLiveOrder(t *testing.T) {
	b, sym := setupBook(t)
	v := New(b, 0, 0, zerolog.Nop())

	var reports []types.ExecutionReport
	v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: 1, Symbol: sym, Side: core.Bid, OrderType: types.Limit, Price: core.Price(10), HasPrice: true, Qty: core.Qty(1)}, &reports)
	v.Submit(types.OrderRequest{Kind: types.RequestCancel, Coid: 1}, &reports)

	require.Len(t, reports, 2)
	assert.Equal(t, types.StatusCanceled, reports[1].Status)
}

func TestLimitWithoutPriceIsRejected(t *testing.T) {
	b, sym := setupBook(t)
	v := New(b, 0, 0, zerolog.Nop())

	var reports []types.ExecutionReport
	v.Submit(types.OrderRequest{Kind: types.RequestPlace, Coid: 1, Symbol: sym, Side: core.Bid, OrderType: types.Limit, HasPrice: false, Qty: core.Qty(1)}, &reports)

	require.Len(t, reports, 1)
	assert.Equal(t, types.StatusRejected, reports[0].Status)
}
