package strategy

import (
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// MarketMaker quotes both sides of the book around the mid price with an
// inventory skew, replacing quotes as the mid or position moves and
// canceling both sides when no mid price is available.
type MarketMaker struct {
	halfSpreadTicks int64
	qtyLots         int64
	skewPerLotTicks int64

	bidOrderID *types.ClientOrderId
	askOrderID *types.ClientOrderId
	bidPrice   core.Price
	askPrice   core.Price
	pendingBid bool
	pendingAsk bool
}

// NewMarketMaker constructs a market-making strategy.
func NewMarketMaker(halfSpreadTicks, qtyLots, skewPerLotTicks int64) *MarketMaker {
	return &MarketMaker{halfSpreadTicks: halfSpreadTicks, qtyLots: qtyLots, skewPerLotTicks: skewPerLotTicks}
}

func (m *MarketMaker) OnMarketEvent(ctx types.ContextSnapshot, _ core.MarketEvent, out *[]types.Intent) {
	m.quote(ctx, out)
}

func (m *MarketMaker) OnTimer(ctx types.ContextSnapshot, out *[]types.Intent) {
	m.quote(ctx, out)
}

func (m *MarketMaker) quote(ctx types.ContextSnapshot, out *[]types.Intent) {
	mid, ok := ctx.MidPrice()
	if !ok {
		m.cancelAll(out)
		return
	}

	skew := ctx.PositionLots * m.skewPerLotTicks
	bidTicks := mid.Ticks() - m.halfSpreadTicks - skew
	askTicks := mid.Ticks() + m.halfSpreadTicks - skew
	if bidTicks < 1 {
		bidTicks = 1
	}
	if askTicks <= bidTicks {
		askTicks = bidTicks + 1
	}
	bidPrice := core.Price(bidTicks)
	askPrice := core.Price(askTicks)
	qty, _ := core.NewQty(m.qtyLots)

	if m.bidOrderID == nil && !m.pendingBid {
		*out = append(*out, types.PlaceLimit(ctx.Symbol, core.Bid, bidPrice, qty, types.GTC, "", false))
		m.pendingBid = true
	} else if m.bidOrderID != nil && m.bidPrice != bidPrice && !m.pendingBid {
		*out = append(*out, types.ReplaceIntent(*m.bidOrderID, bidPrice, qty))
		m.pendingBid = true
	}

	if m.askOrderID == nil && !m.pendingAsk {
		*out = append(*out, types.PlaceLimit(ctx.Symbol, core.Ask, askPrice, qty, types.GTC, "", false))
		m.pendingAsk = true
	} else if m.askOrderID != nil && m.askPrice != askPrice && !m.pendingAsk {
		*out = append(*out, types.ReplaceIntent(*m.askOrderID, askPrice, qty))
		m.pendingAsk = true
	}
}

func (m *MarketMaker) cancelAll(out *[]types.Intent) {
	if m.bidOrderID != nil {
		*out = append(*out, types.CancelIntent(*m.bidOrderID))
	}
	if m.askOrderID != nil {
		*out = append(*out, types.CancelIntent(*m.askOrderID))
	}
	m.bidOrderID = nil
	m.askOrderID = nil
	m.pendingBid = false
	m.pendingAsk = false
}

func (m *MarketMaker) OnExecutionReport(_ types.ContextSnapshot, report types.ExecutionReport, _ *[]types.Intent) {
	if report.Side == core.Bid {
		m.applyReportSide(report, &m.bidOrderID, &m.bidPrice, &m.pendingBid)
	} else {
		m.applyReportSide(report, &m.askOrderID, &m.askPrice, &m.pendingAsk)
	}
}

func (m *MarketMaker) applyReportSide(report types.ExecutionReport, orderID **types.ClientOrderId, price *core.Price, pending *bool) {
	switch report.Status {
	case types.StatusAccepted, types.StatusWorking, types.StatusPartiallyFilled:
		coid := report.Coid
		*orderID = &coid
		*price = report.LastFillPrice
		*pending = false
	case types.StatusFilled, types.StatusCanceled, types.StatusRejected, types.StatusExpired:
		*orderID = nil
		*pending = false
	}
}
