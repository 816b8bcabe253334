package strategy

import (
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// TWAP slices a signed target quantity evenly over a time horizon,
// placing one slice at a time and waiting for it to resolve before
// placing the next.
type TWAP struct {
	targetQtyLots int64
	sliceQtyLots  int64
	remainingLots int64
	intervalNs    uint64

	nextTsNs      uint64
	hasNextTs     bool
	inFlight      bool
	lastReported  int64
}

// NewTWAP constructs a TWAP strategy targeting targetLots (signed: positive
// buys, negative sells) over horizonSecs, in slices of at most sliceLots.
func NewTWAP(targetLots int64, horizonSecs float64, sliceLots int64) *TWAP {
	sliceAbs := absI64(sliceLots)
	if sliceAbs < 1 {
		sliceAbs = 1
	}
	targetAbs := absI64(targetLots)
	totalSlices := int64(0)
	if targetAbs > 0 {
		totalSlices = ceilDiv(targetAbs, sliceAbs)
	}
	horizonNs := int64(horizonSecs * 1e9)
	intervalNs := int64(0)
	if totalSlices > 0 {
		intervalNs = horizonNs / totalSlices
		if intervalNs < 1 {
			intervalNs = 1
		}
	}
	return &TWAP{
		targetQtyLots: targetLots,
		sliceQtyLots:  sliceAbs,
		remainingLots: targetLots,
		intervalNs:    uint64(intervalNs),
	}
}

func (s *TWAP) OnMarketEvent(ctx types.ContextSnapshot, _ core.MarketEvent, out *[]types.Intent) {
	s.maybePlace(ctx, out)
}

func (s *TWAP) OnTimer(ctx types.ContextSnapshot, out *[]types.Intent) {
	s.maybePlace(ctx, out)
}

func (s *TWAP) maybePlace(ctx types.ContextSnapshot, out *[]types.Intent) {
	if s.remainingLots == 0 || s.inFlight {
		return
	}
	if !s.hasNextTs {
		s.nextTsNs = ctx.TsNs
		s.hasNextTs = true
	}
	if ctx.TsNs < s.nextTsNs {
		return
	}
	qty := minI64(absI64(s.remainingLots), s.sliceQtyLots)
	if qty == 0 {
		return
	}

	var side core.Side
	var price core.Price
	if s.remainingLots > 0 {
		side = core.Bid
		if ctx.BestAsk == nil {
			return
		}
		price = ctx.BestAsk.Price
	} else {
		side = core.Ask
		if ctx.BestBid == nil {
			return
		}
		price = ctx.BestBid.Price
	}

	q, _ := core.NewQty(qty)
	*out = append(*out, types.PlaceLimit(ctx.Symbol, side, price, q, types.GTC, "", false))
	s.inFlight = true
	s.nextTsNs += s.intervalNs
	if s.intervalNs == 0 {
		s.nextTsNs++
	}
}

func (s *TWAP) OnExecutionReport(_ types.ContextSnapshot, report types.ExecutionReport, _ *[]types.Intent) {
	if s.inFlight {
		switch report.Status {
		case types.StatusFilled, types.StatusPartiallyFilled:
			delta := report.CumulativeFilledQty.Lots() - s.lastReported
			if delta < 0 {
				delta = 0
			}
			if report.Side == core.Bid {
				s.remainingLots -= delta
			} else {
				s.remainingLots += delta
			}
			if report.Status == types.StatusFilled {
				s.inFlight = false
				s.lastReported = 0
			} else {
				s.lastReported = report.CumulativeFilledQty.Lots()
			}
		case types.StatusCanceled, types.StatusRejected, types.StatusExpired:
			s.inFlight = false
			s.lastReported = 0
		}
	}

	if s.targetQtyLots >= 0 && s.remainingLots <= 0 {
		s.remainingLots = 0
		s.inFlight = false
	} else if s.targetQtyLots <= 0 && s.remainingLots >= 0 {
		s.remainingLots = 0
		s.inFlight = false
	}
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
