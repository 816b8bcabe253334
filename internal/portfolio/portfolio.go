// Package portfolio tracks per-symbol position, weighted-average entry
// price, realized P&L, and fees, derived from a stream of execution
// reports by tracking the last cumulative filled qty seen per order.
package portfolio

import (
	"math/big"

	"github.com/rs/zerolog"

	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// Position is the per-symbol accounting state. RealizedPnLTicks and
// FeesPaidTicks use big.Int accumulators to mirror the specification's
// 128-bit accumulator requirement for money-like totals.
type Position struct {
	PositionLots      int64
	AvgEntryPrice     core.Price
	HasAvgEntry       bool
	RealizedPnLTicks  *big.Int
	FeesPaidTicks     *big.Int
}

func newPosition() *Position {
	return &Position{
		RealizedPnLTicks: big.NewInt(0),
		FeesPaidTicks:    big.NewInt(0),
	}
}

// Portfolio holds one Position per symbol plus the last cumulative fill
// qty seen per client order, used to derive incremental fill deltas.
type Portfolio struct {
	positions     map[core.SymbolId]*Position
	filledByOrder map[types.ClientOrderId]int64
	log           zerolog.Logger
}

// New constructs an empty portfolio.
func New(log zerolog.Logger) *Portfolio {
	return &Portfolio{
		positions:     make(map[core.SymbolId]*Position),
		filledByOrder: make(map[types.ClientOrderId]int64),
		log:           log,
	}
}

// Position returns the current position for symbol, creating a zeroed one
// if none exists yet (read-only to callers — a fresh zero position has no
// observable effect until a fill is reduced into it).
func (p *Portfolio) Position(symbol core.SymbolId) Position {
	if pos, ok := p.positions[symbol]; ok {
		return cloneForRead(pos)
	}
	return cloneForRead(newPosition())
}

func cloneForRead(pos *Position) Position {
	return Position{
		PositionLots:     pos.PositionLots,
		AvgEntryPrice:    pos.AvgEntryPrice,
		HasAvgEntry:      pos.HasAvgEntry,
		RealizedPnLTicks: new(big.Int).Set(pos.RealizedPnLTicks),
		FeesPaidTicks:    new(big.Int).Set(pos.FeesPaidTicks),
	}
}

func (p *Portfolio) positionFor(symbol core.SymbolId) *Position {
	pos, ok := p.positions[symbol]
	if !ok {
		pos = newPosition()
		p.positions[symbol] = pos
	}
	return pos
}

// OnExecutionReport reduces a venue execution report into position state,
// following the delta-from-cumulative-qty derivation required for
// idempotent replay of duplicate/partial reports.
func (p *Portfolio) OnExecutionReport(report types.ExecutionReport) {
	switch report.Status {
	case types.StatusCanceled, types.StatusRejected, types.StatusExpired:
		delete(p.filledByOrder, report.Coid)
		return
	case types.StatusFilled, types.StatusPartiallyFilled:
		// fall through to fill processing below
	default:
		return
	}

	prev := p.filledByOrder[report.Coid]
	delta := report.CumulativeFilledQty.Lots() - prev
	if delta <= 0 {
		if report.Status == types.StatusFilled {
			delete(p.filledByOrder, report.Coid)
		}
		return
	}
	p.filledByOrder[report.Coid] = report.CumulativeFilledQty.Lots()

	signedDelta := delta
	if report.Side == core.Ask {
		signedDelta = -delta
	}

	pos := p.positionFor(report.Symbol)
	fillPrice := report.LastFillPrice.Ticks()

	if pos.PositionLots != 0 && sign(pos.PositionLots) != sign(signedDelta) {
		closeQty := minInt64(absInt64(signedDelta), absInt64(pos.PositionLots))
		var pnlPerLot int64
		if pos.PositionLots > 0 {
			pnlPerLot = fillPrice - pos.AvgEntryPrice.Ticks()
		} else {
			pnlPerLot = pos.AvgEntryPrice.Ticks() - fillPrice
		}
		pnl := new(big.Int).Mul(big.NewInt(pnlPerLot), big.NewInt(closeQty))
		pos.RealizedPnLTicks.Add(pos.RealizedPnLTicks, pnl)
	}

	newPositionLots := pos.PositionLots + signedDelta
	switch {
	case newPositionLots == 0:
		pos.HasAvgEntry = false
		pos.AvgEntryPrice = 0
	case pos.PositionLots == 0 || sign(pos.PositionLots) == sign(signedDelta):
		// Opening or adding to an existing position: weighted average.
		if pos.HasAvgEntry {
			oldVol := absInt64(pos.PositionLots)
			addVol := absInt64(signedDelta)
			totalVol := oldVol + addVol
			weighted := pos.AvgEntryPrice.Ticks()*oldVol + fillPrice*addVol
			if totalVol > 0 {
				pos.AvgEntryPrice = core.Price(weighted / totalVol)
			}
		} else {
			pos.AvgEntryPrice = core.Price(fillPrice)
		}
		pos.HasAvgEntry = true
	default:
		// Position flipped sign: the new average entry is simply the fill price.
		pos.AvgEntryPrice = core.Price(fillPrice)
		pos.HasAvgEntry = true
	}
	pos.PositionLots = newPositionLots
	pos.FeesPaidTicks.Add(pos.FeesPaidTicks, big.NewInt(report.FeeTicks))

	if report.Status == types.StatusFilled {
		delete(p.filledByOrder, report.Coid)
	}
}

// MarkToMid returns (mid - avgEntry) * positionLots in ticks, or absent
// when either top-of-book side or the average entry price is missing.
func (p *Portfolio) MarkToMid(symbol core.SymbolId, bestBid, bestAsk *core.PriceQty) (*big.Int, bool) {
	pos, ok := p.positions[symbol]
	if !ok || !pos.HasAvgEntry || bestBid == nil || bestAsk == nil {
		return nil, false
	}
	mid := (bestBid.Price.Ticks() + bestAsk.Price.Ticks()) / 2
	diff := mid - pos.AvgEntryPrice.Ticks()
	return new(big.Int).Mul(big.NewInt(diff), big.NewInt(pos.PositionLots)), true
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
