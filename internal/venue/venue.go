// Package venue implements the built-in execution venue simulator:
// immediate-cross matching at order submission and a passive-fill sweep
// triggered whenever the shared order book changes, with deterministic
// ordering of passive fills by ascending client order id.
package venue

import (
	"sort"

	"github.com/rs/zerolog"

	"lobkernel/internal/book"
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// MaxPassiveFillsPerEvent bounds how many resting orders a single passive
// sweep can fill, a safety valve against pathological fabricated input.
const MaxPassiveFillsPerEvent = 1024

type liveOrder struct {
	symbol   core.SymbolId
	side     core.Side
	price    core.Price
	hasPrice bool
	qty      core.Qty
}

// Simulator is the built-in execution venue. It holds a read-only view of
// the shared order book to read top-of-book during matching and sweeps.
type Simulator struct {
	book *book.OrderBook

	makerFeeTicks int64
	takerFeeTicks int64

	nextTsNs uint64
	live     map[types.ClientOrderId]*liveOrder

	log zerolog.Logger
}

// New constructs a venue simulator bound to book, with the given maker and
// taker fees in ticks.
func New(b *book.OrderBook, makerFeeTicks, takerFeeTicks int64, log zerolog.Logger) *Simulator {
	return &Simulator{
		book:          b,
		makerFeeTicks: makerFeeTicks,
		takerFeeTicks: takerFeeTicks,
		nextTsNs:      1,
		live:          make(map[types.ClientOrderId]*liveOrder),
		log:           log,
	}
}

func (s *Simulator) nextTs() uint64 {
	ts := s.nextTsNs
	s.nextTsNs++
	return ts
}

// Submit processes a single OrderRequest, appending every resulting
// execution report to out in emission order.
func (s *Simulator) Submit(req types.OrderRequest, out *[]types.ExecutionReport) {
	switch req.Kind {
	case types.RequestPlace:
		s.handlePlace(req.Coid, req.Symbol, req.Side, req.OrderType, req.Price, req.HasPrice, req.Qty, out)
	case types.RequestCancel:
		s.handleCancel(req.Coid, out)
	case types.RequestReplace:
		s.handleReplace(req, out)
	}
}

func (s *Simulator) crossingPrice(side core.Side, orderType types.OrderType, price core.Price, hasPrice bool) (core.Price, bool) {
	bestBid, hasBid := s.book.BestBid()
	bestAsk, hasAsk := s.book.BestAsk()

	if orderType == types.Market {
		if side == core.Bid {
			if hasAsk {
				return bestAsk.Price, true
			}
			return 0, false
		}
		if hasBid {
			return bestBid.Price, true
		}
		return 0, false
	}

	if !hasPrice {
		return 0, false
	}
	if side == core.Bid {
		if hasAsk && price.Ticks() >= bestAsk.Price.Ticks() {
			return bestAsk.Price, true
		}
		return 0, false
	}
	if hasBid && price.Ticks() <= bestBid.Price.Ticks() {
		return bestBid.Price, true
	}
	return 0, false
}

func (s *Simulator) handlePlace(coid types.ClientOrderId, symbol core.SymbolId, side core.Side, orderType types.OrderType, price core.Price, hasPrice bool, qty core.Qty, out *[]types.ExecutionReport) {
	if orderType == types.Limit && !hasPrice {
		*out = append(*out, types.ExecutionReport{
			Coid: coid, Status: types.StatusRejected, TsNs: s.nextTs(), Symbol: symbol, Side: side,
		})
		return
	}

	crossPrice, crosses := s.crossingPrice(side, orderType, price, hasPrice)

	acceptedPrice := price
	if crosses {
		acceptedPrice = crossPrice
	} else if !hasPrice {
		acceptedPrice = 0
	}
	*out = append(*out, types.ExecutionReport{
		Coid: coid, Status: types.StatusAccepted, LastFillPrice: acceptedPrice, TsNs: s.nextTs(), Symbol: symbol, Side: side,
	})

	if crosses {
		*out = append(*out, types.ExecutionReport{
			Coid: coid, Status: types.StatusFilled, CumulativeFilledQty: qty,
			LastFillPrice: crossPrice, FeeTicks: s.takerFeeTicks, TsNs: s.nextTs(), Symbol: symbol, Side: side,
		})
		return
	}

	if orderType == types.Limit {
		s.live[coid] = &liveOrder{symbol: symbol, side: side, price: price, hasPrice: true, qty: qty}
	}
}

func (s *Simulator) handleCancel(coid types.ClientOrderId, out *[]types.ExecutionReport) {
	lo, ok := s.live[coid]
	if !ok {
		return
	}
	delete(s.live, coid)
	*out = append(*out, types.ExecutionReport{
		Coid: coid, Status: types.StatusCanceled, TsNs: s.nextTs(), Symbol: lo.symbol, Side: lo.side,
	})
}

func (s *Simulator) handleReplace(req types.OrderRequest, out *[]types.ExecutionReport) {
	lo, ok := s.live[req.Coid]
	if !ok {
		return
	}
	delete(s.live, req.Coid)
	s.handlePlace(req.Coid, lo.symbol, lo.side, types.Limit, req.NewPrice, true, req.NewQty, out)
}

// OnBookUpdate sweeps resting orders whose limit now crosses the current
// top-of-book, filling each at the opposite top-of-book price. Candidates
// are sorted by ascending client order id before emission so the result
// never depends on map iteration order.
func (s *Simulator) OnBookUpdate(out *[]types.ExecutionReport) {
	bestBid, hasBid := s.book.BestBid()
	bestAsk, hasAsk := s.book.BestAsk()

	candidates := make([]types.ClientOrderId, 0, len(s.live))
	for coid, lo := range s.live {
		if lo.side == core.Bid && hasAsk && lo.price.Ticks() >= bestAsk.Price.Ticks() {
			candidates = append(candidates, coid)
		} else if lo.side == core.Ask && hasBid && lo.price.Ticks() <= bestBid.Price.Ticks() {
			candidates = append(candidates, coid)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	if len(candidates) > MaxPassiveFillsPerEvent {
		candidates = candidates[:MaxPassiveFillsPerEvent]
	}

	for _, coid := range candidates {
		lo := s.live[coid]
		delete(s.live, coid)
		fillPrice := bestAsk.Price
		if lo.side == core.Ask {
			fillPrice = bestBid.Price
		}
		*out = append(*out, types.ExecutionReport{
			Coid: coid, Status: types.StatusFilled, CumulativeFilledQty: lo.qty,
			LastFillPrice: fillPrice, FeeTicks: s.makerFeeTicks, TsNs: s.nextTs(), Symbol: lo.symbol, Side: lo.side,
		})
	}
}
