// Package book implements the aggregate level-2 order book: two
// price-ordered maps per symbol, adapted from the teacher's
// internal/engine/orderbook.go price-level btree into a flatter
// Price->Qty aggregate as the specification requires (no per-order queue,
// only total resting quantity at each price).
package book

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"lobkernel/internal/core"
)

type level struct {
	price core.Price
	qty   core.Qty
}

// OrderBook is a per-symbol aggregate L2 book: two ordered maps of
// Price->Qty, bids descending and asks ascending, so top-of-book is
// always the btree's minimum item under each comparator.
type OrderBook struct {
	symbolID core.SymbolId
	bids     *btree.BTreeG[level]
	asks     *btree.BTreeG[level]
	log      zerolog.Logger
}

// New constructs an empty book for symbolID. A disabled logger is used
// when log is the zero value, following the teacher's optional-logger
// pattern.
func New(symbolID core.SymbolId, log zerolog.Logger) *OrderBook {
	bids := btree.NewBTreeG(func(a, b level) bool {
		return a.price > b.price // descending: best bid first
	})
	asks := btree.NewBTreeG(func(a, b level) bool {
		return a.price < b.price // ascending: best ask first
	})
	return &OrderBook{symbolID: symbolID, bids: bids, asks: asks, log: log}
}

// SymbolId returns the symbol this book tracks.
func (b *OrderBook) SymbolId() core.SymbolId {
	return b.symbolID
}

func (b *OrderBook) sideTree(side core.Side) *btree.BTreeG[level] {
	if side == core.Bid {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) setLevel(side core.Side, price core.Price, qty core.Qty) {
	tree := b.sideTree(side)
	if qty.IsZero() {
		tree.Delete(level{price: price})
		return
	}
	tree.Set(level{price: price, qty: qty})
}

// Apply applies a market event to the book, returning true if the event's
// symbol matched (the event is "applicable") and false otherwise — a
// symbol mismatch is silently ignored, never an error.
func (b *OrderBook) Apply(event core.MarketEvent) bool {
	if event.Symbol != b.symbolID {
		return false
	}
	switch event.Kind {
	case core.KindL2Snapshot:
		b.applySnapshot(event)
	case core.KindL2Delta:
		b.applyDelta(event)
	default:
		return false
	}
	return true
}

// applySnapshot replaces both sides wholesale. Zero-qty entries in the
// supplied levels are dropped rather than inserted, per the open-question
// resolution in the specification: a snapshot never carries empty levels.
func (b *OrderBook) applySnapshot(event core.MarketEvent) {
	newBids := btree.NewBTreeG(b.bids.Less)
	for _, pq := range event.Bids {
		if pq.Qty.IsZero() {
			continue
		}
		newBids.Set(level{price: pq.Price, qty: pq.Qty})
	}
	newAsks := btree.NewBTreeG(b.asks.Less)
	for _, pq := range event.Asks {
		if pq.Qty.IsZero() {
			continue
		}
		newAsks.Set(level{price: pq.Price, qty: pq.Qty})
	}
	b.bids = newBids
	b.asks = newAsks
}

func (b *OrderBook) applyDelta(event core.MarketEvent) {
	for _, u := range event.Updates {
		b.setLevel(u.Side, u.Price, u.Qty)
	}
}

// BestBid returns the highest bid level, if any.
func (b *OrderBook) BestBid() (core.PriceQty, bool) {
	top, ok := b.bids.Min()
	if !ok {
		return core.PriceQty{}, false
	}
	return core.PriceQty{Price: top.price, Qty: top.qty}, true
}

// BestAsk returns the lowest ask level, if any.
func (b *OrderBook) BestAsk() (core.PriceQty, bool) {
	top, ok := b.asks.Min()
	if !ok {
		return core.PriceQty{}, false
	}
	return core.PriceQty{Price: top.price, Qty: top.qty}, true
}

// Spread returns ask.Price - bid.Price when both sides are present and the
// ask is strictly above the bid; otherwise it is absent.
func (b *OrderBook) Spread() (int64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	if ask.Price.Ticks() <= bid.Price.Ticks() {
		return 0, false
	}
	return ask.Price.Ticks() - bid.Price.Ticks(), true
}

// Levels returns a snapshot slice of (price, qty) for the given side, in
// best-first order. Intended for tests and diagnostic printing, not the
// hot path.
func (b *OrderBook) Levels(side core.Side) []core.PriceQty {
	tree := b.sideTree(side)
	out := make([]core.PriceQty, 0, tree.Len())
	tree.Scan(func(l level) bool {
		out = append(out, core.PriceQty{Price: l.price, Qty: l.qty})
		return true
	})
	return out
}
