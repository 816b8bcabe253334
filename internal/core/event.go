package core

import "fmt"

// LevelUpdate describes a single price-level change within an L2Delta
// event. A zero Qty removes the level.
type LevelUpdate struct {
	Side  Side
	Price Price
	Qty   Qty
}

// IsRemove reports whether this update removes its (side, price) level.
func (u LevelUpdate) IsRemove() bool {
	return u.Qty.IsZero()
}

func (u LevelUpdate) String() string {
	if u.IsRemove() {
		return fmt.Sprintf("remove(%s@%d)", u.Side, u.Price.Ticks())
	}
	return fmt.Sprintf("%s@%d=%d", u.Side, u.Price.Ticks(), u.Qty.Lots())
}

// EventKind tags a MarketEvent's variant.
type EventKind int

const (
	KindL2Delta EventKind = iota
	KindL2Snapshot
)

// PriceQty is a (Price, Qty) pair, used for the wholesale levels carried
// by an L2Snapshot.
type PriceQty struct {
	Price Price
	Qty   Qty
}

// MarketEvent is the tagged union of level-2 market data events: either an
// incremental delta or a wholesale snapshot of both book sides.
type MarketEvent struct {
	Kind   EventKind
	TsNs   uint64
	Symbol SymbolId

	// Populated when Kind == KindL2Delta.
	Updates []LevelUpdate

	// Populated when Kind == KindL2Snapshot.
	Bids []PriceQty
	Asks []PriceQty
}

// NewL2Delta builds a delta event.
func NewL2Delta(tsNs uint64, symbol SymbolId, updates []LevelUpdate) MarketEvent {
	return MarketEvent{Kind: KindL2Delta, TsNs: tsNs, Symbol: symbol, Updates: updates}
}

// NewL2Snapshot builds a snapshot event.
func NewL2Snapshot(tsNs uint64, symbol SymbolId, bids, asks []PriceQty) MarketEvent {
	return MarketEvent{Kind: KindL2Snapshot, TsNs: tsNs, Symbol: symbol, Bids: bids, Asks: asks}
}

func (e MarketEvent) String() string {
	switch e.Kind {
	case KindL2Delta:
		return fmt.Sprintf("l2_delta{ts=%d sym=%d updates=%d}", e.TsNs, e.Symbol, len(e.Updates))
	case KindL2Snapshot:
		return fmt.Sprintf("l2_snapshot{ts=%d sym=%d bids=%d asks=%d}", e.TsNs, e.Symbol, len(e.Bids), len(e.Asks))
	default:
		return "unknown_event"
	}
}
