// Package types holds the trading vocabulary shared by the OMS, risk
// engine, strategy API, and venue simulator: client order identity,
// intents, requests, and execution reports.
package types

import (
	"fmt"

	"lobkernel/internal/core"
)

// ClientOrderId is a monotonically increasing identifier assigned by the
// OMS at intent-to-request translation time.
type ClientOrderId uint64

// OrderTag is an optional free-text label a strategy attaches to an
// order it places, useful for correlating fills back to intent.
type OrderTag string

// TimeInForce controls how long a resting order remains eligible to match.
type TimeInForce int

const (
	GTC TimeInForce = iota
	IOC
	FOK
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "gtc"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "unknown"
	}
}

// OrderType distinguishes resting limit orders from immediate market orders.
type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Market {
		return "market"
	}
	return "limit"
}

// OrderStatus is the venue-reported lifecycle stage of an order.
type OrderStatus int

const (
	StatusNew OrderStatus = iota
	StatusAccepted
	StatusWorking
	StatusPartiallyFilled
	StatusFilled
	StatusCanceled
	StatusRejected
	StatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusAccepted:
		return "accepted"
	case StatusWorking:
		return "working"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCanceled:
		return "canceled"
	case StatusRejected:
		return "rejected"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCanceled, StatusFilled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// IntentKind tags an Intent's variant.
type IntentKind int

const (
	IntentPlaceLimit IntentKind = iota
	IntentCancel
	IntentReplace
)

// Intent is the strategy-to-engine instruction type: place a new limit
// order, cancel a resting one, or replace its price/qty.
type Intent struct {
	Kind IntentKind

	// PlaceLimit fields.
	Symbol core.SymbolId
	Side   core.Side
	Price  core.Price
	Qty    core.Qty
	Tif    TimeInForce
	Tag    OrderTag
	HasTag bool

	// Cancel / Replace fields.
	Coid     ClientOrderId
	NewPrice core.Price
	NewQty   core.Qty
}

// PlaceLimit builds a place-limit intent.
func PlaceLimit(symbol core.SymbolId, side core.Side, price core.Price, qty core.Qty, tif TimeInForce, tag OrderTag, hasTag bool) Intent {
	return Intent{Kind: IntentPlaceLimit, Symbol: symbol, Side: side, Price: price, Qty: qty, Tif: tif, Tag: tag, HasTag: hasTag}
}

// CancelIntent builds a cancel intent.
func CancelIntent(coid ClientOrderId) Intent {
	return Intent{Kind: IntentCancel, Coid: coid}
}

// ReplaceIntent builds a replace intent.
func ReplaceIntent(coid ClientOrderId, newPrice core.Price, newQty core.Qty) Intent {
	return Intent{Kind: IntentReplace, Coid: coid, NewPrice: newPrice, NewQty: newQty}
}

// RequestKind tags an OrderRequest's variant.
type RequestKind int

const (
	RequestPlace RequestKind = iota
	RequestCancel
	RequestReplace
)

// OrderRequest is the OMS-to-venue instruction produced from an Intent
// once a ClientOrderId has been minted (or resolved).
type OrderRequest struct {
	Kind RequestKind
	Coid ClientOrderId
	TsNs uint64

	// Place fields.
	Symbol    core.SymbolId
	Side      core.Side
	OrderType OrderType
	Price     core.Price
	HasPrice  bool
	Qty       core.Qty
	Tif       TimeInForce

	// Replace fields.
	NewPrice core.Price
	NewQty   core.Qty
}

// ExecutionReport is a venue-to-engine fill/lifecycle notification.
// CumulativeFilledQty is monotonic per Coid.
type ExecutionReport struct {
	Coid                ClientOrderId
	Status              OrderStatus
	CumulativeFilledQty core.Qty
	LastFillPrice       core.Price
	FeeTicks            int64
	TsNs                uint64
	Symbol              core.SymbolId
	Side                core.Side
}

// ContextSnapshot is the read-only view given to strategy and risk
// callbacks at each entry point.
type ContextSnapshot struct {
	TsNs            uint64
	Symbol          core.SymbolId
	BestBid         *core.PriceQty
	BestAsk         *core.PriceQty
	PositionLots    int64
	OpenOrdersCount uint64
}

// MidPrice returns floor((bid+ask)/2) when both sides are present.
func (c ContextSnapshot) MidPrice() (core.Price, bool) {
	if c.BestBid == nil || c.BestAsk == nil {
		return 0, false
	}
	sum := c.BestBid.Price.Ticks() + c.BestAsk.Price.Ticks()
	return core.Price(sum / 2), true
}

// String renders a one-line summary of an execution report, in the spirit
// of the teacher's Order/Trade Display conveniences, for use by CLI
// logging rather than anything the core touches.
func (r ExecutionReport) String() string {
	return fmt.Sprintf(
		"coid=%d status=%s qty=%d price=%d fee=%d sym=%d side=%s ts=%d",
		r.Coid, r.Status, r.CumulativeFilledQty.Lots(), r.LastFillPrice.Ticks(), r.FeeTicks, r.Symbol, r.Side, r.TsNs,
	)
}

// NewContextSnapshot builds a snapshot, pre-deriving nothing beyond what's
// passed in; MidPrice is computed lazily by callers via the method above.
func NewContextSnapshot(tsNs uint64, symbol core.SymbolId, bestBid, bestAsk *core.PriceQty, positionLots int64, openOrders uint64) ContextSnapshot {
	return ContextSnapshot{
		TsNs:            tsNs,
		Symbol:          symbol,
		BestBid:         bestBid,
		BestAsk:         bestAsk,
		PositionLots:    positionLots,
		OpenOrdersCount: openOrders,
	}
}
