// Package oms implements the client-order registry: translating strategy
// intents into venue requests, and reducing venue execution reports back
// into order state, idempotently over duplicate/stale reports.
package oms

import (
	"github.com/rs/zerolog"

	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// State is the OMS-local lifecycle stage for a client order.
type State int

const (
	PendingNew State = iota
	Live
	PendingCancel
	Canceled
	Filled
	Rejected
)

func (s State) String() string {
	switch s {
	case PendingNew:
		return "pending_new"
	case Live:
		return "live"
	case PendingCancel:
		return "pending_cancel"
	case Canceled:
		return "canceled"
	case Filled:
		return "filled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further state transitions are expected.
func (s State) IsTerminal() bool {
	switch s {
	case Canceled, Filled, Rejected:
		return true
	default:
		return false
	}
}

type entry struct {
	state     State
	filledQty core.Qty
}

// OMS is the client-order registry. Entries are never removed once
// created — terminal orders stay resident for idempotency checks against
// late or duplicate execution reports.
type OMS struct {
	nextCoid       types.ClientOrderId
	orders         map[types.ClientOrderId]*entry
	openOrders     uint64
	orphanReports  uint64
	log            zerolog.Logger
}

// New constructs an empty OMS. Coids are minted starting at 1.
func New(log zerolog.Logger) *OMS {
	return &OMS{
		nextCoid: 1,
		orders:   make(map[types.ClientOrderId]*entry),
		log:      log,
	}
}

// OpenOrdersCount returns the number of orders currently in a non-terminal
// state.
func (o *OMS) OpenOrdersCount() uint64 {
	return o.openOrders
}

// OrphanReports returns the number of execution reports received for an
// unknown client order id.
func (o *OMS) OrphanReports() uint64 {
	return o.orphanReports
}

// State returns the current lifecycle state for coid, if known.
func (o *OMS) State(coid types.ClientOrderId) (State, bool) {
	e, ok := o.orders[coid]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// FilledQty returns the last recorded cumulative filled quantity for coid.
func (o *OMS) FilledQty(coid types.ClientOrderId) (core.Qty, bool) {
	e, ok := o.orders[coid]
	if !ok {
		return 0, false
	}
	return e.filledQty, true
}

// ApplyIntent translates a strategy intent into an OrderRequest, updating
// local order state. Returns ok=false when there is nothing to send (e.g.
// cancel/replace against an unknown coid).
func (o *OMS) ApplyIntent(intent types.Intent, tsNs uint64) (types.OrderRequest, bool) {
	switch intent.Kind {
	case types.IntentPlaceLimit:
		coid := o.nextCoid
		o.nextCoid++
		o.orders[coid] = &entry{state: PendingNew}
		o.openOrders++
		return types.OrderRequest{
			Kind:      types.RequestPlace,
			Coid:      coid,
			TsNs:      tsNs,
			Symbol:    intent.Symbol,
			Side:      intent.Side,
			OrderType: types.Limit,
			Price:     intent.Price,
			HasPrice:  true,
			Qty:       intent.Qty,
			Tif:       intent.Tif,
		}, true

	case types.IntentCancel:
		e, ok := o.orders[intent.Coid]
		if !ok {
			return types.OrderRequest{}, false
		}
		if !e.state.IsTerminal() {
			o.transition(intent.Coid, e, PendingCancel)
		}
		return types.OrderRequest{Kind: types.RequestCancel, Coid: intent.Coid, TsNs: tsNs}, true

	case types.IntentReplace:
		e, ok := o.orders[intent.Coid]
		if !ok {
			return types.OrderRequest{}, false
		}
		if !e.state.IsTerminal() {
			o.transition(intent.Coid, e, PendingNew)
		}
		return types.OrderRequest{
			Kind:     types.RequestReplace,
			Coid:     intent.Coid,
			TsNs:     tsNs,
			NewPrice: intent.NewPrice,
			NewQty:   intent.NewQty,
		}, true

	default:
		return types.OrderRequest{}, false
	}
}

// OnExecutionReport reduces a venue execution report into OMS state.
// Unknown coids count as orphans. Stale reports (cumulative qty going
// backwards) are ignored. A report that changes neither the mapped state
// nor the cumulative qty is a no-op, making repeated delivery idempotent.
func (o *OMS) OnExecutionReport(report types.ExecutionReport) {
	e, ok := o.orders[report.Coid]
	if !ok {
		o.orphanReports++
		return
	}
	prev := e.filledQty
	next := report.CumulativeFilledQty
	if next.Lots() < prev.Lots() {
		return
	}
	newState := mapStatus(report.Status)
	if next.Lots() == prev.Lots() && newState == e.state {
		return
	}
	e.filledQty = next
	o.transition(report.Coid, e, newState)
}

func (o *OMS) transition(coid types.ClientOrderId, e *entry, next State) {
	wasTerminal := e.state.IsTerminal()
	e.state = next
	nowTerminal := e.state.IsTerminal()
	if !wasTerminal && nowTerminal {
		if o.openOrders > 0 {
			o.openOrders--
		}
	} else if wasTerminal && !nowTerminal {
		o.openOrders++
	}
}

func mapStatus(status types.OrderStatus) State {
	switch status {
	case types.StatusNew:
		return PendingNew
	case types.StatusAccepted, types.StatusWorking, types.StatusPartiallyFilled:
		return Live
	case types.StatusCanceled, types.StatusExpired:
		return Canceled
	case types.StatusFilled:
		return Filled
	case types.StatusRejected:
		return Rejected
	default:
		return PendingNew
	}
}
