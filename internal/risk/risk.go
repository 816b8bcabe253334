// Package risk implements the composable risk policy pipeline: an ordered
// chain of policies that can allow, transform, or reject a strategy
// intent before it reaches the OMS.
package risk

import (
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// ActionKind tags a policy's verdict.
type ActionKind int

const (
	Allow ActionKind = iota
	Transform
	Reject
)

// Action is a policy's verdict on an intent.
type Action struct {
	Kind   ActionKind
	Intent types.Intent // populated for Allow/Transform
	Reason string       // populated for Reject
}

func allow(i types.Intent) Action    { return Action{Kind: Allow, Intent: i} }
func transform(i types.Intent) Action { return Action{Kind: Transform, Intent: i} }
func reject(reason string) Action    { return Action{Kind: Reject, Reason: reason} }

// Policy evaluates a single intent against a context snapshot.
type Policy interface {
	Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action
}

// Engine is an ordered sequence of policies, folded left to right.
type Engine struct {
	policies []Policy
}

// New constructs an engine with the given policies, evaluated in order.
func New(policies ...Policy) *Engine {
	return &Engine{policies: policies}
}

// WithPolicy appends a policy and returns the engine, mirroring a builder
// style for assembling a chain incrementally.
func (e *Engine) WithPolicy(p Policy) *Engine {
	e.policies = append(e.policies, p)
	return e
}

// Evaluate feeds intent through every policy in order. A Reject from any
// policy short-circuits the chain; Allow/Transform substitute the
// returned intent as the new current value and continue.
func (e *Engine) Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action {
	current := intent
	for _, p := range e.policies {
		action := p.Evaluate(ctx, current)
		if action.Kind == Reject {
			return action
		}
		current = action.Intent
	}
	return allow(current)
}

// MaxPosition rejects PlaceLimit intents that would push the projected
// position beyond limit lots in either direction. A zero limit rejects
// every place intent unconditionally.
type MaxPosition struct {
	Limit int64
}

func (m MaxPosition) Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action {
	if intent.Kind != types.IntentPlaceLimit {
		return allow(intent)
	}
	if m.Limit == 0 {
		return reject("max position limit is zero")
	}
	delta := intent.Qty.Lots()
	if intent.Side == core.Ask {
		delta = -delta
	}
	projected := ctx.PositionLots + delta
	if abs64(projected) > abs64(m.Limit) {
		return reject("projected position exceeds max position limit")
	}
	return allow(intent)
}

// PriceBand rejects PlaceLimit intents whose price is further than
// MaxDistance ticks from the context mid price. Intents are allowed when
// no mid price is available.
type PriceBand struct {
	MaxDistance int64
}

func (b PriceBand) Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action {
	if intent.Kind != types.IntentPlaceLimit {
		return allow(intent)
	}
	mid, ok := ctx.MidPrice()
	if !ok {
		return allow(intent)
	}
	distance := intent.Price.Ticks() - mid.Ticks()
	if abs64(distance) > b.MaxDistance {
		return reject("price outside configured band")
	}
	return allow(intent)
}

// RateLimit enforces a maximum number of order intents (place/cancel/
// replace) per one-second bucket of event time, ctx.TsNs / 1e9. A zero
// MaxPerSec rejects every order intent.
type RateLimit struct {
	MaxPerSec int64

	bucket uint64
	count  int64
}

func isOrderIntent(kind types.IntentKind) bool {
	switch kind {
	case types.IntentPlaceLimit, types.IntentCancel, types.IntentReplace:
		return true
	default:
		return false
	}
}

func (r *RateLimit) Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action {
	if !isOrderIntent(intent.Kind) {
		return allow(intent)
	}
	bucket := ctx.TsNs / 1_000_000_000
	if bucket != r.bucket {
		r.bucket = bucket
		r.count = 0
	}
	if r.MaxPerSec == 0 {
		return reject("rate limit is zero")
	}
	if r.count+1 > r.MaxPerSec {
		return reject("rate limit exceeded")
	}
	r.count++
	return allow(intent)
}

// MaxOrderQty clamps PlaceLimit intents whose quantity exceeds Limit lots
// down to Limit instead of rejecting them outright. A non-positive Limit
// disables the policy.
type MaxOrderQty struct {
	Limit int64
}

func (m MaxOrderQty) Evaluate(ctx types.ContextSnapshot, intent types.Intent) Action {
	if intent.Kind != types.IntentPlaceLimit || m.Limit <= 0 {
		return allow(intent)
	}
	if intent.Qty.Lots() <= m.Limit {
		return allow(intent)
	}
	clamped, _ := core.NewQty(m.Limit)
	intent.Qty = clamped
	return transform(intent)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
