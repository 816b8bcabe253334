// Package strategy defines the pluggable strategy API and its built-ins.
// Each callback appends intents to an output buffer rather than returning
// them, so the engine retains sole ownership of the intent queue a
// strategy can never call back into the engine directly.
package strategy

import (
	"lobkernel/internal/core"
	"lobkernel/internal/types"
)

// Strategy is a stateful plug-in receiving context snapshots and market
// data, execution reports, and timer ticks. It reacts by appending zero
// or more intents to out.
type Strategy interface {
	OnMarketEvent(ctx types.ContextSnapshot, event core.MarketEvent, out *[]types.Intent)
	OnTimer(ctx types.ContextSnapshot, out *[]types.Intent)
	OnExecutionReport(ctx types.ContextSnapshot, report types.ExecutionReport, out *[]types.Intent)
}

// Noop never emits an intent from any callback.
type Noop struct{}

func (Noop) OnMarketEvent(types.ContextSnapshot, core.MarketEvent, *[]types.Intent)   {}
func (Noop) OnTimer(types.ContextSnapshot, *[]types.Intent)                          {}
func (Noop) OnExecutionReport(types.ContextSnapshot, types.ExecutionReport, *[]types.Intent) {}
