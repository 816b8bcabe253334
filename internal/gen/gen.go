// Package gen implements the synthetic tape generator used by the `gen`
// CLI subcommand: a deterministic pseudo-random walk over bid/ask levels
// around a starting mid price, external to the core simulation pipeline
// per the specification's scope (the core never generates data, only
// consumes it).
package gen

import (
	"math/rand"

	"lobkernel/internal/codec"
	"lobkernel/internal/core"
)

// Config controls a generation run. All fields are required to produce a
// deterministic tape: the same Config (including Seed) always produces
// byte-identical output.
type Config struct {
	Symbol        string
	Events        int
	Seed          int64
	SnapshotFirst bool
	StartMid      int64
	TickStep      int64
	LevelsPerSide int
	MaxQty        int64
}

// DefaultConfig returns reasonable generation defaults, leaving Symbol,
// Events, and Seed for the caller to set.
func DefaultConfig() Config {
	return Config{
		StartMid:      10_000,
		TickStep:      1,
		LevelsPerSide: 5,
		MaxQty:        100,
	}
}

// Generator produces a deterministic MarketEvent stream from a Config. It
// holds no package-level state: two Generators built from the same Config
// produce identical output, satisfying replay determinism.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	symbol core.SymbolId
	mid    int64
	tsNs   uint64
}

// New constructs a generator bound to symbol (interned into table) and
// seeded deterministically from cfg.Seed.
func New(cfg Config, table *core.SymbolTable) (*Generator, error) {
	symbol, err := table.Intern(cfg.Symbol)
	if err != nil {
		return nil, err
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		symbol: symbol,
		mid:    cfg.StartMid,
	}, nil
}

func (g *Generator) nextTs() uint64 {
	g.tsNs++
	return g.tsNs
}

// leadingSnapshot builds the initial L2Snapshot around the starting mid
// price, with LevelsPerSide price levels spaced TickStep apart on each
// side.
func (g *Generator) leadingSnapshot() core.MarketEvent {
	bids := make([]core.PriceQty, 0, g.cfg.LevelsPerSide)
	asks := make([]core.PriceQty, 0, g.cfg.LevelsPerSide)
	for i := 1; i <= g.cfg.LevelsPerSide; i++ {
		bidTicks := g.mid - int64(i)*g.cfg.TickStep
		askTicks := g.mid + int64(i)*g.cfg.TickStep
		if bidTicks < 0 {
			bidTicks = 0
		}
		qty := g.randQty()
		bp, _ := core.NewPrice(bidTicks)
		ap, _ := core.NewPrice(askTicks)
		q, _ := core.NewQty(qty)
		bids = append(bids, core.PriceQty{Price: bp, Qty: q})
		asks = append(asks, core.PriceQty{Price: ap, Qty: q})
	}
	return core.NewL2Snapshot(g.nextTs(), g.symbol, bids, asks)
}

func (g *Generator) randQty() int64 {
	max := g.cfg.MaxQty
	if max < 1 {
		max = 1
	}
	return 1 + g.rng.Int63n(max)
}

// nextDelta produces a single random one-level update: a coin flip for
// side, a small random-walk step of the mid (-TickStep, 0 or +TickStep), a
// random offset from that mid of 1..LevelsPerSide times TickStep, and
// either a fresh random quantity or a zero-quantity removal.
func (g *Generator) nextDelta() core.MarketEvent {
	side := core.Bid
	if g.rng.Intn(2) == 1 {
		side = core.Ask
	}

	step := int64(g.rng.Intn(3)-1) * g.cfg.TickStep // -tick, 0, +tick
	g.mid += step
	if g.mid < 0 {
		g.mid = 0
	}

	offset := int64(1+g.rng.Intn(g.cfg.LevelsPerSide)) * g.cfg.TickStep
	var ticks int64
	if side == core.Bid {
		ticks = g.mid - offset
	} else {
		ticks = g.mid + offset
	}
	if ticks < 0 {
		ticks = 0
	}

	removes := g.rng.Intn(10) == 0 // occasional level removal
	qty := int64(0)
	if !removes {
		qty = g.randQty()
	}

	price, _ := core.NewPrice(ticks)
	q, _ := core.NewQty(qty)
	update := core.LevelUpdate{Side: side, Price: price, Qty: q}
	return core.NewL2Delta(g.nextTs(), g.symbol, []core.LevelUpdate{update})
}

// Events returns the full deterministic sequence of cfg.Events generated
// events, with an optional leading snapshot.
func (g *Generator) Events() []core.MarketEvent {
	events := make([]core.MarketEvent, 0, g.cfg.Events+1)
	if g.cfg.SnapshotFirst {
		events = append(events, g.leadingSnapshot())
	}
	for i := 0; i < g.cfg.Events; i++ {
		events = append(events, g.nextDelta())
	}
	return events
}

// Format selects the on-disk encoding for generated output.
type Format int

const (
	FormatText Format = iota
	FormatBinary
)

// EncodeAll encodes every event in events using the given format, one
// record per event, returning the concatenated bytes (one newline-terminated
// line per event for text, back-to-back framed records for binary) ready to
// write to a file.
func EncodeAll(events []core.MarketEvent, table *core.SymbolTable, format Format) ([]byte, error) {
	var out []byte
	for _, event := range events {
		switch format {
		case FormatBinary:
			record, err := codec.EncodeEventBinRecord(event, table)
			if err != nil {
				return nil, err
			}
			out = append(out, record...)
		default:
			line, err := codec.EncodeEventJSONLine(event, table)
			if err != nil {
				return nil, err
			}
			out = append(out, line...)
			out = append(out, '\n')
		}
	}
	return out, nil
}
