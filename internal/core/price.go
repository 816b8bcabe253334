package core

import "fmt"

// Price is a non-negative integer tick count. Total order is numeric.
type Price int64

// NewPrice rejects negative tick values.
func NewPrice(ticks int64) (Price, error) {
	if ticks < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPrice, ticks)
	}
	return Price(ticks), nil
}

// Ticks returns the raw integer tick count.
func (p Price) Ticks() int64 {
	return int64(p)
}

// Qty is a non-negative integer lot count. A zero Qty is the sentinel for
// "remove this level" inside a LevelUpdate.
type Qty int64

// NewQty rejects negative lot values.
func NewQty(lots int64) (Qty, error) {
	if lots < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQty, lots)
	}
	return Qty(lots), nil
}

// Lots returns the raw integer lot count.
func (q Qty) Lots() int64 {
	return int64(q)
}

// IsZero reports whether this Qty is the remove-level sentinel.
func (q Qty) IsZero() bool {
	return q == 0
}
