package core

import "errors"

// Error taxonomy for domain construction, per the error handling design:
// every rejected construction is returned to the caller, never panicked.
var (
	ErrInvalidSide   = errors.New("core: invalid side")
	ErrInvalidSymbol = errors.New("core: invalid symbol")
	ErrInvalidPrice  = errors.New("core: invalid price")
	ErrInvalidQty    = errors.New("core: invalid qty")
)
