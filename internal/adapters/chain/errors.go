package chain

import "errors"

// Sentinel kinds for chain subscription errors.
var (
	ErrBadAddress = errors.New("invalid contract address")
	ErrBadURL     = errors.New("invalid feed url")
	ErrClosed     = errors.New("subscription closed")
)
