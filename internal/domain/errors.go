package domain

import "errors"

// Validation errors raised by the ledger-write path. The transport layer maps them
// to client errors with errors.Is.
var (
	ErrValidation             = errors.New("invalid input")
	ErrInvalidAmount          = errors.New("transaction amount must be positive")
	ErrInvalidPrice           = errors.New("price per unit must be positive")
	ErrInvalidTransactionType = errors.New("transaction type must be BUY or SELL")
	ErrOversell               = errors.New("sell amount exceeds holdings")
	ErrAssetNotWatched        = errors.New("asset is not watched in portfolio")
	ErrAlreadyWatched         = errors.New("asset already watched in portfolio")
	ErrNotFound               = errors.New("not found")
)
