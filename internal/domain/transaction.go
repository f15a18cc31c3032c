package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the side of a ledger entry
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// Transaction represents a single buy or sell ledger entry against one asset
// within one portfolio
type Transaction struct {
	ID           uuid.UUID
	PortfolioID  uuid.UUID
	AssetID      uuid.UUID
	Type         TransactionType
	Amount       decimal.Decimal // quantity, always positive
	PricePerUnit decimal.Decimal
	Date         time.Time
	Description  string
}

// Value returns Amount x PricePerUnit
func (t *Transaction) Value() decimal.Decimal {
	return t.Amount.Mul(t.PricePerUnit)
}

// SignedAmount returns the quantity delta the entry applies to holdings
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeSell {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate ensures the transaction adheres to ledger rules
// Oversell is not checked here: it depends on the rest of the ledger.
func (t *Transaction) Validate() error {
	if t.Type != TransactionTypeBuy && t.Type != TransactionTypeSell {
		return ErrInvalidTransactionType
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if t.PricePerUnit.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}

	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrValidation)
	}

	return nil
}
