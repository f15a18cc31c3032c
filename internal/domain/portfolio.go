package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Portfolio represents a user-owned collection of watched assets and transactions
type Portfolio struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Color       string
	Kind        AssetKind
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time // bumped by every ledger write
}

// Validate ensures the portfolio adheres to domain rules
func (p *Portfolio) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: portfolio title cannot be empty", ErrValidation)
	}
	if len(p.Title) > 64 {
		return fmt.Errorf("%w: portfolio title cannot exceed 64 characters", ErrValidation)
	}
	if p.Color == "" {
		return fmt.Errorf("%w: portfolio color cannot be empty", ErrValidation)
	}
	if p.Kind != AssetKindStock && p.Kind != AssetKindCrypto {
		return fmt.Errorf("%w: portfolio kind must be STOCK or CRYPTO", ErrValidation)
	}
	return nil
}

// WatchedAsset records that an asset is tracked inside a portfolio
// Its presence is what makes the asset count toward portfolio aggregates.
type WatchedAsset struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Asset       Asset
}
