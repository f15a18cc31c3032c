package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetKind represents the market an asset is traded on
type AssetKind string

const (
	AssetKindStock  AssetKind = "STOCK"
	AssetKindCrypto AssetKind = "CRYPTO"
)

// Asset represents a tradable asset snapshot in the domain layer
// Prices and percentage changes are refreshed out-of-band by the price fetchers;
// the valuation engine only reads them.
type Asset struct {
	ID                uuid.UUID
	Symbol            string
	Name              string
	Kind              AssetKind
	CurrentPrice      decimal.Decimal
	Currency          string
	PriceChangePct1h  decimal.NullDecimal
	PriceChangePct24h decimal.NullDecimal
	PriceChangePct7d  decimal.NullDecimal
	PriceChangePct30d decimal.NullDecimal
	PriceChangePct1y  decimal.NullDecimal
	PriceChangePctMax decimal.NullDecimal
	MarketCap         decimal.NullDecimal
	MarketCapRank     *int
	UpdatedAt         time.Time
}

// Change24h returns the 24h percentage change, treating a missing value as zero
func (a *Asset) Change24h() decimal.Decimal {
	if !a.PriceChangePct24h.Valid {
		return decimal.Zero
	}
	return a.PriceChangePct24h.Decimal
}

// Validate ensures the asset snapshot is usable for valuation
func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return errors.New("asset symbol cannot be empty")
	}
	if a.Kind != AssetKindStock && a.Kind != AssetKindCrypto {
		return errors.New("asset kind must be STOCK or CRYPTO")
	}
	if a.CurrentPrice.IsNegative() {
		return errors.New("asset current price cannot be negative")
	}
	return nil
}
