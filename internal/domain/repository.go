package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// ListByOwner retrieves the portfolios of one user, newest first
	// If kind is empty, portfolios of every kind are returned
	ListByOwner(ctx context.Context, ownerID uuid.UUID, kind AssetKind) ([]*Portfolio, error)

	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error

	// Update replaces the title, description, color and visibility of a portfolio
	Update(ctx context.Context, portfolio *Portfolio) error

	// Delete deletes a portfolio together with its transactions and watched assets
	Delete(ctx context.Context, id uuid.UUID) error

	// Touch bumps UpdatedAt after a ledger write
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TransactionRepository defines the interface for ledger persistence operations
type TransactionRepository interface {
	// GetByID retrieves one transaction of a portfolio
	GetByID(ctx context.Context, portfolioID, id uuid.UUID) (*Transaction, error)

	// List retrieves the transactions of a portfolio ordered by date ascending
	// If assetID is nil, transactions of every asset are returned
	List(ctx context.Context, portfolioID uuid.UUID, assetID *uuid.UUID) ([]*Transaction, error)

	// Create creates a new transaction
	Create(ctx context.Context, tx *Transaction) error

	// Update replaces the economic fields of an existing transaction
	Update(ctx context.Context, tx *Transaction) error

	// Delete deletes one transaction
	Delete(ctx context.Context, portfolioID, id uuid.UUID) error

	// DeleteByAsset deletes every transaction of one asset in a portfolio
	DeleteByAsset(ctx context.Context, portfolioID, assetID uuid.UUID) error

	// WithLedgerLock runs fn while holding an exclusive lock on the portfolio's
	// ledger. Repository calls made with the context passed to fn share one
	// atomic unit of work that commits only if fn returns nil.
	WithLedgerLock(ctx context.Context, portfolioID uuid.UUID, fn func(ctx context.Context) error) error
}

// WatchedAssetRepository defines the interface for watched asset persistence operations
type WatchedAssetRepository interface {
	// List retrieves the watched assets of a portfolio with their asset snapshot resolved
	List(ctx context.Context, portfolioID uuid.UUID) ([]*WatchedAsset, error)

	// Add starts watching an asset in a portfolio
	Add(ctx context.Context, watched *WatchedAsset) error

	// Remove stops watching an asset in a portfolio
	Remove(ctx context.Context, portfolioID, assetID uuid.UUID) error
}

// AssetRepository defines the interface for asset snapshot lookups
type AssetRepository interface {
	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// GetBySymbol retrieves an asset by its unique symbol
	GetBySymbol(ctx context.Context, symbol string) (*Asset, error)
}

// HistoricalPriceRepository defines the interface for historical price persistence operations
type HistoricalPriceRepository interface {
	// List retrieves the points of one asset and period ordered by date ascending
	List(ctx context.Context, assetID uuid.UUID, period Period) ([]*HistoricalPricePoint, error)

	// Upsert records points, replacing any existing point with the same (asset, period, date)
	Upsert(ctx context.Context, points []*HistoricalPricePoint) error
}
