// Package mocks provides testify mocks of the domain repositories
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/folio-backend/internal/domain"
)

// PortfolioRepository is a mock implementation of domain.PortfolioRepository
type PortfolioRepository struct {
	mock.Mock
}

func (m *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *PortfolioRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, kind domain.AssetKind) ([]*domain.Portfolio, error) {
	args := m.Called(ctx, ownerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Portfolio), args.Error(1)
}

func (m *PortfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *PortfolioRepository) Update(ctx context.Context, portfolio *domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *PortfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PortfolioRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// TransactionRepository is a mock implementation of domain.TransactionRepository
type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) GetByID(ctx context.Context, portfolioID, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, portfolioID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) List(ctx context.Context, portfolioID uuid.UUID, assetID *uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, portfolioID, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *TransactionRepository) Delete(ctx context.Context, portfolioID, id uuid.UUID) error {
	args := m.Called(ctx, portfolioID, id)
	return args.Error(0)
}

func (m *TransactionRepository) DeleteByAsset(ctx context.Context, portfolioID, assetID uuid.UUID) error {
	args := m.Called(ctx, portfolioID, assetID)
	return args.Error(0)
}

// WithLedgerLock runs fn directly so expectations set on the other methods apply inside it
func (m *TransactionRepository) WithLedgerLock(ctx context.Context, portfolioID uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// WatchedAssetRepository is a mock implementation of domain.WatchedAssetRepository
type WatchedAssetRepository struct {
	mock.Mock
}

func (m *WatchedAssetRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.WatchedAsset, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WatchedAsset), args.Error(1)
}

func (m *WatchedAssetRepository) Add(ctx context.Context, watched *domain.WatchedAsset) error {
	args := m.Called(ctx, watched)
	return args.Error(0)
}

func (m *WatchedAssetRepository) Remove(ctx context.Context, portfolioID, assetID uuid.UUID) error {
	args := m.Called(ctx, portfolioID, assetID)
	return args.Error(0)
}

// AssetRepository is a mock implementation of domain.AssetRepository
type AssetRepository struct {
	mock.Mock
}

func (m *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *AssetRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

// HistoricalPriceRepository is a mock implementation of domain.HistoricalPriceRepository
type HistoricalPriceRepository struct {
	mock.Mock
}

func (m *HistoricalPriceRepository) List(ctx context.Context, assetID uuid.UUID, period domain.Period) ([]*domain.HistoricalPricePoint, error) {
	args := m.Called(ctx, assetID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoricalPricePoint), args.Error(1)
}

func (m *HistoricalPriceRepository) Upsert(ctx context.Context, points []*domain.HistoricalPricePoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}
