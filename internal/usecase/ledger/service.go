package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/holdings"
)

var (
	logger   = logrus.WithField("component", "ledger")
	auditLog = logrus.WithField("component", "ledger.audit")
)

// UnwatchPolicy decides what happens to an asset's transactions when it is unwatched
type UnwatchPolicy int

const (
	// UnwatchKeepTransactions hides the transactions from aggregates; watching again restores them
	UnwatchKeepTransactions UnwatchPolicy = iota
	// UnwatchPurgeTransactions deletes the asset's transactions from the portfolio
	UnwatchPurgeTransactions
)

// RecordTransactionInput represents the input for recording a ledger entry
type RecordTransactionInput struct {
	PortfolioID  uuid.UUID
	Symbol       string
	Type         domain.TransactionType
	Amount       decimal.Decimal
	PricePerUnit decimal.Decimal
	Date         time.Time // defaults to now
	Description  string
}

// TransactionPatch lists the fields of a transaction to change; nil fields are kept
type TransactionPatch struct {
	Type         *domain.TransactionType
	Amount       *decimal.Decimal
	PricePerUnit *decimal.Decimal
	Date         *time.Time
	Description  *string
}

// LedgerService handles every write to the transaction ledger and the watch list
type LedgerService struct {
	PortfolioRepo   domain.PortfolioRepository
	TransactionRepo domain.TransactionRepository
	WatchedRepo     domain.WatchedAssetRepository
	AssetRepo       domain.AssetRepository

	Now func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	portfolioRepo domain.PortfolioRepository,
	transactionRepo domain.TransactionRepository,
	watchedRepo domain.WatchedAssetRepository,
	assetRepo domain.AssetRepository,
) *LedgerService {
	return &LedgerService{
		PortfolioRepo:   portfolioRepo,
		TransactionRepo: transactionRepo,
		WatchedRepo:     watchedRepo,
		AssetRepo:       assetRepo,
		Now:             time.Now,
	}
}

// RecordTransaction validates and appends a buy or sell to a portfolio's ledger
// Logic:
//  1. Validate the entry on its own (type, amount, price)
//  2. Resolve portfolio and asset, and check the asset trades on the portfolio's market
//  3. Take the portfolio's ledger lock; steps 4 to 6 see no concurrent ledger write
//  4. Check the asset is watched; a portfolio watching nothing watches its first traded asset
//  5. Replay the asset's ledger with the new entry and reject any negative prefix
//  6. Persist and bump the portfolio version
func (s *LedgerService) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:           uuid.New(),
		PortfolioID:  input.PortfolioID,
		Type:         input.Type,
		Amount:       input.Amount,
		PricePerUnit: input.PricePerUnit,
		Date:         input.Date,
		Description:  input.Description,
	}
	if tx.Date.IsZero() {
		tx.Date = s.Now().UTC()
	}

	// 1. Validate input
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	// 2. Resolve portfolio and asset
	p, asset, err := s.resolve(ctx, input.PortfolioID, input.Symbol)
	if err != nil {
		return nil, err
	}
	tx.AssetID = asset.ID

	// 3. Ledger lock
	err = s.TransactionRepo.WithLedgerLock(ctx, p.ID, func(ctx context.Context) error {
		// 4. Watch list
		watched, err := s.WatchedRepo.List(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list watched assets: %w", err)
		}
		implicitWatch := len(watched) == 0
		if !implicitWatch && !isWatched(watched, asset.ID) {
			return fmt.Errorf("%w: %s", domain.ErrAssetNotWatched, asset.Symbol)
		}

		// 5. Oversell
		existing, err := s.TransactionRepo.List(ctx, p.ID, &asset.ID)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		if err := checkOversell(append(existing, tx)); err != nil {
			return err
		}

		// 6. Persist
		if implicitWatch {
			w := &domain.WatchedAsset{ID: uuid.New(), PortfolioID: p.ID, Asset: *asset}
			if err := s.WatchedRepo.Add(ctx, w); err != nil {
				return fmt.Errorf("failed to watch asset: %w", err)
			}
			logger.WithFields(logrus.Fields{"portfolio_id": p.ID, "symbol": asset.Symbol}).Info("First transaction watches asset")
		}

		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		return s.touch(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// UpdateTransaction applies a patch to an existing entry
// The asset's whole ledger is replayed with the patched entry before anything is written,
// all under the portfolio's ledger lock.
func (s *LedgerService) UpdateTransaction(ctx context.Context, portfolioID, txID uuid.UUID, patch TransactionPatch) (*domain.Transaction, error) {
	var updated domain.Transaction
	err := s.TransactionRepo.WithLedgerLock(ctx, portfolioID, func(ctx context.Context) error {
		current, err := s.TransactionRepo.GetByID(ctx, portfolioID, txID)
		if err != nil {
			return fmt.Errorf("failed to get transaction: %w", err)
		}

		updated = *current
		if patch.Type != nil {
			updated.Type = *patch.Type
		}
		if patch.Amount != nil {
			updated.Amount = *patch.Amount
		}
		if patch.PricePerUnit != nil {
			updated.PricePerUnit = *patch.PricePerUnit
		}
		if patch.Date != nil {
			updated.Date = *patch.Date
		}
		if patch.Description != nil {
			updated.Description = *patch.Description
		}

		if err := updated.Validate(); err != nil {
			return err
		}

		asset, err := s.AssetRepo.GetByID(ctx, current.AssetID)
		if err != nil {
			return fmt.Errorf("failed to get asset: %w", err)
		}

		existing, err := s.TransactionRepo.List(ctx, portfolioID, &current.AssetID)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		for i, tx := range existing {
			if tx.ID == updated.ID {
				existing[i] = &updated
			}
		}
		if err := checkOversell(existing); err != nil {
			return fmt.Errorf("%s: %w", asset.Symbol, err)
		}

		if err := s.TransactionRepo.Update(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		auditLog.WithFields(logrus.Fields{
			"portfolio_id":   portfolioID,
			"transaction_id": txID,
			"symbol":         asset.Symbol,
			"old_type":       current.Type,
			"old_amount":     current.Amount.String(),
			"old_price":      current.PricePerUnit.String(),
			"old_date":       current.Date,
		}).Info("Transaction updated")

		return s.touch(ctx, portfolioID)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteTransaction removes one entry from a portfolio's ledger
// Removing a buy that later sells depend on is rejected as an oversell.
func (s *LedgerService) DeleteTransaction(ctx context.Context, portfolioID, txID uuid.UUID) error {
	return s.TransactionRepo.WithLedgerLock(ctx, portfolioID, func(ctx context.Context) error {
		current, err := s.TransactionRepo.GetByID(ctx, portfolioID, txID)
		if err != nil {
			return fmt.Errorf("failed to get transaction: %w", err)
		}

		asset, err := s.AssetRepo.GetByID(ctx, current.AssetID)
		if err != nil {
			return fmt.Errorf("failed to get asset: %w", err)
		}

		existing, err := s.TransactionRepo.List(ctx, portfolioID, &current.AssetID)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		remaining := make([]*domain.Transaction, 0, len(existing))
		for _, tx := range existing {
			if tx.ID != txID {
				remaining = append(remaining, tx)
			}
		}
		if err := checkOversell(remaining); err != nil {
			return fmt.Errorf("%s: %w", asset.Symbol, err)
		}

		if err := s.TransactionRepo.Delete(ctx, portfolioID, txID); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		auditLog.WithFields(logrus.Fields{
			"portfolio_id":   portfolioID,
			"transaction_id": txID,
			"asset_id":       current.AssetID,
			"symbol":         asset.Symbol,
			"type":           current.Type,
			"amount":         current.Amount.String(),
			"price_per_unit": current.PricePerUnit.String(),
			"date":           current.Date,
		}).Info("Transaction deleted")

		return s.touch(ctx, portfolioID)
	})
}

// WatchAsset starts tracking an asset in a portfolio
func (s *LedgerService) WatchAsset(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.WatchedAsset, error) {
	p, asset, err := s.resolve(ctx, portfolioID, symbol)
	if err != nil {
		return nil, err
	}

	w := &domain.WatchedAsset{ID: uuid.New(), PortfolioID: p.ID, Asset: *asset}
	err = s.TransactionRepo.WithLedgerLock(ctx, p.ID, func(ctx context.Context) error {
		watched, err := s.WatchedRepo.List(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list watched assets: %w", err)
		}
		if isWatched(watched, asset.ID) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyWatched, asset.Symbol)
		}

		if err := s.WatchedRepo.Add(ctx, w); err != nil {
			return fmt.Errorf("failed to watch asset: %w", err)
		}

		return s.touch(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// UnwatchAsset stops tracking an asset in a portfolio
// With UnwatchPurgeTransactions the purge and the unwatch commit together.
func (s *LedgerService) UnwatchAsset(ctx context.Context, portfolioID uuid.UUID, symbol string, policy UnwatchPolicy) error {
	p, asset, err := s.resolve(ctx, portfolioID, symbol)
	if err != nil {
		return err
	}

	return s.TransactionRepo.WithLedgerLock(ctx, p.ID, func(ctx context.Context) error {
		watched, err := s.WatchedRepo.List(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list watched assets: %w", err)
		}
		if !isWatched(watched, asset.ID) {
			return fmt.Errorf("%w: %s", domain.ErrAssetNotWatched, asset.Symbol)
		}

		if policy == UnwatchPurgeTransactions {
			if err := s.TransactionRepo.DeleteByAsset(ctx, p.ID, asset.ID); err != nil {
				return fmt.Errorf("failed to delete asset transactions: %w", err)
			}
			auditLog.WithFields(logrus.Fields{
				"portfolio_id": p.ID,
				"asset_id":     asset.ID,
				"symbol":       asset.Symbol,
			}).Info("Asset transactions purged")
		}

		if err := s.WatchedRepo.Remove(ctx, p.ID, asset.ID); err != nil {
			return fmt.Errorf("failed to unwatch asset: %w", err)
		}

		return s.touch(ctx, p.ID)
	})
}

// resolve loads the portfolio and asset and checks they belong to the same market
func (s *LedgerService) resolve(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Portfolio, *domain.Asset, error) {
	if symbol == "" {
		return nil, nil, fmt.Errorf("%w: symbol is required", domain.ErrValidation)
	}

	p, err := s.PortfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	asset, err := s.AssetRepo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get asset %s: %w", symbol, err)
	}

	if asset.Kind != p.Kind {
		return nil, nil, fmt.Errorf("%w: %s asset %s cannot be held in a %s portfolio",
			domain.ErrValidation, asset.Kind, asset.Symbol, p.Kind)
	}

	return p, asset, nil
}

func (s *LedgerService) touch(ctx context.Context, portfolioID uuid.UUID) error {
	if err := s.PortfolioRepo.Touch(ctx, portfolioID, s.Now().UTC()); err != nil {
		return fmt.Errorf("failed to touch portfolio: %w", err)
	}
	return nil
}

func isWatched(watched []*domain.WatchedAsset, assetID uuid.UUID) bool {
	for _, w := range watched {
		if w.Asset.ID == assetID {
			return true
		}
	}
	return false
}

// checkOversell replays one asset's ledger in date order and rejects a negative prefix
func checkOversell(txs []*domain.Transaction) error {
	sorted := NewView(txs).All()
	if i := holdings.FirstOversold(sorted); i >= 0 {
		return fmt.Errorf("%w: holdings drop to %s on %s",
			domain.ErrOversell, holdings.Replay(sorted)[i].String(), sorted[i].Date.Format(time.RFC3339))
	}
	return nil
}
