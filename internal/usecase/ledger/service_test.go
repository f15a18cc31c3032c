package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/domain/mocks"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	portfolioRepo *mocks.PortfolioRepository
	txRepo        *mocks.TransactionRepository
	watchedRepo   *mocks.WatchedAssetRepository
	assetRepo     *mocks.AssetRepository
	service       *LedgerService

	portfolio *domain.Portfolio
	asset     *domain.Asset
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		portfolioRepo: new(mocks.PortfolioRepository),
		txRepo:        new(mocks.TransactionRepository),
		watchedRepo:   new(mocks.WatchedAssetRepository),
		assetRepo:     new(mocks.AssetRepository),
		portfolio: &domain.Portfolio{
			ID:    uuid.New(),
			Title: "Tech",
			Color: "#123456",
			Kind:  domain.AssetKindStock,
		},
		asset: &domain.Asset{
			ID:           uuid.New(),
			Symbol:       "AAPL",
			Kind:         domain.AssetKindStock,
			CurrentPrice: decimal.NewFromInt(150),
		},
	}
	f.service = NewLedgerService(f.portfolioRepo, f.txRepo, f.watchedRepo, f.assetRepo)
	f.service.Now = func() time.Time { return now }
	return f
}

func (f *ledgerFixture) expectResolve() {
	f.portfolioRepo.On("GetByID", mock.Anything, f.portfolio.ID).Return(f.portfolio, nil)
	f.assetRepo.On("GetBySymbol", mock.Anything, f.asset.Symbol).Return(f.asset, nil)
}

func (f *ledgerFixture) expectAssetByID() {
	f.assetRepo.On("GetByID", mock.Anything, f.asset.ID).Return(f.asset, nil)
}

func (f *ledgerFixture) expectWatched(watched bool) {
	list := []*domain.WatchedAsset{}
	if watched {
		list = append(list, &domain.WatchedAsset{ID: uuid.New(), PortfolioID: f.portfolio.ID, Asset: *f.asset})
	}
	f.watchedRepo.On("List", mock.Anything, f.portfolio.ID).Return(list, nil)
}

func (f *ledgerFixture) tx(typ domain.TransactionType, amount int64, at time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:           uuid.New(),
		PortfolioID:  f.portfolio.ID,
		AssetID:      f.asset.ID,
		Type:         typ,
		Amount:       decimal.NewFromInt(amount),
		PricePerUnit: decimal.NewFromInt(100),
		Date:         at,
	}
}

func (f *ledgerFixture) input(typ domain.TransactionType, amount int64) RecordTransactionInput {
	return RecordTransactionInput{
		PortfolioID:  f.portfolio.ID,
		Symbol:       f.asset.Symbol,
		Type:         typ,
		Amount:       decimal.NewFromInt(amount),
		PricePerUnit: decimal.NewFromInt(120),
		Date:         now,
	}
}

func TestRecordTransaction_Buy(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	f.expectWatched(true)
	f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{}, nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)
	f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

	// Execute
	tx, err := f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeBuy, 10))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, f.asset.ID, tx.AssetID)
	assert.Equal(t, f.portfolio.ID, tx.PortfolioID)
	assert.NotEqual(t, uuid.Nil, tx.ID)

	f.txRepo.AssertExpectations(t)
	f.portfolioRepo.AssertExpectations(t)
	f.watchedRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestRecordTransaction_OversellRejectedBeforeWrite(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	f.expectWatched(true)
	f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{
		f.tx(domain.TransactionTypeBuy, 2, now.Add(-time.Hour)),
	}, nil)

	_, err := f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeSell, 3))

	assert.ErrorIs(t, err, domain.ErrOversell)
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.portfolioRepo.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordTransaction_BackdatedSellCannotPrecedeBuy(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	f.expectWatched(true)
	f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{
		f.tx(domain.TransactionTypeBuy, 5, now),
	}, nil)

	in := f.input(domain.TransactionTypeSell, 1)
	in.Date = now.Add(-24 * time.Hour)

	_, err := f.service.RecordTransaction(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrOversell)
}

func TestRecordTransaction_FirstTradeWatchesAsset(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	f.expectWatched(false)
	f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{}, nil)
	f.watchedRepo.On("Add", mock.Anything, mock.MatchedBy(func(w *domain.WatchedAsset) bool {
		return w.PortfolioID == f.portfolio.ID && w.Asset.ID == f.asset.ID
	})).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

	_, err := f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeBuy, 1))

	require.NoError(t, err)
	f.watchedRepo.AssertExpectations(t)
}

func TestRecordTransaction_UnwatchedAssetRejected(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	other := &domain.WatchedAsset{ID: uuid.New(), Asset: domain.Asset{ID: uuid.New(), Symbol: "MSFT"}}
	f.watchedRepo.On("List", mock.Anything, f.portfolio.ID).Return([]*domain.WatchedAsset{other}, nil)

	_, err := f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeBuy, 1))

	assert.ErrorIs(t, err, domain.ErrAssetNotWatched)
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordTransaction_KindMismatch(t *testing.T) {
	f := newLedgerFixture()
	f.asset.Kind = domain.AssetKindCrypto
	f.expectResolve()

	_, err := f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeBuy, 1))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecordTransaction_ValidationRunsFirst(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *RecordTransactionInput)
		wantErr error
	}{
		{"Zero amount", func(in *RecordTransactionInput) { in.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"Negative price", func(in *RecordTransactionInput) { in.PricePerUnit = decimal.NewFromInt(-1) }, domain.ErrInvalidPrice},
		{"Unknown type", func(in *RecordTransactionInput) { in.Type = "SHORT" }, domain.ErrInvalidTransactionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			in := f.input(domain.TransactionTypeBuy, 1)
			tt.mutate(&in)

			_, err := f.service.RecordTransaction(context.Background(), in)

			assert.ErrorIs(t, err, tt.wantErr)
			f.portfolioRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestRecordTransaction_DefaultsDateToNow(t *testing.T) {
	f := newLedgerFixture()
	f.expectResolve()
	f.expectWatched(true)
	f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{}, nil)
	f.txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

	in := f.input(domain.TransactionTypeBuy, 1)
	in.Date = time.Time{}

	tx, err := f.service.RecordTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, now, tx.Date)
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("Patch applies and persists", func(t *testing.T) {
		f := newLedgerFixture()
		buy := f.tx(domain.TransactionTypeBuy, 10, now.Add(-time.Hour))
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, buy.ID).Return(buy, nil)
		f.expectAssetByID()
		f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{buy}, nil)
		f.txRepo.On("Update", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.ID == buy.ID && tx.Amount.Equal(decimal.NewFromInt(12))
		})).Return(nil)
		f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

		amount := decimal.NewFromInt(12)
		updated, err := f.service.UpdateTransaction(context.Background(), f.portfolio.ID, buy.ID, TransactionPatch{Amount: &amount})

		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(amount))
		assert.True(t, buy.Amount.Equal(decimal.NewFromInt(10)), "the loaded entry is not mutated")
		f.txRepo.AssertExpectations(t)
		f.assetRepo.AssertExpectations(t)
	})

	t.Run("Shrinking a buy below later sells is an oversell", func(t *testing.T) {
		f := newLedgerFixture()
		buy := f.tx(domain.TransactionTypeBuy, 10, now.Add(-2*time.Hour))
		sell := f.tx(domain.TransactionTypeSell, 8, now.Add(-time.Hour))
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, buy.ID).Return(buy, nil)
		f.expectAssetByID()
		f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{buy, sell}, nil)

		amount := decimal.NewFromInt(5)
		_, err := f.service.UpdateTransaction(context.Background(), f.portfolio.ID, buy.ID, TransactionPatch{Amount: &amount})

		assert.ErrorIs(t, err, domain.ErrOversell)
		assert.Contains(t, err.Error(), "AAPL")
		f.txRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Invalid patch is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		buy := f.tx(domain.TransactionTypeBuy, 10, now)
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, buy.ID).Return(buy, nil)

		price := decimal.Zero
		_, err := f.service.UpdateTransaction(context.Background(), f.portfolio.ID, buy.ID, TransactionPatch{PricePerUnit: &price})

		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("Missing transaction", func(t *testing.T) {
		f := newLedgerFixture()
		id := uuid.New()
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, id).Return(nil, domain.ErrNotFound)

		_, err := f.service.UpdateTransaction(context.Background(), f.portfolio.ID, id, TransactionPatch{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("Deletes and touches", func(t *testing.T) {
		f := newLedgerFixture()
		buy := f.tx(domain.TransactionTypeBuy, 10, now)
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, buy.ID).Return(buy, nil)
		f.expectAssetByID()
		f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{buy}, nil)
		f.txRepo.On("Delete", mock.Anything, f.portfolio.ID, buy.ID).Return(nil)
		f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

		err := f.service.DeleteTransaction(context.Background(), f.portfolio.ID, buy.ID)

		require.NoError(t, err)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("Deleting the buy a sell depends on is an oversell", func(t *testing.T) {
		f := newLedgerFixture()
		buy := f.tx(domain.TransactionTypeBuy, 10, now.Add(-time.Hour))
		sell := f.tx(domain.TransactionTypeSell, 4, now)
		f.txRepo.On("GetByID", mock.Anything, f.portfolio.ID, buy.ID).Return(buy, nil)
		f.expectAssetByID()
		f.txRepo.On("List", mock.Anything, f.portfolio.ID, &f.asset.ID).Return([]*domain.Transaction{buy, sell}, nil)

		err := f.service.DeleteTransaction(context.Background(), f.portfolio.ID, buy.ID)

		assert.ErrorIs(t, err, domain.ErrOversell)
		assert.Contains(t, err.Error(), "AAPL")
		f.txRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWatchAsset(t *testing.T) {
	t.Run("Adds the asset", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(false)
		f.watchedRepo.On("Add", mock.Anything, mock.Anything).Return(nil)
		f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

		w, err := f.service.WatchAsset(context.Background(), f.portfolio.ID, "AAPL")

		require.NoError(t, err)
		assert.Equal(t, f.asset.ID, w.Asset.ID)
	})

	t.Run("Already watched", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(true)

		_, err := f.service.WatchAsset(context.Background(), f.portfolio.ID, "AAPL")
		assert.ErrorIs(t, err, domain.ErrAlreadyWatched)
	})

	t.Run("Unknown symbol", func(t *testing.T) {
		f := newLedgerFixture()
		f.portfolioRepo.On("GetByID", mock.Anything, f.portfolio.ID).Return(f.portfolio, nil)
		f.assetRepo.On("GetBySymbol", mock.Anything, "NOPE").Return(nil, domain.ErrNotFound)

		_, err := f.service.WatchAsset(context.Background(), f.portfolio.ID, "NOPE")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUnwatchAsset(t *testing.T) {
	t.Run("Keep policy leaves transactions", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(true)
		f.watchedRepo.On("Remove", mock.Anything, f.portfolio.ID, f.asset.ID).Return(nil)
		f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

		err := f.service.UnwatchAsset(context.Background(), f.portfolio.ID, "AAPL", UnwatchKeepTransactions)

		require.NoError(t, err)
		f.txRepo.AssertNotCalled(t, "DeleteByAsset", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Purge policy deletes transactions", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(true)
		f.txRepo.On("DeleteByAsset", mock.Anything, f.portfolio.ID, f.asset.ID).Return(nil)
		f.watchedRepo.On("Remove", mock.Anything, f.portfolio.ID, f.asset.ID).Return(nil)
		f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

		err := f.service.UnwatchAsset(context.Background(), f.portfolio.ID, "AAPL", UnwatchPurgeTransactions)

		require.NoError(t, err)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("Not watched", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(false)

		err := f.service.UnwatchAsset(context.Background(), f.portfolio.ID, "AAPL", UnwatchKeepTransactions)
		assert.ErrorIs(t, err, domain.ErrAssetNotWatched)
	})

	t.Run("Repository failure is wrapped", func(t *testing.T) {
		f := newLedgerFixture()
		f.expectResolve()
		f.expectWatched(true)
		f.watchedRepo.On("Remove", mock.Anything, f.portfolio.ID, f.asset.ID).Return(errors.New("db gone"))

		err := f.service.UnwatchAsset(context.Background(), f.portfolio.ID, "AAPL", UnwatchKeepTransactions)
		assert.ErrorContains(t, err, "failed to unwatch asset: db gone")
	})
}
