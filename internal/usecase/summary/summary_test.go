package summary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/domain/mocks"
	"github.com/simaogato/folio-backend/internal/usecase/history"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func asset(symbol, price, change24h string) domain.Asset {
	return domain.Asset{
		ID:                uuid.New(),
		Symbol:            symbol,
		Kind:              domain.AssetKindStock,
		CurrentPrice:      dec(price),
		PriceChangePct24h: decimal.NewNullDecimal(dec(change24h)),
	}
}

func buy(p *domain.Portfolio, a domain.Asset, amount, price string) *domain.Transaction {
	return &domain.Transaction{
		ID:           uuid.New(),
		PortfolioID:  p.ID,
		AssetID:      a.ID,
		Type:         domain.TransactionTypeBuy,
		Amount:       dec(amount),
		PricePerUnit: dec(price),
		Date:         now.AddDate(0, -2, 0),
	}
}

func evaluate(t *testing.T, watched []domain.Asset, txs func(p *domain.Portfolio) []*domain.Transaction) *portfolio.Valuation {
	t.Helper()
	p := &domain.Portfolio{ID: uuid.New(), Title: "p", Color: "#fff", Kind: domain.AssetKindStock}
	v, err := portfolio.Evaluate(context.Background(), &portfolio.Snapshot{
		Portfolio:    p,
		Watched:      watched,
		Transactions: txs(p),
	}, now)
	require.NoError(t, err)
	return v
}

func TestAggregate_TwoPortfolios(t *testing.T) {
	aapl := asset("AAPL", "150", "2")
	msft := asset("MSFT", "30", "5")

	first := evaluate(t, []domain.Asset{aapl}, func(p *domain.Portfolio) []*domain.Transaction {
		return []*domain.Transaction{buy(p, aapl, "4", "100")} // value 600
	})
	second := evaluate(t, []domain.Asset{aapl, msft}, func(p *domain.Portfolio) []*domain.Transaction {
		return []*domain.Transaction{
			buy(p, msft, "10", "40"), // value 300, loss 100
			buy(p, aapl, "2", "200"), // value 300, loss 100
		}
	})

	// Execute
	s, err := Aggregate([]*portfolio.Valuation{first, second}, now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalPortfolios)
	assert.Equal(t, 3, s.TotalTransactions)
	assert.Equal(t, "1200", s.CurrentValue.String())
	assert.Equal(t, "1200", s.TotalInvestment.String())
	assert.True(t, s.ProfitLoss.IsZero())
	assert.True(t, s.ProfitLossPct.IsZero())

	shares := s.HoldingsPercentage.AsMap()
	assert.Equal(t, "75.00", shares["AAPL"].StringFixed(2))
	assert.Equal(t, "25.00", shares["MSFT"].StringFixed(2))

	// 24h: 2% of 900 + 5% of 300
	assert.Equal(t, "33", s.ProfitLoss24h.String())
	assert.Equal(t, "2.75", s.PctProfitLoss24h.String())

	assert.Equal(t, 1, s.PositiveTransactions)
	assert.Equal(t, 2, s.NegativeTransactions)
	// AAPL: +200 - 100, MSFT: -100
	assert.Equal(t, 1, s.PositiveWatched)
	assert.Equal(t, 1, s.NegativeWatched)

	require.NotNil(t, s.TopGainer24h)
	assert.Equal(t, "MSFT", s.TopGainer24h.Asset.Symbol)

	series := s.History[history.Window7d]
	require.Len(t, series.Samples, 15)
	assert.Equal(t, "1200", series.Samples[14].Value.String())
	assert.Equal(t, now, s.GeneratedAt)
}

func TestAggregate_TopGainerReaggregatesAcrossPortfolios(t *testing.T) {
	btc := asset("BTC", "300", "12")
	eth := asset("ETH", "10", "12")

	first := evaluate(t, []domain.Asset{btc, eth}, func(p *domain.Portfolio) []*domain.Transaction {
		return []*domain.Transaction{buy(p, btc, "1", "100"), buy(p, eth, "1", "10")}
	})
	second := evaluate(t, []domain.Asset{btc}, func(p *domain.Portfolio) []*domain.Transaction {
		return []*domain.Transaction{buy(p, btc, "3", "200")}
	})

	s, err := Aggregate([]*portfolio.Valuation{first, second}, now)
	require.NoError(t, err)

	g := s.TopGainer24h
	require.NotNil(t, g)
	assert.Equal(t, "BTC", g.Asset.Symbol, "ties on change break by symbol")
	assert.Equal(t, "4", g.Holdings.String())
	assert.Equal(t, "700", g.TotalInvested.String())
	assert.Equal(t, "1200", g.CurrentValue.String())
	assert.Equal(t, "175", g.AvgBuyPrice.String()) // (100x1 + 200x3) / 4
}

func TestAggregate_NoHoldings(t *testing.T) {
	watchedOnly := evaluate(t, []domain.Asset{asset("AAPL", "1", "50")}, func(*domain.Portfolio) []*domain.Transaction { return nil })

	s, err := Aggregate([]*portfolio.Valuation{watchedOnly}, now)
	require.NoError(t, err)
	assert.Nil(t, s.TopGainer24h)
	assert.Empty(t, s.HoldingsPercentage.Entries)
	assert.Zero(t, s.PositiveWatched)
}

func TestAggregate_Empty(t *testing.T) {
	s, err := Aggregate(nil, now)
	require.NoError(t, err)
	assert.Zero(t, s.TotalPortfolios)
	assert.True(t, s.CurrentValue.IsZero())
	assert.Empty(t, s.HoldingsPercentage.Entries)
	assert.Equal(t, now, s.GeneratedAt)

	require.Len(t, s.History, 3)
	for window, size := range map[history.Window]int{history.Window7d: 15, history.Window1m: 31, history.Window1y: 27} {
		series, ok := s.History[window]
		require.True(t, ok, window)
		require.Len(t, series.Samples, size, window)
		assert.True(t, series.Samples[size-1].Date.Equal(now))
		for _, sample := range series.Samples {
			assert.True(t, sample.Value.IsZero())
		}
	}
}

func TestAggregate_MisalignedSeries(t *testing.T) {
	a := &portfolio.Valuation{
		Portfolio: domain.Portfolio{ID: uuid.New()},
		History:   map[history.Window]history.Series{history.Window7d: {Window: history.Window7d, Samples: make([]history.Sample, 15)}},
	}
	b := &portfolio.Valuation{
		Portfolio: domain.Portfolio{ID: uuid.New()},
		History:   map[history.Window]history.Series{history.Window7d: {Window: history.Window7d, Samples: make([]history.Sample, 14)}},
	}

	_, err := Aggregate([]*portfolio.Valuation{a, b}, now)
	assert.ErrorIs(t, err, ErrSeriesMisaligned)
}

func TestCacheKey(t *testing.T) {
	owner := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.Equal(t, "summary:7c9e6679-7425-40de-944b-e07fc1f90ae7:CRYPTO:42.1.ab", CacheKey(owner, domain.AssetKindCrypto, "42.1.ab"))
	assert.Equal(t, "summary:7c9e6679-7425-40de-944b-e07fc1f90ae7:ALL:0.0.0", CacheKey(owner, "", "0.0.0"))
}

func TestVersion(t *testing.T) {
	older := &domain.Portfolio{ID: uuid.New(), UpdatedAt: now.Add(-time.Hour)}
	latest := &domain.Portfolio{ID: uuid.New(), UpdatedAt: now}

	t.Run("Order does not matter", func(t *testing.T) {
		assert.Equal(t, Version([]*domain.Portfolio{older, latest}), Version([]*domain.Portfolio{latest, older}))
	})

	t.Run("Removing a portfolio that is not the latest writer moves the version", func(t *testing.T) {
		assert.NotEqual(t, Version([]*domain.Portfolio{older, latest}), Version([]*domain.Portfolio{latest}))
	})

	t.Run("Swapping a portfolio at the same count and timestamp moves the version", func(t *testing.T) {
		other := &domain.Portfolio{ID: uuid.New(), UpdatedAt: older.UpdatedAt}
		assert.NotEqual(t, Version([]*domain.Portfolio{older, latest}), Version([]*domain.Portfolio{other, latest}))
	})

	t.Run("A ledger write moves the version", func(t *testing.T) {
		touched := *latest
		touched.UpdatedAt = now.Add(time.Second)
		assert.NotEqual(t, Version([]*domain.Portfolio{older, latest}), Version([]*domain.Portfolio{older, &touched}))
	})
}

// memoryCache is an in-process Cache used to observe the service
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*Summary
	getErr  error
	sets    int
}

func (c *memoryCache) Get(_ context.Context, key string) (*Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, s *Summary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*Summary)
	}
	c.entries[key] = s
	c.sets++
	return nil
}

type fixture struct {
	portfolioRepo *mocks.PortfolioRepository
	txRepo        *mocks.TransactionRepository
	watchedRepo   *mocks.WatchedAssetRepository
	priceRepo     *mocks.HistoricalPriceRepository
	cache         *memoryCache
	service       *SummaryService
}

func newFixture() *fixture {
	f := &fixture{
		portfolioRepo: new(mocks.PortfolioRepository),
		txRepo:        new(mocks.TransactionRepository),
		watchedRepo:   new(mocks.WatchedAssetRepository),
		priceRepo:     new(mocks.HistoricalPriceRepository),
		cache:         &memoryCache{},
	}
	valuations := portfolio.NewValuationService(f.portfolioRepo, f.txRepo, f.watchedRepo, f.priceRepo)
	valuations.Now = func() time.Time { return now }
	f.service = NewSummaryService(f.portfolioRepo, valuations, f.cache)
	return f
}

func TestGetSummary_SharesPriceLoadsAcrossPortfolios(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	aapl := asset("AAPL", "150", "10")

	p1 := &domain.Portfolio{ID: uuid.New(), OwnerID: owner, Kind: domain.AssetKindStock, UpdatedAt: now.Add(-time.Hour)}
	p2 := &domain.Portfolio{ID: uuid.New(), OwnerID: owner, Kind: domain.AssetKindStock, UpdatedAt: now}

	f.portfolioRepo.On("ListByOwner", mock.Anything, owner, domain.AssetKindStock).Return([]*domain.Portfolio{p1, p2}, nil)
	for _, p := range []*domain.Portfolio{p1, p2} {
		f.watchedRepo.On("List", mock.Anything, p.ID).Return([]*domain.WatchedAsset{{PortfolioID: p.ID, Asset: aapl}}, nil)
		f.txRepo.On("List", mock.Anything, p.ID, (*uuid.UUID)(nil)).Return([]*domain.Transaction{buy(p, aapl, "10", "100")}, nil)
	}
	// once per period, not once per portfolio
	f.priceRepo.On("List", mock.Anything, aapl.ID, mock.Anything).Return([]*domain.HistoricalPricePoint{}, nil).Times(3)

	// Execute
	s, err := f.service.GetSummary(context.Background(), owner, domain.AssetKindStock)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalPortfolios)
	assert.Equal(t, "3000", s.CurrentValue.String())
	assert.Equal(t, "300", s.ProfitLoss24h.String())
	assert.Equal(t, 1, f.cache.sets)

	f.priceRepo.AssertExpectations(t)
	f.portfolioRepo.AssertExpectations(t)
}

func TestGetSummary_ServedFromCache(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	p := &domain.Portfolio{ID: uuid.New(), OwnerID: owner, UpdatedAt: now}

	f.portfolioRepo.On("ListByOwner", mock.Anything, owner, domain.AssetKind("")).Return([]*domain.Portfolio{p}, nil)
	cached := &Summary{TotalPortfolios: 1, CurrentValue: dec("42")}
	f.cache.entries = map[string]*Summary{CacheKey(owner, "", Version([]*domain.Portfolio{p})): cached}

	s, err := f.service.GetSummary(context.Background(), owner, "")

	require.NoError(t, err)
	assert.Same(t, cached, s)
	f.watchedRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetSummary_CacheFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	f.cache.getErr = errors.New("redis down")

	f.portfolioRepo.On("ListByOwner", mock.Anything, owner, domain.AssetKindCrypto).Return([]*domain.Portfolio{}, nil)

	s, err := f.service.GetSummary(context.Background(), owner, domain.AssetKindCrypto)

	require.NoError(t, err)
	assert.Zero(t, s.TotalPortfolios)
	assert.Equal(t, now, s.GeneratedAt)
}

func TestGetSummary_EvaluatesEveryPortfolioAtOneInstant(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	var calls atomic.Int64
	f.service.Valuations.Now = func() time.Time {
		return now.Add(time.Duration(calls.Add(1)) * time.Second)
	}

	portfolios := make([]*domain.Portfolio, 3)
	for i := range portfolios {
		p := &domain.Portfolio{ID: uuid.New(), OwnerID: owner, Kind: domain.AssetKindStock, UpdatedAt: now}
		portfolios[i] = p
		f.watchedRepo.On("List", mock.Anything, p.ID).Return([]*domain.WatchedAsset{}, nil)
		f.txRepo.On("List", mock.Anything, p.ID, (*uuid.UUID)(nil)).Return([]*domain.Transaction{}, nil)
	}
	f.portfolioRepo.On("ListByOwner", mock.Anything, owner, domain.AssetKind("")).Return(portfolios, nil)

	// Execute
	s, err := f.service.GetSummary(context.Background(), owner, "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, now.Add(time.Second), s.GeneratedAt)
	assert.True(t, s.History[history.Window7d].Samples[14].Date.Equal(now.Add(time.Second)))
}

func TestGetSummary_EvaluationError(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	p := &domain.Portfolio{ID: uuid.New(), OwnerID: owner}

	f.portfolioRepo.On("ListByOwner", mock.Anything, owner, domain.AssetKindStock).Return([]*domain.Portfolio{p}, nil)
	f.watchedRepo.On("List", mock.Anything, p.ID).Return(nil, errors.New("boom"))

	_, err := f.service.GetSummary(context.Background(), owner, domain.AssetKindStock)

	assert.ErrorContains(t, err, "boom")
	assert.Zero(t, f.cache.sets)
}
