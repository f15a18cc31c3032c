package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
)

var logger = logrus.WithField("component", "summary")

// Cache stores computed summaries between requests
type Cache interface {
	Get(ctx context.Context, key string) (*Summary, bool, error)
	Set(ctx context.Context, key string, s *Summary, ttl time.Duration) error
}

// CacheKey returns the cache key of an owner's summary at a given portfolio set version
func CacheKey(ownerID uuid.UUID, kind domain.AssetKind, version string) string {
	k := string(kind)
	if k == "" {
		k = "ALL"
	}
	return fmt.Sprintf("summary:%s:%s:%s", ownerID, k, version)
}

// SummaryService builds cross-portfolio summaries
type SummaryService struct {
	PortfolioRepo domain.PortfolioRepository
	Valuations    *portfolio.ValuationService
	Cache         Cache // optional

	CacheTTL       time.Duration
	MaxConcurrency int
}

// NewSummaryService creates a new SummaryService instance
func NewSummaryService(portfolioRepo domain.PortfolioRepository, valuations *portfolio.ValuationService, cache Cache) *SummaryService {
	return &SummaryService{
		PortfolioRepo:  portfolioRepo,
		Valuations:     valuations,
		Cache:          cache,
		CacheTTL:       time.Minute,
		MaxConcurrency: 4,
	}
}

// GetSummary evaluates every portfolio of an owner and aggregates them
// An empty kind includes portfolios of every kind.
func (s *SummaryService) GetSummary(ctx context.Context, ownerID uuid.UUID, kind domain.AssetKind) (*Summary, error) {
	ctx, cancel := s.Valuations.WithDeadline(ctx)
	defer cancel()

	log := logger.WithFields(logrus.Fields{"owner_id": ownerID, "kind": kind})

	// 1. Load the owner's portfolios
	portfolios, err := s.PortfolioRepo.ListByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	// 2. Serve from cache when the ledger has not moved
	key := CacheKey(ownerID, kind, Version(portfolios))
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Summary cache read failed")
		} else if ok {
			log.Debug("Summary served from cache")
			return cached, nil
		}
	}

	// 3. Evaluate portfolios concurrently over one shared price book and instant
	now := s.Valuations.Now()
	book := portfolio.NewPriceBook(s.Valuations.PriceRepo)
	vals := make([]*portfolio.Valuation, len(portfolios))

	g, gctx := errgroup.WithContext(ctx)
	if s.MaxConcurrency > 0 {
		g.SetLimit(s.MaxConcurrency)
	}
	for i, p := range portfolios {
		g.Go(func() error {
			v, err := s.Valuations.Evaluate(gctx, p, book, now)
			if err != nil {
				return err
			}
			vals[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 4. Aggregate
	summary, err := Aggregate(vals, now)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate portfolios: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, summary, s.CacheTTL); err != nil {
			log.WithError(err).Warn("Summary cache write failed")
		}
	}

	log.WithField("portfolios", len(portfolios)).Debug("Summary computed")
	return summary, nil
}

// Version identifies a set of portfolios at their latest ledger write
// It combines the newest UpdatedAt, the portfolio count and a hash of the sorted IDs,
// so deleting a portfolio that was not the latest writer still moves it.
func Version(portfolios []*domain.Portfolio) string {
	var latest int64
	ids := make([]string, 0, len(portfolios))
	for _, p := range portfolios {
		if v := p.UpdatedAt.UnixNano(); v > latest {
			latest = v
		}
		ids = append(ids, p.ID.String())
	}
	sort.Strings(ids)

	h := xxhash.New()
	for _, id := range ids {
		_, _ = h.WriteString(id)
	}
	return fmt.Sprintf("%d.%d.%016x", latest, len(portfolios), h.Sum64())
}
