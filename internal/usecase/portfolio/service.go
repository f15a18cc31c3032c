package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
)

// DefaultTimeout bounds an evaluation whose context carries no deadline
const DefaultTimeout = 10 * time.Second

var logger = logrus.WithField("component", "portfolio")

// ValuationService loads portfolio snapshots and evaluates them
type ValuationService struct {
	PortfolioRepo   domain.PortfolioRepository
	TransactionRepo domain.TransactionRepository
	WatchedRepo     domain.WatchedAssetRepository
	PriceRepo       domain.HistoricalPriceRepository

	Timeout time.Duration
	Now     func() time.Time
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(
	portfolioRepo domain.PortfolioRepository,
	transactionRepo domain.TransactionRepository,
	watchedRepo domain.WatchedAssetRepository,
	priceRepo domain.HistoricalPriceRepository,
) *ValuationService {
	return &ValuationService{
		PortfolioRepo:   portfolioRepo,
		TransactionRepo: transactionRepo,
		WatchedRepo:     watchedRepo,
		PriceRepo:       priceRepo,
		Timeout:         DefaultTimeout,
		Now:             time.Now,
	}
}

// WithDeadline applies the service timeout when ctx has no deadline of its own
func (s *ValuationService) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// Snapshot loads the watched assets, ledger and price lines of one portfolio
func (s *ValuationService) Snapshot(ctx context.Context, p *domain.Portfolio, book *PriceBook) (*Snapshot, error) {
	watched, err := s.WatchedRepo.List(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched assets: %w", err)
	}

	assets := make([]domain.Asset, 0, len(watched))
	for _, w := range watched {
		assets = append(assets, w.Asset)
	}

	txs, err := s.TransactionRepo.List(ctx, p.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	prices, err := book.Lines(ctx, assets)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Portfolio:    p,
		Watched:      assets,
		Transactions: txs,
		Prices:       prices,
	}, nil
}

// Evaluate snapshots and evaluates an already loaded portfolio as of now
// Callers evaluating several portfolios pass the same instant to each.
func (s *ValuationService) Evaluate(ctx context.Context, p *domain.Portfolio, book *PriceBook, now time.Time) (*Valuation, error) {
	snap, err := s.Snapshot(ctx, p, book)
	if err != nil {
		return nil, err
	}

	v, err := Evaluate(ctx, snap, now)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate portfolio %s: %w", p.ID, err)
	}
	return v, nil
}

// GetValuation evaluates one portfolio by ID
func (s *ValuationService) GetValuation(ctx context.Context, portfolioID uuid.UUID) (*Valuation, error) {
	ctx, cancel := s.WithDeadline(ctx)
	defer cancel()

	p, err := s.PortfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	start := time.Now()
	v, err := s.Evaluate(ctx, p, NewPriceBook(s.PriceRepo), s.Now())
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"portfolio_id": portfolioID,
		"assets":       len(v.Assets),
		"duration":     time.Since(start),
	}).Debug("Portfolio evaluated")

	return v, nil
}
