package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/history"
)

type priceEntry struct {
	once sync.Once
	line *history.PriceLine
	err  error
}

// PriceBook memoizes price lines for the lifetime of one request
// Lines are loaded and sorted once per (asset, period), even when several
// portfolios evaluated concurrently watch the same asset.
type PriceBook struct {
	repo domain.HistoricalPriceRepository

	mu      sync.Mutex
	entries map[PriceKey]*priceEntry
}

// NewPriceBook creates an empty PriceBook backed by the given repository
func NewPriceBook(repo domain.HistoricalPriceRepository) *PriceBook {
	return &PriceBook{
		repo:    repo,
		entries: make(map[PriceKey]*priceEntry),
	}
}

// Line returns the price line of one asset and period, loading it on first use
func (b *PriceBook) Line(ctx context.Context, assetID uuid.UUID, period domain.Period) (*history.PriceLine, error) {
	key := PriceKey{AssetID: assetID, Period: period}

	b.mu.Lock()
	entry, ok := b.entries[key]
	if !ok {
		entry = &priceEntry{}
		b.entries[key] = entry
	}
	b.mu.Unlock()

	entry.once.Do(func() {
		points, err := b.repo.List(ctx, assetID, period)
		if err != nil {
			entry.err = fmt.Errorf("failed to list %s prices of asset %s: %w", period, assetID, err)
			return
		}
		entry.line = history.NewPriceLine(period, points)
	})

	return entry.line, entry.err
}

// Lines returns the lines of every window period for the given assets
func (b *PriceBook) Lines(ctx context.Context, assets []domain.Asset) (map[PriceKey]*history.PriceLine, error) {
	out := make(map[PriceKey]*history.PriceLine, len(assets)*3)
	for _, asset := range assets {
		for _, spec := range history.Windows() {
			line, err := b.Line(ctx, asset.ID, spec.Period)
			if err != nil {
				return nil, err
			}
			out[PriceKey{AssetID: asset.ID, Period: spec.Period}] = line
		}
	}
	return out, nil
}
