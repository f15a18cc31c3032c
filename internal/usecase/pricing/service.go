package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
)

var logger = logrus.WithField("component", "pricing")

// PricePointInput is one OHLC observation as reported by a price feed
type PricePointInput struct {
	Date   time.Time
	Open   decimal.NullDecimal
	High   decimal.NullDecimal
	Low    decimal.NullDecimal
	Close  decimal.NullDecimal
	Volume decimal.NullDecimal
}

// RecordPricePointsInput represents a batch of observations for one asset and period
type RecordPricePointsInput struct {
	Symbol   string
	Period   domain.Period
	Interval string
	Points   []PricePointInput
}

// PricingService records historical price points fed by the price fetchers
type PricingService struct {
	AssetRepo domain.AssetRepository
	PriceRepo domain.HistoricalPriceRepository
}

// NewPricingService creates a new PricingService instance
func NewPricingService(assetRepo domain.AssetRepository, priceRepo domain.HistoricalPriceRepository) *PricingService {
	return &PricingService{
		AssetRepo: assetRepo,
		PriceRepo: priceRepo,
	}
}

// RecordPricePoints validates and upserts a batch of observations
// Logic:
//  1. Resolve the asset by symbol
//  2. Validate every point; one invalid point rejects the batch
//  3. Collapse points sharing a timestamp, keeping the last one
//  4. Upsert, replacing stored points with the same (asset, period, date)
//
// Returns the number of points written
func (s *PricingService) RecordPricePoints(ctx context.Context, input RecordPricePointsInput) (int, error) {
	if len(input.Points) == 0 {
		return 0, nil
	}

	// 1. Resolve asset
	asset, err := s.AssetRepo.GetBySymbol(ctx, input.Symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to get asset %s: %w", input.Symbol, err)
	}

	// 2. Validate
	byDate := make(map[int64]*domain.HistoricalPricePoint, len(input.Points))
	for i, in := range input.Points {
		p := &domain.HistoricalPricePoint{
			ID:       uuid.New(),
			AssetID:  asset.ID,
			Date:     in.Date.UTC(),
			Open:     in.Open,
			High:     in.High,
			Low:      in.Low,
			Close:    in.Close,
			Volume:   in.Volume,
			Interval: input.Interval,
			Period:   input.Period,
		}
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("point %d: %w", i, err)
		}

		// 3. Collapse duplicates
		key := p.Date.UnixNano()
		if _, dup := byDate[key]; dup {
			logger.WithFields(logrus.Fields{
				"symbol": asset.Symbol,
				"period": input.Period,
				"date":   p.Date,
			}).Debug("Duplicate price point in batch, keeping the last one")
		}
		byDate[key] = p
	}

	points := make([]*domain.HistoricalPricePoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	// 4. Upsert
	if err := s.PriceRepo.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("failed to upsert price points: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"symbol":   asset.Symbol,
		"period":   input.Period,
		"recorded": len(points),
	}).Info("Price points recorded")

	return len(points), nil
}
