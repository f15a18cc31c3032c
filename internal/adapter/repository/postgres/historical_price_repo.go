package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/folio-backend/internal/domain"
)

// historicalPriceRepository implements domain.HistoricalPriceRepository
type historicalPriceRepository struct {
	db *DB
}

// NewHistoricalPriceRepository creates a new historical price repository
func NewHistoricalPriceRepository(db *DB) domain.HistoricalPriceRepository {
	return &historicalPriceRepository{db: db}
}

// List retrieves the points of one asset and period ordered by date ascending
func (r *historicalPriceRepository) List(ctx context.Context, assetID uuid.UUID, period domain.Period) ([]*domain.HistoricalPricePoint, error) {
	query := `
		SELECT id, asset_id, date, open, high, low, close, volume, interval, period
		FROM historical_prices
		WHERE asset_id = $1 AND period = $2
		ORDER BY date ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, assetID, string(period))
	if err != nil {
		return nil, fmt.Errorf("failed to list historical prices: %w", err)
	}
	defer rows.Close()

	points := make([]*domain.HistoricalPricePoint, 0)
	for rows.Next() {
		var p domain.HistoricalPricePoint
		var open, high, low, closeStr, volume sql.NullString

		if err := rows.Scan(
			&p.ID,
			&p.AssetID,
			&p.Date,
			&open,
			&high,
			&low,
			&closeStr,
			&volume,
			&p.Interval,
			&p.Period,
		); err != nil {
			return nil, fmt.Errorf("failed to scan historical price: %w", err)
		}

		if p.Open, err = parseNullDecimal("open", open); err != nil {
			return nil, err
		}
		if p.High, err = parseNullDecimal("high", high); err != nil {
			return nil, err
		}
		if p.Low, err = parseNullDecimal("low", low); err != nil {
			return nil, err
		}
		if p.Close, err = parseNullDecimal("close", closeStr); err != nil {
			return nil, err
		}
		if p.Volume, err = parseNullDecimal("volume", volume); err != nil {
			return nil, err
		}

		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate historical prices: %w", err)
	}

	return points, nil
}

// Upsert records points in one database transaction, replacing any point with
// the same (asset, period, date)
func (r *historicalPriceRepository) Upsert(ctx context.Context, points []*domain.HistoricalPricePoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO historical_prices (id, asset_id, date, open, high, low, close, volume, interval, period)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset_id, period, date) DO UPDATE
		SET open = EXCLUDED.open,
		    high = EXCLUDED.high,
		    low = EXCLUDED.low,
		    close = EXCLUDED.close,
		    volume = EXCLUDED.volume,
		    interval = EXCLUDED.interval
	`

	return r.db.InTx(ctx, func(ctx context.Context) error {
		stmt, err := r.db.conn(ctx).PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			_, err := stmt.ExecContext(ctx,
				p.ID,
				p.AssetID,
				p.Date,
				nullDecimalArg(p.Open),
				nullDecimalArg(p.High),
				nullDecimalArg(p.Low),
				nullDecimalArg(p.Close),
				nullDecimalArg(p.Volume),
				p.Interval,
				string(p.Period),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert historical price: %w", err)
			}
		}
		return nil
	})
}
