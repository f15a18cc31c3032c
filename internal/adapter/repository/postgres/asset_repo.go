package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/folio-backend/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `a.id, a.symbol, a.name, a.kind, a.current_price, a.currency,
	a.price_change_pct_1h, a.price_change_pct_24h, a.price_change_pct_7d,
	a.price_change_pct_30d, a.price_change_pct_1y, a.price_change_pct_max,
	a.market_cap, a.market_cap_rank, a.updated_at`

// assetRow holds the raw columns of an asset row
type assetRow struct {
	asset     domain.Asset
	price     string
	changes   [6]sql.NullString // 1h, 24h, 7d, 30d, 1y, max
	marketCap sql.NullString
	rank      sql.NullInt64
}

func (r *assetRow) dest() []interface{} {
	return []interface{}{
		&r.asset.ID,
		&r.asset.Symbol,
		&r.asset.Name,
		&r.asset.Kind,
		&r.price,
		&r.asset.Currency,
		&r.changes[0],
		&r.changes[1],
		&r.changes[2],
		&r.changes[3],
		&r.changes[4],
		&r.changes[5],
		&r.marketCap,
		&r.rank,
		&r.asset.UpdatedAt,
	}
}

func (r *assetRow) build() (*domain.Asset, error) {
	a := r.asset
	var err error

	if a.CurrentPrice, err = parseDecimal("current_price", r.price); err != nil {
		return nil, err
	}

	changes := []*decimal.NullDecimal{
		&a.PriceChangePct1h,
		&a.PriceChangePct24h,
		&a.PriceChangePct7d,
		&a.PriceChangePct30d,
		&a.PriceChangePct1y,
		&a.PriceChangePctMax,
	}
	for i, dst := range changes {
		if *dst, err = parseNullDecimal("price_change_pct", r.changes[i]); err != nil {
			return nil, err
		}
	}

	if a.MarketCap, err = parseNullDecimal("market_cap", r.marketCap); err != nil {
		return nil, err
	}

	if r.rank.Valid {
		rank := int(r.rank.Int64)
		a.MarketCapRank = &rank
	}

	return &a, nil
}

func (r *assetRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets a WHERE ` + where

	var row assetRow
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, arg).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return row.build()
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	return r.getOne(ctx, `a.id = $1`, id)
}

// GetBySymbol retrieves an asset by its unique symbol
func (r *assetRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	return r.getOne(ctx, `a.symbol = $1`, symbol)
}
