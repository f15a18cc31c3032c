package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/simaogato/folio-backend/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint violation
const uniqueViolation = "23505"

// watchedAssetRepository implements domain.WatchedAssetRepository
type watchedAssetRepository struct {
	db *DB
}

// NewWatchedAssetRepository creates a new watched asset repository
func NewWatchedAssetRepository(db *DB) domain.WatchedAssetRepository {
	return &watchedAssetRepository{db: db}
}

// List retrieves the watched assets of a portfolio with their asset snapshot resolved
func (r *watchedAssetRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.WatchedAsset, error) {
	query := `
		SELECT w.id, w.portfolio_id, ` + assetColumns + `
		FROM watched_assets w
		JOIN assets a ON a.id = w.asset_id
		WHERE w.portfolio_id = $1
		ORDER BY a.symbol ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched assets: %w", err)
	}
	defer rows.Close()

	watched := make([]*domain.WatchedAsset, 0)
	for rows.Next() {
		var w domain.WatchedAsset
		var row assetRow
		dest := append([]interface{}{&w.ID, &w.PortfolioID}, row.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan watched asset: %w", err)
		}

		asset, err := row.build()
		if err != nil {
			return nil, err
		}
		w.Asset = *asset
		watched = append(watched, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watched assets: %w", err)
	}

	return watched, nil
}

// Add starts watching an asset in a portfolio
func (r *watchedAssetRepository) Add(ctx context.Context, w *domain.WatchedAsset) error {
	query := `
		INSERT INTO watched_assets (id, portfolio_id, asset_id)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, w.ID, w.PortfolioID, w.Asset.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyWatched, w.Asset.Symbol)
		}
		return fmt.Errorf("failed to add watched asset: %w", err)
	}
	return nil
}

// Remove stops watching an asset in a portfolio
func (r *watchedAssetRepository) Remove(ctx context.Context, portfolioID, assetID uuid.UUID) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM watched_assets WHERE portfolio_id = $1 AND asset_id = $2`, portfolioID, assetID)
	if err != nil {
		return fmt.Errorf("failed to remove watched asset: %w", err)
	}
	return expectAffected(res, "watched asset", assetID)
}
