package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/folio-backend/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

const portfolioColumns = `id, owner_id, title, description, color, kind, is_public, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row rowScanner) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Description,
		&p.Color,
		&p.Kind,
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a portfolio by its ID
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`

	p, err := scanPortfolio(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}
	return p, nil
}

// ListByOwner retrieves the portfolios of one user, newest first
func (r *portfolioRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, kind domain.AssetKind) ([]*domain.Portfolio, error) {
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE owner_id = $1 AND ($2::text = '' OR kind = $2::text)
		ORDER BY created_at DESC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, ownerID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := make([]*domain.Portfolio, 0)
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolios: %w", err)
	}

	return portfolios, nil
}

// Create creates a new portfolio
func (r *portfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (` + portfolioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.Title,
		p.Description,
		p.Color,
		string(p.Kind),
		p.IsPublic,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// Update replaces the title, description, color, visibility and UpdatedAt of a portfolio
func (r *portfolioRepository) Update(ctx context.Context, p *domain.Portfolio) error {
	query := `
		UPDATE portfolios
		SET title = $2, description = $3, color = $4, is_public = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Color,
		p.IsPublic,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	return expectAffected(res, "portfolio", p.ID)
}

// Delete deletes a portfolio; transactions and watched assets cascade
func (r *portfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return expectAffected(res, "portfolio", id)
}

// Touch bumps UpdatedAt after a ledger write
func (r *portfolioRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `UPDATE portfolios SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch portfolio: %w", err)
	}
	return expectAffected(res, "portfolio", id)
}

// expectAffected turns a statement that matched no row into domain.ErrNotFound
func expectAffected(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
