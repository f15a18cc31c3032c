package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/folio-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, portfolio_id, asset_id, type, amount, price_per_unit, date, description`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountStr, priceStr string

	err := row.Scan(
		&tx.ID,
		&tx.PortfolioID,
		&tx.AssetID,
		&tx.Type,
		&amountStr,
		&priceStr,
		&tx.Date,
		&tx.Description,
	)
	if err != nil {
		return nil, err
	}

	if tx.Amount, err = parseDecimal("amount", amountStr); err != nil {
		return nil, err
	}
	if tx.PricePerUnit, err = parseDecimal("price_per_unit", priceStr); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetByID retrieves one transaction of a portfolio
func (r *transactionRepository) GetByID(ctx context.Context, portfolioID, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE portfolio_id = $1 AND id = $2`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, portfolioID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}
	return tx, nil
}

// List retrieves the transactions of a portfolio ordered by date ascending
// Entries sharing a date come back in insertion order.
func (r *transactionRepository) List(ctx context.Context, portfolioID uuid.UUID, assetID *uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE portfolio_id = $1 AND ($2::uuid IS NULL OR asset_id = $2)
		ORDER BY date ASC, created_at ASC
	`

	var assetArg interface{}
	if assetID != nil {
		assetArg = *assetID
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, portfolioID, assetArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		tx.PortfolioID,
		tx.AssetID,
		string(tx.Type),
		tx.Amount.String(),
		tx.PricePerUnit.String(),
		tx.Date,
		tx.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update replaces the economic fields of an existing transaction
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $3, amount = $4, price_per_unit = $5, date = $6, description = $7
		WHERE portfolio_id = $1 AND id = $2
	`

	res, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.PortfolioID,
		tx.ID,
		string(tx.Type),
		tx.Amount.String(),
		tx.PricePerUnit.String(),
		tx.Date,
		tx.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return expectAffected(res, "transaction", tx.ID)
}

// Delete deletes one transaction
func (r *transactionRepository) Delete(ctx context.Context, portfolioID, id uuid.UUID) error {
	res, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM transactions WHERE portfolio_id = $1 AND id = $2`, portfolioID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectAffected(res, "transaction", id)
}

// DeleteByAsset deletes every transaction of one asset in a portfolio
func (r *transactionRepository) DeleteByAsset(ctx context.Context, portfolioID, assetID uuid.UUID) error {
	_, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM transactions WHERE portfolio_id = $1 AND asset_id = $2`, portfolioID, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete asset transactions: %w", err)
	}
	return nil
}

// WithLedgerLock runs fn in one database transaction holding a row lock on the
// portfolio, so concurrent ledger writes to the same portfolio run one at a time
func (r *transactionRepository) WithLedgerLock(ctx context.Context, portfolioID uuid.UUID, fn func(ctx context.Context) error) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		var id uuid.UUID
		err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT id FROM portfolios WHERE id = $1 FOR UPDATE`, portfolioID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("portfolio %s: %w", portfolioID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to lock portfolio ledger: %w", err)
		}
		return fn(ctx)
	})
}
