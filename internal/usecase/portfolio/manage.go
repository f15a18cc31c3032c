package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
)

// CreatePortfolioInput represents the input for creating a portfolio
type CreatePortfolioInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Color       string
	Kind        domain.AssetKind
	IsPublic    bool
}

// PortfolioPatch lists the fields of a portfolio to change; nil fields are kept
// The kind of a portfolio is fixed at creation.
type PortfolioPatch struct {
	Title       *string
	Description *string
	Color       *string
	IsPublic    *bool
}

// PortfolioService handles the lifecycle of portfolios
type PortfolioService struct {
	PortfolioRepo domain.PortfolioRepository

	Now func() time.Time
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(portfolioRepo domain.PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		PortfolioRepo: portfolioRepo,
		Now:           time.Now,
	}
}

// CreatePortfolio validates and persists a new, empty portfolio
func (s *PortfolioService) CreatePortfolio(ctx context.Context, input CreatePortfolioInput) (*domain.Portfolio, error) {
	if input.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	now := s.Now().UTC()
	p := &domain.Portfolio{
		ID:          uuid.New(),
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Color:       input.Color,
		Kind:        input.Kind,
		IsPublic:    input.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PortfolioRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"portfolio_id": p.ID,
		"owner_id":     p.OwnerID,
		"kind":         p.Kind,
	}).Info("Portfolio created")

	return p, nil
}

// ListPortfolios retrieves an owner's portfolios, newest first
// An empty kind includes portfolios of every kind.
func (s *PortfolioService) ListPortfolios(ctx context.Context, ownerID uuid.UUID, kind domain.AssetKind) ([]*domain.Portfolio, error) {
	portfolios, err := s.PortfolioRepo.ListByOwner(ctx, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

// UpdatePortfolio applies a patch to a portfolio's presentation fields
// UpdatedAt moves, so cached summaries of the owner are invalidated.
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, id uuid.UUID, patch PortfolioPatch) (*domain.Portfolio, error) {
	current, err := s.PortfolioRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	updated := *current
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Color != nil {
		updated.Color = *patch.Color
	}
	if patch.IsPublic != nil {
		updated.IsPublic = *patch.IsPublic
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.Now().UTC()

	if err := s.PortfolioRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}

	return &updated, nil
}

// DeletePortfolio deletes a portfolio with its transactions and watch list
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id uuid.UUID) error {
	if err := s.PortfolioRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	logger.WithField("portfolio_id", id).Info("Portfolio deleted")
	return nil
}
