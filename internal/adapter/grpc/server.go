package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/ledger"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
	"github.com/simaogato/folio-backend/internal/usecase/pricing"
	"github.com/simaogato/folio-backend/internal/usecase/summary"
)

// Server implements the PortfolioService gRPC server
type Server struct {
	PortfolioService *portfolio.PortfolioService
	SummaryService   *summary.SummaryService
	ValuationService *portfolio.ValuationService
	LedgerService    *ledger.LedgerService
	PricingService   *pricing.PricingService
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	portfolioService *portfolio.PortfolioService,
	summaryService *summary.SummaryService,
	valuationService *portfolio.ValuationService,
	ledgerService *ledger.LedgerService,
	pricingService *pricing.PricingService,
) *Server {
	return &Server{
		PortfolioService: portfolioService,
		SummaryService:   summaryService,
		ValuationService: valuationService,
		LedgerService:    ledgerService,
		PricingService:   pricingService,
	}
}

func parseKind(f *fields) domain.AssetKind {
	s, ok := f.text("kind")
	if !ok {
		return ""
	}
	kind := domain.AssetKind(strings.ToUpper(s))
	switch kind {
	case "", "ALL":
		return ""
	case domain.AssetKindStock, domain.AssetKindCrypto:
		return kind
	}
	f.fail("kind", "must be STOCK, CRYPTO or empty")
	return ""
}

// GetPortfolioSummary handles the GetPortfolioSummary RPC
func (s *Server) GetPortfolioSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	ownerID := f.requiredUUID("owner_id")
	kind := parseKind(f)
	if f.err != nil {
		return nil, f.err
	}

	sum, err := s.SummaryService.GetSummary(ctx, ownerID, kind)
	if err != nil {
		return nil, mapError(err)
	}

	return encodeSummary(sum)
}

// GetPortfolioValuation handles the GetPortfolioValuation RPC
func (s *Server) GetPortfolioValuation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	if f.err != nil {
		return nil, f.err
	}

	val, err := s.ValuationService.GetValuation(ctx, portfolioID)
	if err != nil {
		return nil, mapError(err)
	}

	return encodeValuation(val)
}

// RecordTransaction handles the RecordTransaction RPC
func (s *Server) RecordTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := ledger.RecordTransactionInput{
		PortfolioID:  f.requiredUUID("portfolio_id"),
		Symbol:       f.requiredString("symbol"),
		Type:         domain.TransactionType(strings.ToUpper(f.requiredString("type"))),
		Amount:       f.requiredDecimal("amount"),
		PricePerUnit: f.requiredDecimal("price_per_unit"),
	}
	if date := f.optionalTime("date"); date != nil {
		input.Date = *date
	}
	if desc := f.optionalString("description"); desc != nil {
		input.Description = *desc
	}
	if f.err != nil {
		return nil, f.err
	}

	tx, err := s.LedgerService.RecordTransaction(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(encodeTransaction(tx))
}

// UpdateTransaction handles the UpdateTransaction RPC
// Fields absent from the request are left unchanged.
func (s *Server) UpdateTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	txID := f.requiredUUID("transaction_id")

	var patch ledger.TransactionPatch
	if t := f.optionalString("type"); t != nil {
		txType := domain.TransactionType(strings.ToUpper(*t))
		patch.Type = &txType
	}
	patch.Amount = f.optionalDecimal("amount")
	patch.PricePerUnit = f.optionalDecimal("price_per_unit")
	patch.Date = f.optionalTime("date")
	patch.Description = f.optionalString("description")
	if f.err != nil {
		return nil, f.err
	}

	tx, err := s.LedgerService.UpdateTransaction(ctx, portfolioID, txID, patch)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(encodeTransaction(tx))
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	txID := f.requiredUUID("transaction_id")
	if f.err != nil {
		return nil, f.err
	}

	if err := s.LedgerService.DeleteTransaction(ctx, portfolioID, txID); err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{"deleted": true})
}

// WatchAsset handles the WatchAsset RPC
func (s *Server) WatchAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	symbol := f.requiredString("symbol")
	if f.err != nil {
		return nil, f.err
	}

	w, err := s.LedgerService.WatchAsset(ctx, portfolioID, symbol)
	if err != nil {
		return nil, mapError(err)
	}

	return encodeWatched(w)
}

// UnwatchAsset handles the UnwatchAsset RPC
// Transactions are kept unless purge_transactions is true.
func (s *Server) UnwatchAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	symbol := f.requiredString("symbol")
	policy := ledger.UnwatchKeepTransactions
	if f.bool("purge_transactions") {
		policy = ledger.UnwatchPurgeTransactions
	}
	if f.err != nil {
		return nil, f.err
	}

	if err := s.LedgerService.UnwatchAsset(ctx, portfolioID, symbol, policy); err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{"unwatched": true})
}

// RecordPricePoints handles the RecordPricePoints RPC
func (s *Server) RecordPricePoints(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := pricing.RecordPricePointsInput{
		Symbol:   f.requiredString("symbol"),
		Period:   domain.Period(f.requiredString("period")),
		Interval: f.requiredString("interval"),
	}
	for _, p := range f.list("points") {
		pf := newFields(p)
		point := pricing.PricePointInput{
			Date:   pf.requiredTime("date"),
			Open:   pf.nullDecimal("open"),
			High:   pf.nullDecimal("high"),
			Low:    pf.nullDecimal("low"),
			Close:  pf.nullDecimal("close"),
			Volume: pf.nullDecimal("volume"),
		}
		if pf.err != nil {
			return nil, pf.err
		}
		input.Points = append(input.Points, point)
	}
	if f.err != nil {
		return nil, f.err
	}

	n, err := s.PricingService.RecordPricePoints(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{"recorded": n})
}

// CreatePortfolio handles the CreatePortfolio RPC
func (s *Server) CreatePortfolio(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	input := portfolio.CreatePortfolioInput{
		OwnerID: f.requiredUUID("owner_id"),
		Title:   f.requiredString("title"),
		Color:   f.requiredString("color"),
		Kind:    domain.AssetKind(strings.ToUpper(f.requiredString("kind"))),
	}
	if desc := f.optionalString("description"); desc != nil {
		input.Description = *desc
	}
	input.IsPublic = f.bool("is_public")
	if f.err != nil {
		return nil, f.err
	}

	p, err := s.PortfolioService.CreatePortfolio(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(encodePortfolio(p))
}

// ListPortfolios handles the ListPortfolios RPC
func (s *Server) ListPortfolios(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	ownerID := f.requiredUUID("owner_id")
	kind := parseKind(f)
	if f.err != nil {
		return nil, f.err
	}

	portfolios, err := s.PortfolioService.ListPortfolios(ctx, ownerID, kind)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]interface{}, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, encodePortfolio(p))
	}
	return structpb.NewStruct(map[string]interface{}{"portfolios": out})
}

// UpdatePortfolio handles the UpdatePortfolio RPC
// Fields absent from the request are left unchanged.
func (s *Server) UpdatePortfolio(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	patch := portfolio.PortfolioPatch{
		Title:       f.optionalString("title"),
		Description: f.optionalString("description"),
		Color:       f.optionalString("color"),
		IsPublic:    f.optionalBool("is_public"),
	}
	if f.err != nil {
		return nil, f.err
	}

	p, err := s.PortfolioService.UpdatePortfolio(ctx, portfolioID, patch)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(encodePortfolio(p))
}

// DeletePortfolio handles the DeletePortfolio RPC
func (s *Server) DeletePortfolio(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := newFields(req)
	portfolioID := f.requiredUUID("portfolio_id")
	if f.err != nil {
		return nil, f.err
	}

	if err := s.PortfolioService.DeletePortfolio(ctx, portfolioID); err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{"deleted": true})
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidTransactionType):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrOversell),
		errors.Is(err, domain.ErrAssetNotWatched):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	case errors.Is(err, domain.ErrAlreadyWatched):
		return status.Errorf(codes.AlreadyExists, "%s", errorMsg)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	logger.WithError(err).Error("Unhandled service error")
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
