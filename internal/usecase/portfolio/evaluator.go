package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/breakdown"
	"github.com/simaogato/folio-backend/internal/usecase/history"
	"github.com/simaogato/folio-backend/internal/usecase/holdings"
	"github.com/simaogato/folio-backend/internal/usecase/ledger"
	"github.com/simaogato/folio-backend/internal/usecase/valuation"
)

// PriceKey identifies one asset's price line for one period
type PriceKey struct {
	AssetID uuid.UUID
	Period  domain.Period
}

// Snapshot is the read-only state one portfolio is evaluated from
type Snapshot struct {
	Portfolio    *domain.Portfolio
	Watched      []domain.Asset
	Transactions []*domain.Transaction
	Prices       map[PriceKey]*history.PriceLine
}

// TransactionValuation is a ledger entry with its unrealized result
type TransactionValuation struct {
	Transaction domain.Transaction
	valuation.TransactionPnL
}

// AssetValuation is the valuation of one watched asset within a portfolio
type AssetValuation struct {
	Asset domain.Asset
	valuation.Result
	Transactions []TransactionValuation // oldest first
}

// Valuation is the evaluated state of one portfolio
type Valuation struct {
	Portfolio          domain.Portfolio
	Assets             []AssetValuation // ordered by symbol
	TotalTransactions  int
	TotalInvestment    decimal.Decimal
	CurrentValue       decimal.Decimal
	ProfitLoss         decimal.Decimal
	ProfitLossPct      decimal.Decimal
	ProfitLoss24h      decimal.Decimal
	PctProfitLoss24h   decimal.Decimal
	HoldingsPercentage breakdown.Breakdown
	History            map[history.Window]history.Series
	EvaluatedAt        time.Time
}

// Evaluate values every watched asset of the snapshot and reconstructs its history windows
// Transactions of assets that are not watched are left out of every aggregate.
func Evaluate(ctx context.Context, snap *Snapshot, now time.Time) (*Valuation, error) {
	if snap == nil || snap.Portfolio == nil {
		return nil, fmt.Errorf("%w: snapshot has no portfolio", domain.ErrValidation)
	}

	watched := make([]domain.Asset, len(snap.Watched))
	copy(watched, snap.Watched)
	sort.Slice(watched, func(i, j int) bool {
		return watched[i].Symbol < watched[j].Symbol
	})

	byAsset := ledger.NewView(snap.Transactions).ByAsset()

	v := &Valuation{
		Portfolio:       *snap.Portfolio,
		Assets:          make([]AssetValuation, 0, len(watched)),
		TotalInvestment: decimal.Zero,
		CurrentValue:    decimal.Zero,
		ProfitLoss:      decimal.Zero,
		ProfitLoss24h:   decimal.Zero,
		History:         make(map[history.Window]history.Series, 3),
		EvaluatedAt:     now,
	}
	values := make(map[string]decimal.Decimal, len(watched))

	for _, asset := range watched {
		txs := byAsset[asset.ID]
		res := valuation.EstimateAsset(holdings.Calculate(txs), &asset)

		av := AssetValuation{
			Asset:        asset,
			Result:       res,
			Transactions: make([]TransactionValuation, 0, len(txs)),
		}
		for i := range txs {
			av.Transactions = append(av.Transactions, TransactionValuation{
				Transaction:    txs[i],
				TransactionPnL: valuation.TransactionProfitLoss(&txs[i], asset.CurrentPrice),
			})
		}
		v.Assets = append(v.Assets, av)

		v.TotalTransactions += len(txs)
		v.TotalInvestment = v.TotalInvestment.Add(res.TotalInvested)
		v.CurrentValue = v.CurrentValue.Add(res.CurrentValue)
		v.ProfitLoss = v.ProfitLoss.Add(res.ProfitLoss)
		v.ProfitLoss24h = v.ProfitLoss24h.Add(res.ProfitLoss24h)
		values[asset.Symbol] = values[asset.Symbol].Add(res.CurrentValue)
	}

	v.ProfitLossPct = valuation.Percent(v.ProfitLoss, v.CurrentValue)
	v.PctProfitLoss24h = valuation.Percent(v.ProfitLoss24h, v.CurrentValue)
	v.HoldingsPercentage = breakdown.Compute(values)

	series, err := reconstructWindows(ctx, snap, watched, byAsset, now)
	if err != nil {
		return nil, err
	}
	for _, s := range series {
		v.History[s.Window] = s
	}

	return v, nil
}

// reconstructWindows runs every history window concurrently over shared trade lines
func reconstructWindows(
	ctx context.Context,
	snap *Snapshot,
	watched []domain.Asset,
	byAsset map[uuid.UUID][]domain.Transaction,
	now time.Time,
) ([]history.Series, error) {
	trades := make(map[uuid.UUID]*history.TradeLine, len(watched))
	for _, asset := range watched {
		trades[asset.ID] = history.NewTradeLine(byAsset[asset.ID])
	}

	specs := history.Windows()
	out := make([]history.Series, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		inputs := make([]history.Input, 0, len(watched))
		for _, asset := range watched {
			inputs = append(inputs, history.Input{
				Symbol:       asset.Symbol,
				CurrentPrice: asset.CurrentPrice,
				Trades:       trades[asset.ID],
				Prices:       snap.Prices[PriceKey{AssetID: asset.ID, Period: spec.Period}],
			})
		}

		g.Go(func() error {
			s, err := history.Reconstruct(gctx, spec, now, inputs)
			if err != nil {
				return fmt.Errorf("failed to reconstruct %s window: %w", spec.Window, err)
			}
			out[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
