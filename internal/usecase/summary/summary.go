package summary

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/breakdown"
	"github.com/simaogato/folio-backend/internal/usecase/history"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
	"github.com/simaogato/folio-backend/internal/usecase/valuation"
)

// ErrSeriesMisaligned is returned when portfolios disagree on a window's sample count
var ErrSeriesMisaligned = errors.New("history series are not aligned")

// TopGainer is the held asset with the best 24h move, re-aggregated across portfolios
type TopGainer struct {
	Asset             domain.Asset
	PriceChangePct24h decimal.Decimal
	TotalInvested     decimal.Decimal
	Holdings          decimal.Decimal
	CurrentValue      decimal.Decimal
	AvgBuyPrice       decimal.Decimal // holdings-weighted average net cost
}

// Summary is the combined view of one owner's portfolios
type Summary struct {
	TotalPortfolios    int
	TotalTransactions  int
	TotalInvestment    decimal.Decimal
	CurrentValue       decimal.Decimal
	ProfitLoss         decimal.Decimal
	ProfitLossPct      decimal.Decimal
	ProfitLoss24h      decimal.Decimal
	PctProfitLoss24h   decimal.Decimal
	HoldingsPercentage breakdown.Breakdown
	History            map[history.Window]history.Series
	TopGainer24h       *TopGainer // nil when nothing is held

	PositiveTransactions int // buys currently in profit
	NegativeTransactions int // buys currently at a loss
	PositiveWatched      int // symbols whose summed P&L is positive
	NegativeWatched      int // symbols whose summed P&L is negative

	GeneratedAt time.Time
}

// Aggregate combines evaluated portfolios into one summary
// Logic:
//   - money totals are summed, percentages are recomputed against the summed current value
//   - the holdings breakdown is recomputed from per-symbol values summed across portfolios
//   - history windows are summed sample by sample and must have matching lengths
//   - with no portfolios every window is a zero-valued series on the grid ending at now
func Aggregate(vals []*portfolio.Valuation, now time.Time) (*Summary, error) {
	s := &Summary{
		TotalPortfolios: len(vals),
		TotalInvestment: decimal.Zero,
		CurrentValue:    decimal.Zero,
		ProfitLoss:      decimal.Zero,
		ProfitLoss24h:   decimal.Zero,
		History:         make(map[history.Window]history.Series),
	}

	values := make(map[string]decimal.Decimal)
	profitBySymbol := make(map[string]decimal.Decimal)

	for _, v := range vals {
		s.TotalTransactions += v.TotalTransactions
		s.TotalInvestment = s.TotalInvestment.Add(v.TotalInvestment)
		s.CurrentValue = s.CurrentValue.Add(v.CurrentValue)
		s.ProfitLoss = s.ProfitLoss.Add(v.ProfitLoss)
		s.ProfitLoss24h = s.ProfitLoss24h.Add(v.ProfitLoss24h)
		if v.EvaluatedAt.After(s.GeneratedAt) {
			s.GeneratedAt = v.EvaluatedAt
		}

		for _, a := range v.Assets {
			values[a.Asset.Symbol] = values[a.Asset.Symbol].Add(a.CurrentValue)
			profitBySymbol[a.Asset.Symbol] = profitBySymbol[a.Asset.Symbol].Add(a.ProfitLoss)

			for _, tx := range a.Transactions {
				if !tx.ProfitLoss.Valid {
					continue
				}
				switch {
				case tx.ProfitLoss.Decimal.IsPositive():
					s.PositiveTransactions++
				case tx.ProfitLoss.Decimal.IsNegative():
					s.NegativeTransactions++
				}
			}
		}
	}

	for _, pl := range profitBySymbol {
		switch {
		case pl.IsPositive():
			s.PositiveWatched++
		case pl.IsNegative():
			s.NegativeWatched++
		}
	}

	s.ProfitLossPct = valuation.Percent(s.ProfitLoss, s.CurrentValue)
	s.PctProfitLoss24h = valuation.Percent(s.ProfitLoss24h, s.CurrentValue)
	s.HoldingsPercentage = breakdown.Compute(values)
	s.TopGainer24h = topGainer(vals)

	for _, spec := range history.Windows() {
		series, err := sumSeries(spec.Window, vals)
		if err != nil {
			return nil, err
		}
		if series == nil {
			flat := history.Flat(spec, now)
			series = &flat
		}
		s.History[spec.Window] = *series
	}

	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = now
	}

	return s, nil
}

// sumSeries adds the window's series of every portfolio sample by sample
func sumSeries(window history.Window, vals []*portfolio.Valuation) (*history.Series, error) {
	var out *history.Series
	for _, v := range vals {
		series, ok := v.History[window]
		if !ok {
			continue
		}
		if out == nil {
			out = &history.Series{Window: window, Samples: make([]history.Sample, len(series.Samples))}
			copy(out.Samples, series.Samples)
			continue
		}
		if len(series.Samples) != len(out.Samples) {
			return nil, fmt.Errorf("%w: window %s has %d samples in portfolio %s, expected %d",
				ErrSeriesMisaligned, window, len(series.Samples), v.Portfolio.ID, len(out.Samples))
		}
		for i := range out.Samples {
			out.Samples[i].Value = out.Samples[i].Value.Add(series.Samples[i].Value)
		}
	}
	return out, nil
}

// topGainer picks the held asset with the highest 24h change, ties by symbol ascending
func topGainer(vals []*portfolio.Valuation) *TopGainer {
	type holding struct {
		asset     domain.Asset
		positions []portfolio.AssetValuation
	}
	held := make(map[string]*holding)

	for _, v := range vals {
		for _, a := range v.Assets {
			if !a.Holdings.IsPositive() {
				continue
			}
			h, ok := held[a.Asset.Symbol]
			if !ok {
				h = &holding{asset: a.Asset}
				held[a.Asset.Symbol] = h
			}
			h.positions = append(h.positions, a)
		}
	}
	if len(held) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(held))
	for symbol := range held {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	best := held[symbols[0]]
	for _, symbol := range symbols[1:] {
		if held[symbol].asset.Change24h().GreaterThan(best.asset.Change24h()) {
			best = held[symbol]
		}
	}

	g := &TopGainer{
		Asset:             best.asset,
		PriceChangePct24h: best.asset.Change24h(),
		TotalInvested:     decimal.Zero,
		Holdings:          decimal.Zero,
		CurrentValue:      decimal.Zero,
	}
	costBasis := decimal.Zero
	for _, p := range best.positions {
		g.TotalInvested = g.TotalInvested.Add(p.TotalInvested)
		g.Holdings = g.Holdings.Add(p.Holdings)
		g.CurrentValue = g.CurrentValue.Add(p.CurrentValue)
		costBasis = costBasis.Add(p.AvgNetCost.Mul(p.Holdings))
	}
	g.AvgBuyPrice = costBasis.Div(g.Holdings)

	return g
}
