package grpc

import (
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/breakdown"
	"github.com/simaogato/folio-backend/internal/usecase/history"
	"github.com/simaogato/folio-backend/internal/usecase/portfolio"
	"github.com/simaogato/folio-backend/internal/usecase/summary"
)

// money renders amounts and percentages with two decimals
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return money(d.Decimal)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func encodeBreakdown(b breakdown.Breakdown) map[string]interface{} {
	out := make(map[string]interface{}, len(b.Entries))
	for _, e := range b.Entries {
		out[e.Symbol] = money(e.Percentage)
	}
	return out
}

func encodeHistory(series map[history.Window]history.Series) map[string]interface{} {
	out := make(map[string]interface{}, len(series))
	for w, s := range series {
		samples := make([]interface{}, 0, len(s.Samples))
		for _, smp := range s.Samples {
			samples = append(samples, map[string]interface{}{
				"date":  timestamp(smp.Date),
				"value": money(smp.Value),
			})
		}
		out[string(w)] = samples
	}
	return out
}

func encodeAsset(a domain.Asset) map[string]interface{} {
	return map[string]interface{}{
		"id":                   a.ID.String(),
		"symbol":               a.Symbol,
		"name":                 a.Name,
		"kind":                 string(a.Kind),
		"current_price":        a.CurrentPrice.String(),
		"currency":             a.Currency,
		"price_change_pct_24h": nullMoney(a.PriceChangePct24h),
	}
}

func encodeTransaction(tx *domain.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":             tx.ID.String(),
		"portfolio_id":   tx.PortfolioID.String(),
		"asset_id":       tx.AssetID.String(),
		"type":           string(tx.Type),
		"amount":         tx.Amount.String(),
		"price_per_unit": tx.PricePerUnit.String(),
		"date":           timestamp(tx.Date),
		"description":    tx.Description,
	}
}

func encodeTopGainer(g *summary.TopGainer) interface{} {
	if g == nil {
		return nil
	}
	return map[string]interface{}{
		"asset":                encodeAsset(g.Asset),
		"price_change_pct_24h": money(g.PriceChangePct24h),
		"total_invested":       money(g.TotalInvested),
		"holdings":             g.Holdings.String(),
		"current_value":        money(g.CurrentValue),
		"avg_buy_price":        money(g.AvgBuyPrice),
	}
}

func encodeSummary(s *summary.Summary) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"total_portfolios":      s.TotalPortfolios,
		"total_transactions":    s.TotalTransactions,
		"total_investment":      money(s.TotalInvestment),
		"current_value":         money(s.CurrentValue),
		"profit_loss":           money(s.ProfitLoss),
		"profit_loss_pct":       money(s.ProfitLossPct),
		"profit_loss_24h":       money(s.ProfitLoss24h),
		"pct_profit_loss_24h":   money(s.PctProfitLoss24h),
		"holdings_percentage":   encodeBreakdown(s.HoldingsPercentage),
		"history":               encodeHistory(s.History),
		"top_gainer_24h":        encodeTopGainer(s.TopGainer24h),
		"positive_transactions": s.PositiveTransactions,
		"negative_transactions": s.NegativeTransactions,
		"positive_watched":      s.PositiveWatched,
		"negative_watched":      s.NegativeWatched,
		"generated_at":          timestamp(s.GeneratedAt),
	})
}

func encodeValuation(v *portfolio.Valuation) (*structpb.Struct, error) {
	assets := make([]interface{}, 0, len(v.Assets))
	for _, a := range v.Assets {
		txs := make([]interface{}, 0, len(a.Transactions))
		for i := range a.Transactions {
			tv := a.Transactions[i]
			entry := encodeTransaction(&tv.Transaction)
			entry["profit_loss"] = nullMoney(tv.ProfitLoss)
			entry["profit_loss_pct"] = nullMoney(tv.ProfitLossPct)
			txs = append(txs, entry)
		}
		assets = append(assets, map[string]interface{}{
			"asset":               encodeAsset(a.Asset),
			"holdings":            a.Holdings.String(),
			"avg_net_cost":        money(a.AvgNetCost),
			"total_invested":      money(a.TotalInvested),
			"current_value":       money(a.CurrentValue),
			"profit_loss":         money(a.ProfitLoss),
			"profit_loss_pct":     money(a.ProfitLossPct),
			"profit_loss_24h":     money(a.ProfitLoss24h),
			"pct_profit_loss_24h": money(a.PctProfitLoss24h),
			"transactions":        txs,
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"portfolio_id":        v.Portfolio.ID.String(),
		"title":               v.Portfolio.Title,
		"kind":                string(v.Portfolio.Kind),
		"assets":              assets,
		"total_transactions":  v.TotalTransactions,
		"total_investment":    money(v.TotalInvestment),
		"current_value":       money(v.CurrentValue),
		"profit_loss":         money(v.ProfitLoss),
		"profit_loss_pct":     money(v.ProfitLossPct),
		"profit_loss_24h":     money(v.ProfitLoss24h),
		"pct_profit_loss_24h": money(v.PctProfitLoss24h),
		"holdings_percentage": encodeBreakdown(v.HoldingsPercentage),
		"history":             encodeHistory(v.History),
		"evaluated_at":        timestamp(v.EvaluatedAt),
	})
}

func encodeWatched(w *domain.WatchedAsset) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":           w.ID.String(),
		"portfolio_id": w.PortfolioID.String(),
		"asset":        encodeAsset(w.Asset),
	})
}

func encodePortfolio(p *domain.Portfolio) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID.String(),
		"owner_id":    p.OwnerID.String(),
		"title":       p.Title,
		"description": p.Description,
		"color":       p.Color,
		"kind":        string(p.Kind),
		"is_public":   p.IsPublic,
		"created_at":  timestamp(p.CreatedAt),
		"updated_at":  timestamp(p.UpdatedAt),
	}
}
