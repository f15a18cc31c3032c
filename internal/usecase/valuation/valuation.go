package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/holdings"
)

var hundred = decimal.NewFromInt(100)

// Result is the valuation of one held asset
type Result struct {
	Holdings      decimal.Decimal
	AvgNetCost    decimal.Decimal
	TotalInvested decimal.Decimal
	CurrentValue  decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitLossPct decimal.Decimal

	// ProfitLoss24h is an estimate, not an audited P&L: it assumes the whole
	// current value went through the quoted 24h move, which is not exact for
	// positions opened or resized during the last day.
	ProfitLoss24h    decimal.Decimal
	PctProfitLoss24h decimal.Decimal
}

// Estimate values a position at the given price and 24h percentage change
// Logic:
//   - CurrentValue = Holdings x price
//   - ProfitLoss = CurrentValue - Holdings x AvgNetCost
//   - ProfitLossPct = ProfitLoss / (Holdings x AvgNetCost) x 100, zero when the cost basis is zero
//   - ProfitLoss24h = change24h / 100 x CurrentValue
func Estimate(pos holdings.Position, price, change24h decimal.Decimal) Result {
	currentValue := pos.Holdings.Mul(price)
	netCost := pos.NetCost()
	profitLoss := currentValue.Sub(netCost)
	profitLoss24h := change24h.Div(hundred).Mul(currentValue)

	return Result{
		Holdings:         pos.Holdings,
		AvgNetCost:       pos.AvgNetCost,
		TotalInvested:    pos.TotalInvested,
		CurrentValue:     currentValue,
		ProfitLoss:       profitLoss,
		ProfitLossPct:    Percent(profitLoss, netCost),
		ProfitLoss24h:    profitLoss24h,
		PctProfitLoss24h: Percent(profitLoss24h, currentValue),
	}
}

// EstimateAsset values a position at the asset's current snapshot
func EstimateAsset(pos holdings.Position, asset *domain.Asset) Result {
	return Estimate(pos, asset.CurrentPrice, asset.Change24h())
}

// Percent returns part / whole x 100, or zero when whole is zero
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// TransactionPnL is the unrealized result of a single ledger entry
// Both fields are absent for sells, which are already-realized exits.
type TransactionPnL struct {
	ProfitLoss    decimal.NullDecimal
	ProfitLossPct decimal.NullDecimal
}

// TransactionProfitLoss computes amount x (currentPrice - pricePerUnit) for a buy
func TransactionProfitLoss(tx *domain.Transaction, currentPrice decimal.Decimal) TransactionPnL {
	if tx.Type != domain.TransactionTypeBuy {
		return TransactionPnL{}
	}
	diff := currentPrice.Sub(tx.PricePerUnit)
	return TransactionPnL{
		ProfitLoss:    decimal.NewNullDecimal(tx.Amount.Mul(diff)),
		ProfitLossPct: decimal.NewNullDecimal(Percent(diff, tx.PricePerUnit)),
	}
}
