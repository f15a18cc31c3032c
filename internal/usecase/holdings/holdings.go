package holdings

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
)

var logger = logrus.WithField("component", "holdings")

// Position is the derived state of one asset within one portfolio
type Position struct {
	Holdings      decimal.Decimal // boughtQty - soldQty, never negative
	AvgNetCost    decimal.Decimal // (totalBought - totalSold) / Holdings, zero when nothing is held
	TotalInvested decimal.Decimal // gross capital committed: totalBought
	TotalBought   decimal.Decimal
	TotalSold     decimal.Decimal
	BoughtQty     decimal.Decimal
	SoldQty       decimal.Decimal
	Clamped       bool // the ledger sold more than it bought and Holdings was forced to zero
}

// NetCost returns Holdings x AvgNetCost, the cost basis of what is currently held
func (p Position) NetCost() decimal.Decimal {
	return p.Holdings.Mul(p.AvgNetCost)
}

// Calculate derives the position from every given transaction
// Transactions are expected to belong to a single (portfolio, asset) pair.
func Calculate(txs []domain.Transaction) Position {
	return calculate(txs, nil)
}

// CalculateAsOf derives the position from the transactions dated at or before asOf
func CalculateAsOf(txs []domain.Transaction, asOf time.Time) Position {
	return calculate(txs, &asOf)
}

func calculate(txs []domain.Transaction, asOf *time.Time) Position {
	var p Position
	for i := range txs {
		tx := &txs[i]
		if asOf != nil && tx.Date.After(*asOf) {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeBuy:
			p.TotalBought = p.TotalBought.Add(tx.Value())
			p.BoughtQty = p.BoughtQty.Add(tx.Amount)
		case domain.TransactionTypeSell:
			p.TotalSold = p.TotalSold.Add(tx.Value())
			p.SoldQty = p.SoldQty.Add(tx.Amount)
		}
	}

	p.TotalInvested = p.TotalBought
	p.Holdings = p.BoughtQty.Sub(p.SoldQty)

	if p.Holdings.IsNegative() {
		fields := logrus.Fields{"holdings": p.Holdings.String()}
		if len(txs) > 0 {
			fields["portfolio_id"] = txs[0].PortfolioID
			fields["asset_id"] = txs[0].AssetID
		}
		logger.WithFields(fields).Warn("Ledger sells more than it buys, clamping holdings to zero")
		p.Holdings = decimal.Zero
		p.Clamped = true
	}

	if p.Holdings.IsPositive() {
		p.AvgNetCost = p.TotalBought.Sub(p.TotalSold).Div(p.Holdings)
	}

	return p
}

// Replay returns the holdings after each transaction, in the given order
// Unlike Calculate, it does not clamp: a negative entry marks an oversold prefix.
func Replay(txs []domain.Transaction) []decimal.Decimal {
	out := make([]decimal.Decimal, len(txs))
	held := decimal.Zero
	for i := range txs {
		held = held.Add(txs[i].SignedAmount())
		out[i] = held
	}
	return out
}

// FirstOversold returns the index of the first transaction after which holdings
// are negative, or -1 when every prefix is non-negative
func FirstOversold(txs []domain.Transaction) int {
	for i, held := range Replay(txs) {
		if held.IsNegative() {
			return i
		}
	}
	return -1
}
