package history

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/folio-backend/internal/domain"
)

var logger = logrus.WithField("component", "history")

// TradeLine is one asset's ledger sorted by date, oldest first
// Entries sharing a date keep their input order.
type TradeLine struct {
	txs []domain.Transaction
}

// NewTradeLine copies and stable-sorts the given transactions
func NewTradeLine(txs []domain.Transaction) *TradeLine {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &TradeLine{txs: sorted}
}

// Len returns the number of trades on the line
func (l *TradeLine) Len() int {
	if l == nil {
		return 0
	}
	return len(l.txs)
}

type pricePoint struct {
	date  time.Time
	price decimal.Decimal
}

// PriceLine is one asset's priced observations for one period, oldest first
// A PriceLine is immutable once built and can be shared between goroutines.
type PriceLine struct {
	period domain.Period
	points []pricePoint
}

// NewPriceLine builds a line from the points of the given period
// Points of another period and points without an open or close are skipped.
// When several points share a date, the one given last wins.
func NewPriceLine(period domain.Period, points []*domain.HistoricalPricePoint) *PriceLine {
	priced := make([]pricePoint, 0, len(points))
	for _, p := range points {
		if p == nil || p.Period != period {
			continue
		}
		price, ok := p.Price()
		if !ok {
			continue
		}
		priced = append(priced, pricePoint{date: p.Date, price: price})
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].date.Before(priced[j].date)
	})

	collapsed := priced[:0]
	for _, p := range priced {
		if n := len(collapsed); n > 0 && collapsed[n-1].date.Equal(p.date) {
			logger.WithFields(logrus.Fields{
				"period": period,
				"date":   p.date,
			}).Debug("Collapsing duplicate price point, keeping the last one")
			collapsed[n-1] = p
			continue
		}
		collapsed = append(collapsed, p)
	}

	return &PriceLine{period: period, points: collapsed}
}

// Period returns the period the line was built for
func (l *PriceLine) Period() domain.Period {
	return l.period
}

// Len returns the number of priced points on the line
func (l *PriceLine) Len() int {
	if l == nil {
		return 0
	}
	return len(l.points)
}

// PriceAt returns the price of the latest point dated at or before t
func (l *PriceLine) PriceAt(t time.Time) (decimal.Decimal, bool) {
	if l == nil {
		return decimal.Zero, false
	}
	i := sort.Search(len(l.points), func(i int) bool {
		return l.points[i].date.After(t)
	})
	if i == 0 {
		return decimal.Zero, false
	}
	return l.points[i-1].price, true
}
