package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period tags the reconstruction window a historical price point was captured for
type Period string

const (
	PeriodWeek  Period = "1w"
	PeriodMonth Period = "1m"
	PeriodYear  Period = "1y"
	PeriodMax   Period = "max"
)

// Valid reports whether p is one of the known period tags
func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodMax:
		return true
	}
	return false
}

// HistoricalPricePoint represents one OHLC observation of an asset
// At most one point exists per (AssetID, Period, Date).
type HistoricalPricePoint struct {
	ID       uuid.UUID
	AssetID  uuid.UUID
	Date     time.Time
	Open     decimal.NullDecimal
	High     decimal.NullDecimal
	Low      decimal.NullDecimal
	Close    decimal.NullDecimal
	Volume   decimal.NullDecimal
	Interval string // e.g. "1h", "1d", "1wk"
	Period   Period
}

// Price returns the price used for valuation: the close when present, otherwise the open.
// ok is false when the point carries neither.
func (p *HistoricalPricePoint) Price() (price decimal.Decimal, ok bool) {
	if p.Close.Valid {
		return p.Close.Decimal, true
	}
	if p.Open.Valid {
		return p.Open.Decimal, true
	}
	return decimal.Zero, false
}

// Validate ensures the point can be recorded
func (p *HistoricalPricePoint) Validate() error {
	if p.Date.IsZero() {
		return fmt.Errorf("%w: price point date is required", ErrValidation)
	}
	if !p.Period.Valid() {
		return fmt.Errorf("%w: unknown period %q", ErrValidation, p.Period)
	}
	if p.Interval == "" {
		return fmt.Errorf("%w: price point interval is required", ErrValidation)
	}
	price, ok := p.Price()
	if !ok {
		return fmt.Errorf("%w: price point must carry an open or close price", ErrValidation)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price point price must be positive", ErrInvalidPrice)
	}
	return nil
}
