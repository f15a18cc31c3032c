package history

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sample is the portfolio value at one instant
type Sample struct {
	Date  time.Time
	Value decimal.Decimal
}

// Series is a reconstructed value curve, oldest sample first
type Series struct {
	Window  Window
	Samples []Sample
}

// Input is everything the reconstructor needs about one watched asset
type Input struct {
	Symbol       string
	CurrentPrice decimal.Decimal // used for samples older than the first price point
	Trades       *TradeLine
	Prices       *PriceLine
}

// cursor walks one asset's trades and prices forward in time
type cursor struct {
	in        Input
	nextTrade int
	nextPrice int
	held      decimal.Decimal
	price     decimal.Decimal
	priced    bool
}

// advanceTo consumes every trade and price point dated at or before t
func (c *cursor) advanceTo(t time.Time) {
	if trades := c.in.Trades; trades != nil {
		for c.nextTrade < len(trades.txs) && !trades.txs[c.nextTrade].Date.After(t) {
			c.held = c.held.Add(trades.txs[c.nextTrade].SignedAmount())
			c.nextTrade++
		}
	}
	if prices := c.in.Prices; prices != nil {
		for c.nextPrice < len(prices.points) && !prices.points[c.nextPrice].date.After(t) {
			c.price = prices.points[c.nextPrice].price
			c.priced = true
			c.nextPrice++
		}
	}
}

// value returns holdings x price at the cursor's current position
func (c *cursor) value() decimal.Decimal {
	held := c.held
	if held.IsNegative() {
		held = decimal.Zero
	}
	price := c.in.CurrentPrice
	if c.priced {
		price = c.price
	}
	return held.Mul(price)
}

// Reconstruct samples the combined value of the given assets over one window
// Each asset's trades and prices are walked once, so the cost is linear in
// trades + prices + samples per asset. The context is checked before every
// sample; on cancellation the samples emitted so far are returned with the error.
func Reconstruct(ctx context.Context, spec WindowSpec, now time.Time, inputs []Input) (Series, error) {
	series := Series{
		Window:  spec.Window,
		Samples: make([]Sample, 0, spec.SampleCount()),
	}

	cursors := make([]cursor, len(inputs))
	for i, in := range inputs {
		cursors[i] = cursor{in: in}
	}

	for i := 0; i <= spec.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return series, err
		}

		at := spec.SampleAt(now, i)
		total := decimal.Zero
		for j := range cursors {
			cursors[j].advanceTo(at)
			total = total.Add(cursors[j].value())
		}

		series.Samples = append(series.Samples, Sample{Date: at, Value: total.Round(2)})
	}

	return series, nil
}

// Flat returns the window's sample grid with every value zero
func Flat(spec WindowSpec, now time.Time) Series {
	series := Series{Window: spec.Window, Samples: make([]Sample, spec.SampleCount())}
	for i := range series.Samples {
		series.Samples[i] = Sample{Date: spec.SampleAt(now, i), Value: decimal.Zero}
	}
	return series
}
