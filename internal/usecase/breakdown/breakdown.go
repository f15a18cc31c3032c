package breakdown

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// TopN is the number of named entries before the rest is folded into Other
	TopN = 6
	// OtherKey is the symbol of the folded remainder entry
	OtherKey = "Other"
)

var (
	hundred    = decimal.NewFromInt(100)
	hundredths = decimal.NewFromInt(10000)
)

// Entry is one slice of the breakdown
type Entry struct {
	Symbol     string
	Percentage decimal.Decimal // rounded to 2 decimals
}

// Breakdown is a top-N + Other percentage split, largest entry first
// Other, when present, is always last.
type Breakdown struct {
	Entries []Entry
}

// AsMap returns the symbol to percentage mapping
func (b Breakdown) AsMap() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b.Entries))
	for _, e := range b.Entries {
		out[e.Symbol] = e.Percentage
	}
	return out
}

// Total returns the sum of every entry's percentage
func (b Breakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.Entries {
		total = total.Add(e.Percentage)
	}
	return total
}

type bucket struct {
	symbol string
	value  decimal.Decimal
	units  decimal.Decimal // whole hundredths of a percent
	rest   decimal.Decimal // fractional hundredths dropped by the floor
}

// Compute splits the given current values into percentages of their total
// Logic:
//   - non-positive values are ignored; a zero total yields an empty breakdown
//   - values are ranked descending, ties by symbol ascending
//   - the first TopN become named entries, the remainder is summed into Other
//   - hundredths are apportioned by largest remainder so entries sum to exactly 100.00
//   - an entry, Other included, that rounds to 0.00 is dropped
func Compute(values map[string]decimal.Decimal) Breakdown {
	ranked := make([]bucket, 0, len(values))
	total := decimal.Zero
	for symbol, v := range values {
		if !v.IsPositive() {
			continue
		}
		ranked = append(ranked, bucket{symbol: symbol, value: v})
		total = total.Add(v)
	}
	if total.IsZero() {
		return Breakdown{}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].value.Equal(ranked[j].value) {
			return ranked[i].value.GreaterThan(ranked[j].value)
		}
		return ranked[i].symbol < ranked[j].symbol
	})

	buckets := ranked
	if len(ranked) > TopN {
		other := bucket{symbol: OtherKey, value: decimal.Zero}
		for _, b := range ranked[TopN:] {
			other.value = other.value.Add(b.value)
		}
		buckets = append(ranked[:TopN:TopN], other)
	}

	apportion(buckets, total)

	entries := make([]Entry, 0, len(buckets))
	for _, b := range buckets {
		if b.units.IsZero() {
			continue
		}
		entries = append(entries, Entry{Symbol: b.symbol, Percentage: b.units.Div(hundred)})
	}
	return Breakdown{Entries: entries}
}

// apportion assigns each bucket a whole number of hundredths so the total is 10000
func apportion(buckets []bucket, total decimal.Decimal) {
	assigned := decimal.Zero
	for i := range buckets {
		exact := buckets[i].value.Mul(hundredths).Div(total)
		buckets[i].units = exact.Floor()
		buckets[i].rest = exact.Sub(buckets[i].units)
		assigned = assigned.Add(buckets[i].units)
	}

	left := int(hundredths.Sub(assigned).IntPart())
	if left <= 0 {
		return
	}

	order := make([]int, len(buckets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return buckets[order[a]].rest.GreaterThan(buckets[order[b]].rest)
	})

	one := decimal.NewFromInt(1)
	for k := 0; k < left && k < len(order); k++ {
		buckets[order[k]].units = buckets[order[k]].units.Add(one)
	}
}
