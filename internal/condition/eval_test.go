package condition

import (
	"reflect"
	"testing"
	"time"

	"github.com/okalita/spot-optimizer/internal/pricing"
)

// oneDayContext evaluates hour 2 of a single day priced [0.0 .. 23.0].
func oneDayContext() *Context {
	return NewContext(
		time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC),
		sequence(24),
		2,
	)
}

// twoDayContext evaluates hour 2 of the second of two days priced [0.0 .. 47.0].
func twoDayContext() *Context {
	return NewContext(
		time.Date(2020, 1, 2, 2, 0, 0, 0, time.UTC),
		sequence(48),
		26,
	)
}

func sequence(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = float64(i)
	}
	return prices
}

// alwaysTrue and alwaysFalse are leaves with a fixed outcome against the
// test contexts, where every price is non-negative.
func alwaysTrue() *Node  { return PriceBelow(1000) }
func alwaysFalse() *Node { return PriceBelow(-1) }

func TestEvaluatePrice(t *testing.T) {
	ctx := oneDayContext()

	if !PriceBelow(100).Evaluate(ctx) {
		t.Error("price 100 should cover the current price 2.0")
	}
	if PriceBelow(0).Evaluate(ctx) {
		t.Error("price 0 should not cover the current price 2.0")
	}

	all := PriceBelow(0).EvaluateAll(ctx)
	want := make([]bool, 24)
	want[0] = true
	if !reflect.DeepEqual(all, want) {
		t.Errorf("EvaluateAll(price 0) = %v, want true only at hour 0", all)
	}
}

func TestEvaluateHours(t *testing.T) {
	ctx := oneDayContext() // now is 02:00

	tests := []struct {
		from, to int
		want     bool
	}{
		{0, 2, true},
		{3, 4, false},
		{1, 3, true},
		{2, 2, true},
	}
	for _, tt := range tests {
		if got := HoursBetween(tt.from, tt.to).Evaluate(ctx); got != tt.want {
			t.Errorf("hours [%d, %d] = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	all := HoursBetween(1, 3).EvaluateAll(ctx)
	want := make([]bool, 24)
	want[1], want[2], want[3] = true, true, true
	if !reflect.DeepEqual(all, want) {
		t.Errorf("EvaluateAll(hours 1-3) = %v, want true at hours 1-3", all)
	}
}

func TestEvaluateNot(t *testing.T) {
	ctx := oneDayContext()

	if Not(alwaysTrue()).Evaluate(ctx) {
		t.Error("not(true) should be false")
	}
	if !Not(alwaysFalse()).Evaluate(ctx) {
		t.Error("not(false) should be true")
	}
	if (&Node{Kind: KindNot}).Evaluate(ctx) {
		t.Error("not without a child should fail closed")
	}
}

func TestEvaluateAnd(t *testing.T) {
	ctx := oneDayContext()

	// A vacuous conjunction is false by definition.
	if And().Evaluate(ctx) {
		t.Error("and([]) should be false")
	}

	// Single child mirrors the child.
	if !And(alwaysTrue()).Evaluate(ctx) {
		t.Error("and(true) should be true")
	}
	if And(alwaysFalse()).Evaluate(ctx) {
		t.Error("and(false) should be false")
	}

	tests := []struct {
		left, right *Node
		want        bool
	}{
		{alwaysTrue(), alwaysTrue(), true},
		{alwaysTrue(), alwaysFalse(), false},
		{alwaysFalse(), alwaysTrue(), false},
		{alwaysFalse(), alwaysFalse(), false},
	}
	for _, tt := range tests {
		if got := And(tt.left, tt.right).Evaluate(ctx); got != tt.want {
			t.Errorf("and combination = %v, want %v", got, tt.want)
		}
	}
}

func TestEvaluateOr(t *testing.T) {
	ctx := oneDayContext()

	if Or().Evaluate(ctx) {
		t.Error("or([]) should be false")
	}

	if !Or(alwaysTrue()).Evaluate(ctx) {
		t.Error("or(true) should be true")
	}
	if Or(alwaysFalse()).Evaluate(ctx) {
		t.Error("or(false) should be false")
	}

	tests := []struct {
		left, right *Node
		want        bool
	}{
		{alwaysTrue(), alwaysTrue(), true},
		{alwaysTrue(), alwaysFalse(), true},
		{alwaysFalse(), alwaysTrue(), true},
		{alwaysFalse(), alwaysFalse(), false},
	}
	for _, tt := range tests {
		if got := Or(tt.left, tt.right).Evaluate(ctx); got != tt.want {
			t.Errorf("or combination = %v, want %v", got, tt.want)
		}
	}
}

func TestEvaluateCheapToday(t *testing.T) {
	ctx := oneDayContext() // current hour is 2, price 2.0

	tests := []struct {
		name             string
		count, from, to  int
		want             bool
	}{
		{"Single price band is always cheapest", 1, 2, 3, true},
		{"Now outside the band", 24, 3, 24, false},
		{"Among the three cheapest of 0-3", 3, 0, 3, true},
		{"Not among the two cheapest of 0-3", 2, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheapestAmong(tt.count, tt.from, tt.to).Evaluate(ctx)
			if got != tt.want {
				t.Errorf("cheap{%d, %d, %d} = %v, want %v", tt.count, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestEvaluateCheapAcrossMidnight(t *testing.T) {
	now := time.Date(2025, 2, 16, 0, 43, 0, 0, time.UTC)

	// Yesterday flat at 10, today starts cheap; now is today's first hour.
	prices := make([]float64, 48)
	for i := range prices {
		prices[i] = 10
	}
	prices[24] = 9
	prices[47] = 1
	ctx := NewContext(now, prices, 24)

	cheap := CheapestAmong(1, 23, 1)
	if !cheap.Evaluate(ctx) {
		t.Error("today's 9.0 should be the cheapest of the 23-1 band")
	}

	// A cheaper price in yesterday's 23:00 pushes now out of the top spot.
	prices[23] = 8
	if cheap.Evaluate(ctx) {
		t.Error("yesterday's 8.0 should displace today's 9.0")
	}
}

func TestEvaluateCheapIntoTomorrow(t *testing.T) {
	now := time.Date(2025, 2, 16, 23, 43, 0, 0, time.UTC)

	// Now is today's last hour; the band reaches into tomorrow.
	prices := make([]float64, 48)
	for i := range prices {
		prices[i] = 10
	}
	prices[0] = 1
	prices[23] = 9
	ctx := NewContext(now, prices, 23)

	cheap := CheapestAmong(1, 23, 1)
	if !cheap.Evaluate(ctx) {
		t.Error("today's 9.0 should be the cheapest of the 23-1 band")
	}

	prices[24] = 8
	if cheap.Evaluate(ctx) {
		t.Error("tomorrow's 8.0 should displace today's 9.0")
	}
}

func TestEvaluatePercentile(t *testing.T) {
	ctx := twoDayContext() // hour 2 of the second day, price 26.0

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		// Rank of 26.0 within today's [24.0 .. 47.0] is 2/23.
		{"Within today's cheapest tenth", PercentileBelow(0.1, pricing.Today()), true},
		{"Not within today's cheapest twentieth", PercentileBelow(0.05, pricing.Today()), false},
		// The current hour is the cheapest of the remaining series.
		{"Cheapest of the future", PercentileBelow(0, pricing.Future()), true},
		// Middle of a symmetric three-hour window.
		{"Median of plus-minus one", PercentileBelow(0.5, pricing.PlusMinusHours(1)), true},
		{"Below median of plus-minus one", PercentileBelow(0.4, pricing.PlusMinusHours(1)), false},
		// Unsatisfiable windows fail closed.
		{"Band not containing now", PercentileBelow(1, pricing.FromTo(8, 20)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Evaluate(ctx); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluatePercentileTruncatedDay(t *testing.T) {
	// The second day has only two hours of data; a today-window cannot be
	// resolved and the condition fails closed.
	ctx := NewContext(time.Date(2020, 1, 2, 1, 0, 0, 0, time.UTC), sequence(26), 25)
	if PercentileBelow(1, pricing.Today()).Evaluate(ctx) {
		t.Error("percentile over a truncated day should be false")
	}
}

func TestEvaluateAllLengthMatchesSeries(t *testing.T) {
	trees := []*Node{
		And(),
		Or(),
		PriceBelow(10),
		Not(HoursBetween(0, 5)),
		PercentileBelow(0.3, pricing.Future()),
		CheapestAmong(3, 22, 6),
		And(PriceBelow(10), Or(HoursBetween(0, 5), CheapestAmong(1, 2, 2))),
	}

	for _, lenPrices := range []int{24, 48, 72} {
		ctx := NewContext(time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC), sequence(lenPrices), 2)
		for _, tree := range trees {
			if got := len(tree.EvaluateAll(ctx)); got != lenPrices {
				t.Errorf("EvaluateAll() length = %d, want %d", got, lenPrices)
			}
		}
	}
}

func TestEvaluateAllShiftsClock(t *testing.T) {
	// Batch replay must derive each hour's wall clock from the series
	// index, so hour-of-day leaves follow the series across days.
	ctx := twoDayContext()

	all := HoursBetween(2, 2).EvaluateAll(ctx)
	for i, got := range all {
		want := i%24 == 2
		if got != want {
			t.Errorf("hour %d = %v, want %v", i, got, want)
		}
	}
}
