package pricing

import (
	"errors"
	"sort"
)

var (
	// ErrEmptyWindow is returned when rank statistics are requested for a
	// window with no prices. This indicates a malformed evaluation context,
	// not an unsatisfiable condition.
	ErrEmptyWindow = errors.New("empty price window")
	// ErrIndexOutOfRange is returned when a window's relative index does not
	// address any of its prices.
	ErrIndexOutOfRange = errors.New("window index out of range")
)

// Rank reports where the window's current price sits among all prices in the
// window, as a value in [0, 1] where 0 is the cheapest hour and 1 the most
// expensive. Ties resolve to the lowest rank among equal values. A window of
// exactly one price ranks 1.
func Rank(w Window) (float64, error) {
	if len(w.Prices) == 0 {
		return 0, ErrEmptyWindow
	}
	if w.RelativeIndex < 0 || w.RelativeIndex >= len(w.Prices) {
		return 0, ErrIndexOutOfRange
	}
	if len(w.Prices) == 1 {
		return 1, nil
	}

	target := w.Prices[w.RelativeIndex]
	sorted := clonePrices(w.Prices)
	sort.Float64s(sorted)

	position := 0
	for i, price := range sorted {
		if price == target {
			position = i
			break
		}
	}

	return float64(position) / float64(len(sorted)-1), nil
}

// CheapestHour returns the index and price of the cheapest hour in prices.
// The slice must be non-empty.
func CheapestHour(prices []float64) (int, float64) {
	best := 0
	for i, price := range prices {
		if price < prices[best] {
			best = i
		}
	}
	return best, prices[best]
}

// MostExpensiveHour returns the index and price of the most expensive hour
// in prices. The slice must be non-empty.
func MostExpensiveHour(prices []float64) (int, float64) {
	best := 0
	for i, price := range prices {
		if price > prices[best] {
			best = i
		}
	}
	return best, prices[best]
}
