package pricing

import (
	"errors"
	"testing"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		want    float64
		wantErr error
	}{
		{
			name:   "Single price is the extreme",
			window: Window{Prices: []float64{42}, RelativeIndex: 0},
			want:   1,
		},
		{
			name:   "Cheapest of unique values",
			window: Window{Prices: []float64{3, 1, 2}, RelativeIndex: 1},
			want:   0,
		},
		{
			name:   "Most expensive of unique values",
			window: Window{Prices: []float64{3, 1, 2}, RelativeIndex: 0},
			want:   1,
		},
		{
			name:   "Middle of unique values",
			window: Window{Prices: []float64{3, 1, 2}, RelativeIndex: 2},
			want:   0.5,
		},
		{
			name:   "Ties resolve to the lowest rank",
			window: Window{Prices: []float64{5, 5, 5, 9}, RelativeIndex: 2},
			want:   0,
		},
		{
			name:    "Empty window",
			window:  Window{},
			wantErr: ErrEmptyWindow,
		},
		{
			name:    "Index past the window",
			window:  Window{Prices: []float64{1, 2}, RelativeIndex: 2},
			wantErr: ErrIndexOutOfRange,
		},
		{
			name:    "Negative index",
			window:  Window{Prices: []float64{1, 2}, RelativeIndex: -1},
			wantErr: ErrIndexOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rank(tt.window)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Rank() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Rank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankStaysInUnitInterval(t *testing.T) {
	prices := sequence(24)
	for i := range prices {
		rank, err := Rank(Window{Prices: prices, RelativeIndex: i})
		if err != nil {
			t.Fatalf("Rank() error = %v at index %d", err, i)
		}
		if rank < 0 || rank > 1 {
			t.Errorf("Rank() = %v at index %d, want within [0, 1]", rank, i)
		}
	}
}

func TestCheapestAndMostExpensiveHour(t *testing.T) {
	prices := []float64{30, 12, 55, 12, 80}

	if idx, price := CheapestHour(prices); idx != 1 || price != 12 {
		t.Errorf("CheapestHour() = (%d, %v), want (1, 12)", idx, price)
	}
	if idx, price := MostExpensiveHour(prices); idx != 4 || price != 80 {
		t.Errorf("MostExpensiveHour() = (%d, %v), want (4, 80)", idx, price)
	}
}
