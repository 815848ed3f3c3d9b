package pricestore

import "github.com/okalita/spot-optimizer/internal/pricing"

// Tariff models the distribution fee schedule layered on top of the spot
// price: a higher per-MWh adder during the listed high-tariff hours and a
// lower one otherwise.
type Tariff struct {
	HighHours []int
	HighPrice float64
	LowPrice  float64
}

// TotalPrices returns the day's spot prices with the distribution adder
// applied per hour.
func (t Tariff) TotalPrices(day DayPrices) DayPrices {
	total := day
	for hour := range total {
		if t.isHighHour(hour) {
			total[hour] += t.HighPrice
		} else {
			total[hour] += t.LowPrice
		}
	}
	return total
}

// Labels returns the per-hour tariff band labels: "V" for high-tariff hours,
// "N" for low-tariff hours.
func (t Tariff) Labels() [pricing.HoursPerDay]string {
	var labels [pricing.HoursPerDay]string
	for hour := range labels {
		if t.isHighHour(hour) {
			labels[hour] = "V"
		} else {
			labels[hour] = "N"
		}
	}
	return labels
}

func (t Tariff) isHighHour(hour int) bool {
	for _, high := range t.HighHours {
		if high == hour {
			return true
		}
	}
	return false
}
