// Package pricing implements index-addressed views over hourly electricity
// price series: day-relative window resolution, hour-of-day band slicing
// (including bands that wrap past midnight), and rank statistics.
//
// A price series is an ordered slice of hourly prices spanning one or more
// consecutive calendar days; day d occupies indices [24d, 24d+24).
package pricing

// HoursPerDay is the number of price points per calendar day.
const HoursPerDay = 24

// Window is a contiguous sub-sequence of a price series together with the
// position of the "current" hour inside it. Windows are evaluation-local;
// they hold their own copy of the prices.
type Window struct {
	Prices        []float64
	RelativeIndex int
}

// Resolve converts a RangeSpec plus a (series, nowIndex) pair into a Window.
// It returns ok=false when the requested window is not satisfiable against
// the available data; callers treat that as "condition not met" rather than
// an error.
func Resolve(spec RangeSpec, prices []float64, nowIndex int) (Window, bool) {
	if nowIndex < 0 || nowIndex >= len(prices) {
		return Window{}, false
	}

	switch spec.Kind {
	case RangeToday:
		dayStart := (nowIndex / HoursPerDay) * HoursPerDay
		if dayStart+HoursPerDay > len(prices) {
			return Window{}, false
		}
		return Window{
			Prices:        clonePrices(prices[dayStart : dayStart+HoursPerDay]),
			RelativeIndex: nowIndex - dayStart,
		}, true

	case RangeFuture:
		return Window{
			Prices:        clonePrices(prices[nowIndex:]),
			RelativeIndex: 0,
		}, true

	case RangePlusMinus:
		if spec.Hours < 0 {
			return Window{}, false
		}
		// Saturating at both series edges; the window silently shrinks.
		start := nowIndex - spec.Hours
		if start < 0 {
			start = 0
		}
		end := nowIndex + spec.Hours + 1
		if end > len(prices) {
			end = len(prices)
		}
		return Window{
			Prices:        clonePrices(prices[start:end]),
			RelativeIndex: nowIndex - start,
		}, true

	case RangeFromTo:
		return resolveFromTo(spec.From, spec.To, prices, nowIndex)
	}

	return Window{}, false
}

// resolveFromTo anchors an hour-of-day range to the day containing nowIndex.
// A range with from > to crosses midnight into the following day. The range
// is satisfiable only when nowIndex falls inside it.
func resolveFromTo(from, to int, prices []float64, nowIndex int) (Window, bool) {
	if from < 0 || from >= HoursPerDay || to < 0 || to > HoursPerDay {
		return Window{}, false
	}

	dayStart := (nowIndex / HoursPerDay) * HoursPerDay
	rangeStart := dayStart + from
	if nowIndex < rangeStart {
		return Window{}, false
	}

	rangeEnd := dayStart + to
	if from > to {
		rangeEnd = dayStart + HoursPerDay + to
	}
	if nowIndex >= rangeEnd {
		return Window{}, false
	}
	if rangeEnd > len(prices) {
		return Window{}, false
	}

	return Window{
		Prices:        clonePrices(prices[rangeStart:rangeEnd]),
		RelativeIndex: nowIndex - rangeStart,
	}, true
}

// SliceBand extracts the hour-of-day band [from, to) reinterpreted against
// the day containing nowIndex. The band may wrap past midnight (from > to),
// and from == to denotes the exact single hour [from, from+1). It returns
// ok=false when nowIndex does not fall inside the computed band or the band
// reaches past the end of the series.
//
// This is deliberately a second, independent slicing routine, used only by
// the "cheap" predicate. Its boundary semantics (exclusive upper hour,
// previous-day anchoring when from is ahead of the current hour) differ from
// Resolve's FromTo handling; keep the two separate.
func SliceBand(prices []float64, nowIndex, from, to int) ([]float64, bool) {
	start, end, ok := bandRange(nowIndex, from, to)
	if !ok {
		return nil, false
	}
	if end > len(prices) {
		return nil, false
	}
	return clonePrices(prices[start:end]), true
}

// bandRange maps an hour-of-day band onto absolute series indices.
// from is inclusive, to is exclusive. The band is anchored to the previous
// day when from is ahead of the current hour, so a 22-2 band still covers a
// "now" that already crossed midnight.
func bandRange(nowIndex, from, to int) (start, end int, ok bool) {
	if from < 0 || from >= HoursPerDay || to < 0 || to > HoursPerDay {
		return 0, 0, false
	}
	if from == to {
		// Exact single-hour band.
		to = from + 1
	}

	currentDay := nowIndex / HoursPerDay
	currentHour := nowIndex % HoursPerDay

	fromDay := currentDay
	if from > currentHour {
		fromDay--
	}

	toDay := fromDay
	if from > to {
		// Band crosses midnight, the upper bound lives on the next day.
		toDay++
	}

	start = fromDay*HoursPerDay + from
	end = toDay*HoursPerDay + to
	if start < 0 || end < 0 {
		return 0, 0, false
	}
	if start <= nowIndex && nowIndex < end {
		return start, end, true
	}
	return 0, 0, false
}

func clonePrices(prices []float64) []float64 {
	out := make([]float64, len(prices))
	copy(out, prices)
	return out
}
