package condition

import (
	"sort"
	"time"

	"github.com/okalita/spot-optimizer/internal/pricing"
)

// Context carries one evaluation instant: the wall-clock time being
// evaluated, the borrowed price series, and the absolute series index of the
// current hour. Contexts are constructed fresh per evaluation and never
// mutated; the batch driver produces a new context per hour instead of
// rewinding a shared one.
type Context struct {
	Now      time.Time
	Prices   []float64
	NowIndex int
}

// NewContext builds an evaluation context. nowIndex must address an element
// of prices; evaluation against a context violating that is a caller bug and
// surfaces through the rank statistics errors.
func NewContext(now time.Time, prices []float64, nowIndex int) *Context {
	return &Context{Now: now, Prices: prices, NowIndex: nowIndex}
}

// CurrentPrice returns the price of the hour being evaluated.
func (c *Context) CurrentPrice() float64 {
	return c.Prices[c.NowIndex]
}

// Evaluate walks the tree against a single instant. Unsatisfiable windows
// fail closed: an ill-defined window means "condition not met", never an
// error or a panic.
func (n *Node) Evaluate(ctx *Context) bool {
	switch n.Kind {
	case KindAnd:
		// A vacuous conjunction is false, not true.
		if len(n.Children) == 0 {
			return false
		}
		for _, child := range n.Children {
			if !child.Evaluate(ctx) {
				return false
			}
		}
		return true

	case KindOr:
		for _, child := range n.Children {
			if child.Evaluate(ctx) {
				return true
			}
		}
		return false

	case KindNot:
		if n.Child == nil {
			return false
		}
		return !n.Child.Evaluate(ctx)

	case KindPrice:
		return ctx.CurrentPrice() <= n.Price

	case KindHours:
		// Hour of day comes from the timestamp, independent of the series.
		hour := ctx.Now.Hour()
		return n.HourFrom <= hour && hour <= n.HourTo

	case KindPercentile:
		window, ok := pricing.Resolve(n.Range, ctx.Prices, ctx.NowIndex)
		if !ok {
			return false
		}
		rank, err := pricing.Rank(window)
		if err != nil {
			return false
		}
		return rank <= n.Value

	case KindCheap:
		return n.evaluateCheap(ctx)
	}

	return false
}

// evaluateCheap answers "is the current price among the Count cheapest hours
// of the daily band". The band comes from the dedicated band slicer, not
// from the percentile window resolution.
func (n *Node) evaluateCheap(ctx *Context) bool {
	band, ok := pricing.SliceBand(ctx.Prices, ctx.NowIndex, n.BandFrom, n.BandTo)
	if !ok {
		return false
	}

	sort.Float64s(band)
	current := ctx.CurrentPrice()

	// Position of the first price strictly above the current one, or the
	// band length when nothing is more expensive.
	position := len(band)
	for i, price := range band {
		if price > current {
			position = i
			break
		}
	}

	return position <= n.Count
}

// EvaluateAll replays the tree at every hour of the series and returns one
// boolean per hour, in series order. The result always has the same length
// as the price series.
func (n *Node) EvaluateAll(ctx *Context) []bool {
	seriesStart := ctx.Now.Add(-time.Duration(ctx.NowIndex) * time.Hour)

	results := make([]bool, len(ctx.Prices))
	for i := range ctx.Prices {
		hourCtx := &Context{
			Now:      seriesStart.Add(time.Duration(i) * time.Hour),
			Prices:   ctx.Prices,
			NowIndex: i,
		}
		results[i] = n.Evaluate(hourCtx)
	}
	return results
}
