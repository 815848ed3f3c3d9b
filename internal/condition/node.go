// Package condition implements a recursive boolean expression language over
// hourly electricity price series. A condition tree is built once (from its
// JSON wire form or via the edit protocol) and then evaluated any number of
// times against immutable price contexts, either at a single hour or
// replayed across every hour of the series.
package condition

import (
	"github.com/okalita/spot-optimizer/internal/pricing"
)

// Kind tags the variant of a Node. The set is closed; evaluation is an
// exhaustive switch over these values.
type Kind string

const (
	KindAnd        Kind = "and"
	KindOr         Kind = "or"
	KindNot        Kind = "not"
	KindPrice      Kind = "price"
	KindHours      Kind = "hours"
	KindPercentile Kind = "percentile"
	KindCheap      Kind = "cheap"
)

// Node is one node of a condition tree. Each child is exclusively owned by
// its parent: the structure is a tree, never a graph. Only the fields
// relevant to Kind are meaningful.
//
// Trees are read-only after construction, with the single exception of
// ApplyEdit, which rewrites a node in place and must not race with readers.
type Node struct {
	Kind Kind

	// and, or
	Children []*Node
	// not
	Child *Node
	// price: true when the current price is at or below Price
	Price float64
	// hours: true when the current hour of day is within [HourFrom, HourTo],
	// inclusive on both ends
	HourFrom int
	HourTo   int
	// percentile: true when the current price ranks at or below Value within
	// the window selected by Range
	Value float64
	Range pricing.RangeSpec
	// cheap: true when the current price is among the Count cheapest hours
	// of the daily band [BandFrom, BandTo)
	Count    int
	BandFrom int
	BandTo   int
}

// And returns a conjunction node. An empty conjunction evaluates false.
func And(children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Kind: KindAnd, Children: children}
}

// Or returns a disjunction node. An empty disjunction evaluates false.
func Or(children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Kind: KindOr, Children: children}
}

// Not returns a negation node.
func Not(child *Node) *Node {
	return &Node{Kind: KindNot, Child: child}
}

// PriceBelow returns a leaf that is true when the current price is at or
// below threshold.
func PriceBelow(threshold float64) *Node {
	return &Node{Kind: KindPrice, Price: threshold}
}

// HoursBetween returns a leaf that is true when the current hour of day lies
// in [from, to], inclusive on both ends.
func HoursBetween(from, to int) *Node {
	return &Node{Kind: KindHours, HourFrom: from, HourTo: to}
}

// PercentileBelow returns a leaf that is true when the current price ranks
// at or below value within the window described by spec.
func PercentileBelow(value float64, spec pricing.RangeSpec) *Node {
	return &Node{Kind: KindPercentile, Value: value, Range: spec}
}

// CheapestAmong returns a leaf that is true when the current price is among
// the count cheapest hours of the daily band [from, to).
func CheapestAmong(count, from, to int) *Node {
	return &Node{Kind: KindCheap, Count: count, BandFrom: from, BandTo: to}
}
