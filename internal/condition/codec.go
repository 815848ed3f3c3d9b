package condition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okalita/spot-optimizer/internal/pricing"
)

// ErrInvalidExpression is the base error for malformed condition wire forms.
// It is always wrapped with detail and is safe to surface to clients.
var ErrInvalidExpression = errors.New("invalid expression")

// The wire form is a tagged single-key JSON object per node, keyed by the
// node kind: {"and":[...]}, {"or":[...]}, {"not":{...}}, {"price":120},
// {"hours":[0,10]}, {"percentile":{"value":0.3,"range":"today"}},
// {"cheap":{"hours":3,"from":22,"to":6}}. A full expression is a JSON array
// of nodes, implicitly wrapped in a top-level conjunction.

type wireNode struct {
	And        *[]*Node        `json:"and,omitempty"`
	Or         *[]*Node        `json:"or,omitempty"`
	Not        *Node           `json:"not,omitempty"`
	Price      *float64        `json:"price,omitempty"`
	Hours      *[2]int         `json:"hours,omitempty"`
	Percentile *wirePercentile `json:"percentile,omitempty"`
	Cheap      *wireCheap      `json:"cheap,omitempty"`
}

type wirePercentile struct {
	Value float64           `json:"value"`
	Range pricing.RangeSpec `json:"range"`
}

// wireCheap keeps the historical field name "hours" for the count of cheap
// hours the current price may rank among.
type wireCheap struct {
	Hours int `json:"hours"`
	From  int `json:"from"`
	To    int `json:"to"`
}

// MarshalJSON encodes the node in its single-key wire form.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindAnd:
		return json.Marshal(map[string][]*Node{"and": childrenOrEmpty(n.Children)})
	case KindOr:
		return json.Marshal(map[string][]*Node{"or": childrenOrEmpty(n.Children)})
	case KindNot:
		return json.Marshal(map[string]*Node{"not": n.Child})
	case KindPrice:
		return json.Marshal(map[string]float64{"price": n.Price})
	case KindHours:
		return json.Marshal(map[string][2]int{"hours": {n.HourFrom, n.HourTo}})
	case KindPercentile:
		return json.Marshal(map[string]wirePercentile{
			"percentile": {Value: n.Value, Range: n.Range},
		})
	case KindCheap:
		return json.Marshal(map[string]wireCheap{
			"cheap": {Hours: n.Count, From: n.BandFrom, To: n.BandTo},
		})
	}
	return nil, fmt.Errorf("%w: unknown node kind %q", ErrInvalidExpression, n.Kind)
}

// UnmarshalJSON decodes a single-key wire object. Objects with zero or more
// than one recognized key are rejected.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire wireNode
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&wire); err != nil {
		if errors.Is(err, ErrInvalidExpression) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	var decoded *Node
	keys := 0
	if wire.And != nil {
		keys++
		decoded = And(*wire.And...)
	}
	if wire.Or != nil {
		keys++
		decoded = Or(*wire.Or...)
	}
	if wire.Not != nil {
		keys++
		decoded = Not(wire.Not)
	}
	if wire.Price != nil {
		keys++
		decoded = PriceBelow(*wire.Price)
	}
	if wire.Hours != nil {
		keys++
		decoded = HoursBetween(wire.Hours[0], wire.Hours[1])
	}
	if wire.Percentile != nil {
		keys++
		decoded = PercentileBelow(wire.Percentile.Value, wire.Percentile.Range)
	}
	if wire.Cheap != nil {
		keys++
		decoded = CheapestAmong(wire.Cheap.Hours, wire.Cheap.From, wire.Cheap.To)
	}

	if keys != 1 {
		return fmt.Errorf("%w: node must carry exactly one of and, or, not, price, hours, percentile, cheap", ErrInvalidExpression)
	}

	*n = *decoded
	return nil
}

// Parse decodes an expression string (a JSON array of condition nodes) into
// a tree rooted at an implicit conjunction. An empty array is valid and
// yields a tree that evaluates false everywhere.
func Parse(expression string) (*Node, error) {
	var items []*Node
	if err := json.Unmarshal([]byte(expression), &items); err != nil {
		if errors.Is(err, ErrInvalidExpression) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return And(items...), nil
}

// Format encodes a tree back into its expression string. Only trees rooted
// at a conjunction have an expression form; the root's children are written
// as the top-level array.
func Format(root *Node) (string, error) {
	if root == nil || root.Kind != KindAnd {
		return "", fmt.Errorf("%w: expression root must be a conjunction", ErrInvalidExpression)
	}
	data, err := json.Marshal(childrenOrEmpty(root.Children))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// childrenOrEmpty keeps empty child lists as [] rather than null on the wire.
func childrenOrEmpty(children []*Node) []*Node {
	if children == nil {
		return []*Node{}
	}
	return children
}
