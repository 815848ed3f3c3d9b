package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okalita/spot-optimizer/internal/pricing"
)

var (
	// ErrPathOutOfRange is returned when an edit path indexes past the
	// tree's shape.
	ErrPathOutOfRange = errors.New("edit path out of range")
	// ErrUnsupportedEdit is returned when the edit payload is incompatible
	// with the target node's kind, or when no single edit is specified.
	ErrUnsupportedEdit = errors.New("unsupported edit for target node")
)

// EditRequest is one mutation of a condition tree, as sent by the form
// builder. Path is a sequence of child indices walked from the root through
// conjunction/disjunction nodes only. Exactly one of Extend, Price, Hours
// must be set:
//
//   - Extend appends a new default-valued child of the named kind to the
//     and/or node at Path.
//   - Price overwrites the threshold of the price leaf at Path.
//   - Hours overwrites the bounds of the hours leaf at Path.
type EditRequest struct {
	Path   []int    `json:"path"`
	Extend string   `json:"extend,omitempty"`
	Price  *float64 `json:"price,omitempty"`
	Hours  *[2]int  `json:"hours,omitempty"`
}

// ApplyEdit mutates root in place and returns the created or edited node
// together with its canonical path string (e.g. "[0][1]"). The tree must be
// treated as exclusively owned for the duration of the edit.
func ApplyEdit(root *Node, req *EditRequest) (*Node, string, error) {
	target, err := walkPath(root, req.Path)
	if err != nil {
		return nil, "", err
	}

	edits := 0
	if req.Extend != "" {
		edits++
	}
	if req.Price != nil {
		edits++
	}
	if req.Hours != nil {
		edits++
	}
	if edits != 1 {
		return nil, "", fmt.Errorf("%w: request must carry exactly one of extend, price, hours", ErrUnsupportedEdit)
	}

	switch {
	case req.Extend != "":
		if target.Kind != KindAnd && target.Kind != KindOr {
			return nil, "", fmt.Errorf("%w: cannot extend %q node", ErrUnsupportedEdit, target.Kind)
		}
		child, err := defaultNode(req.Extend)
		if err != nil {
			return nil, "", err
		}
		target.Children = append(target.Children, child)
		return child, pathString(append(req.Path, len(target.Children)-1)), nil

	case req.Price != nil:
		if target.Kind != KindPrice {
			return nil, "", fmt.Errorf("%w: cannot set price on %q node", ErrUnsupportedEdit, target.Kind)
		}
		target.Price = *req.Price
		return target, pathString(req.Path), nil

	default: // req.Hours != nil
		if target.Kind != KindHours {
			return nil, "", fmt.Errorf("%w: cannot set hours on %q node", ErrUnsupportedEdit, target.Kind)
		}
		target.HourFrom = req.Hours[0]
		target.HourTo = req.Hours[1]
		return target, pathString(req.Path), nil
	}
}

// walkPath follows child indices from root. Paths are only valid through
// and/or nodes; descending into a leaf or negation is a shape error.
func walkPath(root *Node, path []int) (*Node, error) {
	target := root
	for depth, index := range path {
		if target.Kind != KindAnd && target.Kind != KindOr {
			return nil, fmt.Errorf("%w: node at depth %d is not a conjunction or disjunction", ErrPathOutOfRange, depth)
		}
		if index < 0 || index >= len(target.Children) {
			return nil, fmt.Errorf("%w: index %d at depth %d", ErrPathOutOfRange, index, depth)
		}
		target = target.Children[index]
	}
	return target, nil
}

// defaultNode builds the default-valued node appended by an Extend edit.
func defaultNode(kind string) (*Node, error) {
	switch Kind(kind) {
	case KindAnd:
		return And(), nil
	case KindOr:
		return Or(), nil
	case KindNot:
		return Not(PriceBelow(0)), nil
	case KindPrice:
		return PriceBelow(0), nil
	case KindHours:
		return HoursBetween(0, 0), nil
	case KindPercentile:
		return PercentileBelow(0.5, pricing.Today()), nil
	case KindCheap:
		return CheapestAmong(1, 0, 0), nil
	}
	return nil, fmt.Errorf("%w: unknown node kind %q", ErrUnsupportedEdit, kind)
}

// pathString renders a path in its canonical "[0][1]" form. The empty path
// renders as the empty string, addressing the root.
func pathString(path []int) string {
	var b strings.Builder
	for _, index := range path {
		fmt.Fprintf(&b, "[%d]", index)
	}
	return b.String()
}
