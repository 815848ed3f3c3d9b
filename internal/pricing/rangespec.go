package pricing

import (
	"encoding/json"
	"fmt"
)

// RangeKind identifies a window-selection strategy.
type RangeKind string

const (
	// RangeToday selects the 24 prices of the day containing the current hour.
	RangeToday RangeKind = "today"
	// RangeFuture selects everything from the current hour to the end of the series.
	RangeFuture RangeKind = "future"
	// RangePlusMinus selects Hours prices either side of the current hour,
	// clamped at the series edges.
	RangePlusMinus RangeKind = "plusminus"
	// RangeFromTo selects a recurring daily time-of-day band, possibly
	// spanning midnight.
	RangeFromTo RangeKind = "fromto"
)

// RangeSpec is a pure descriptor of a window-selection strategy. Values are
// small and copyable; only the fields relevant to Kind are meaningful.
type RangeSpec struct {
	Kind  RangeKind
	Hours int // plusminus only
	From  int // fromto only
	To    int // fromto only
}

// Today returns the whole-current-day range.
func Today() RangeSpec { return RangeSpec{Kind: RangeToday} }

// Future returns the current-hour-to-end-of-series range.
func Future() RangeSpec { return RangeSpec{Kind: RangeFuture} }

// PlusMinusHours returns a range of h hours either side of the current hour.
func PlusMinusHours(h int) RangeSpec { return RangeSpec{Kind: RangePlusMinus, Hours: h} }

// FromTo returns a daily time-of-day band range.
func FromTo(from, to int) RangeSpec { return RangeSpec{Kind: RangeFromTo, From: from, To: to} }

// MarshalJSON encodes the spec in its wire form: the bare strings "today"
// and "future", or the single-key objects {"plusminus": h} and
// {"fromto": [from, to]}.
func (s RangeSpec) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case RangeToday, RangeFuture:
		return json.Marshal(string(s.Kind))
	case RangePlusMinus:
		return json.Marshal(map[string]int{"plusminus": s.Hours})
	case RangeFromTo:
		return json.Marshal(map[string][2]int{"fromto": {s.From, s.To}})
	}
	return nil, fmt.Errorf("unknown range kind: %q", s.Kind)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (s *RangeSpec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch RangeKind(name) {
		case RangeToday, RangeFuture:
			*s = RangeSpec{Kind: RangeKind(name)}
			return nil
		}
		return fmt.Errorf("unknown range name: %q", name)
	}

	var obj struct {
		PlusMinus *int    `json:"plusminus"`
		FromTo    *[2]int `json:"fromto"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid range spec: %w", err)
	}

	switch {
	case obj.PlusMinus != nil && obj.FromTo == nil:
		*s = PlusMinusHours(*obj.PlusMinus)
		return nil
	case obj.FromTo != nil && obj.PlusMinus == nil:
		*s = FromTo(obj.FromTo[0], obj.FromTo[1])
		return nil
	}
	return fmt.Errorf("range spec must carry exactly one of plusminus, fromto")
}
