package query

import (
	"encoding/json"
	"strconv"
)

// Direction selects which adjacency lists a traversal follows.
type Direction int

const (
	Outbound Direction = iota
	Inbound
	Both
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	case Both:
		return "both"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Outbound reports whether d follows outbound edges.
func (d Direction) Outbound() bool {
	return d == Outbound || d == Both
}

// Inbound reports whether d follows inbound edges.
func (d Direction) Inbound() bool {
	return d == Inbound || d == Both
}

func (d Direction) valid() bool {
	return d >= Outbound && d <= Both
}

// ParseDirection parses "outbound", "inbound" or "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "outbound":
		return Outbound, nil
	case "inbound":
		return Inbound, nil
	case "both":
		return Both, nil
	default:
		return 0, invalid("traverse.direction", "unknown direction %q (want outbound, inbound or both)", s)
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	if !d.valid() {
		return nil, invalid("traverse.direction", "unknown direction %d", int(d))
	}
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return invalid("traverse.direction", "must be a string")
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
