package frame

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies what a CFF endpoint is.
type Kind string

const (
	Aircraft      Kind = "Aircraft"
	GroundStation Kind = "Ground station"
	Reserved      Kind = "Reserved"
)

func (k Kind) Valid() bool {
	switch k {
	case Aircraft, GroundStation, Reserved:
		return true
	default:
		return false
	}
}

var icaoPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// Entity is one endpoint (src or dst) of a CommonFrame.
type Entity struct {
	Kind     Kind    `json:"type"`
	ICAO     *string `json:"icao,omitempty"`
	GS       *string `json:"gs,omitempty"`
	ID       *int    `json:"id,omitempty"`
	Callsign *string `json:"callsign,omitempty"`
	Tail     *string `json:"tail,omitempty"`
	Coords   *Point  `json:"coords,omitempty"`
}

// Validate enforces the Entity invariants from spec.md §3: kind must be one
// of the three enumerated values, ICAO (when present) must be six uppercase
// hex digits, tail (when present) must contain no '.', '-', or space.
func (e Entity) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("frame: invalid entity kind %q", e.Kind)
	}
	if e.ICAO != nil && !icaoPattern.MatchString(*e.ICAO) {
		return fmt.Errorf("frame: invalid icao %q, must be 6 uppercase hex digits", *e.ICAO)
	}
	if e.Callsign != nil && len(*e.Callsign) > 8 {
		return fmt.Errorf("frame: callsign %q exceeds 8 characters", *e.Callsign)
	}
	if e.Tail != nil {
		if len(*e.Tail) > 8 {
			return fmt.Errorf("frame: tail %q exceeds 8 characters", *e.Tail)
		}
		if strings.ContainsAny(*e.Tail, ".- ") {
			return fmt.Errorf("frame: tail %q was not normalized", *e.Tail)
		}
	}
	return nil
}

// NormalizeTail strips dots, dashes, and spaces and upper-cases the result.
// Idempotent: NormalizeTail(NormalizeTail(x)) == NormalizeTail(x).
func NormalizeTail(tail string) string {
	var b strings.Builder
	b.Grow(len(tail))
	for _, r := range tail {
		switch r {
		case '.', '-', ' ':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// PropagationPath is one hop of a CFF's observed propagation: the
// frequencies used and the WKT path from aircraft to the hearing station.
type PropagationPath struct {
	Freqs      []float64 `json:"freqs"`
	Path       Polyline  `json:"path"`
	Party      Entity    `json:"party"`
	DistanceKM float64   `json:"distance_km,omitempty"`
}

// NewPropagationPath builds a PropagationPath and derives DistanceKM from
// the great-circle distance between the path's two endpoints.
func NewPropagationPath(freqs []float64, points []Point, party Entity) PropagationPath {
	p := PropagationPath{Freqs: freqs, Path: Polyline{Points: points}, Party: party}
	if len(points) == 2 {
		p.DistanceKM = DistanceKM(points[0], points[1])
	}
	return p
}

func (p PropagationPath) Validate() error {
	for _, f := range p.Freqs {
		if f < 2.0 || f > 1630.0 {
			return fmt.Errorf("frame: propagation path freq %v MHz out of range [2.0, 1630.0]", f)
		}
	}
	return p.Party.Validate()
}
