package control

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airframesio/xng/internal/band"
	"github.com/airframesio/xng/internal/schedule"
)

// NextSessionBandValidator accepts 0 (HFDL "no override"), a single kHz
// value in [2000, 21997] (HFDL), or a list of kHz values (AoA), per
// spec.md §4.6.
func NextSessionBandValidator(v Value) error {
	switch v.Kind {
	case KindNumber:
		if v.Number == 0 {
			return nil
		}
		if v.Number < 2000 || v.Number > 21997 {
			return fmt.Errorf("next_session_band: %v out of range [2000, 21997]", v.Number)
		}
		return nil
	case KindArray:
		for _, e := range v.Array {
			if e.Kind != KindNumber {
				return fmt.Errorf("next_session_band: array entries must be numbers")
			}
			if e.Number < 118000 || e.Number > 137000 {
				return fmt.Errorf("next_session_band: %v out of range [118000, 137000]", e.Number)
			}
		}
		return nil
	default:
		return fmt.Errorf("next_session_band: must be a number or array of numbers")
	}
}

// SessionScheduleValidator parses the schedule string, rejecting anything
// schedule.Parse can't.
func SessionScheduleValidator(v Value) error {
	if v.Kind != KindString {
		return fmt.Errorf("session_schedule: must be a string")
	}
	if v.String == "" {
		return nil
	}
	return schedule.Validate(v.String)
}

// SessionMethodValidator accepts the band-policy grammar ParsePolicy
// understands: random|static|inc|dec or track:<positive-integer>.
func SessionMethodValidator(v Value) error {
	if v.Kind != KindString {
		return fmt.Errorf("session_method: must be a string")
	}
	_, err := band.ParsePolicy(v.String)
	return err
}

// ListeningBandValidator is read-only and always fails, per spec.md §4.6.
func ListeningBandValidator(Value) error {
	return fmt.Errorf("listening_band: read-only prop")
}

// NextSessionBandIsZero reports whether a next_session_band value is the
// "no override" sentinel: numeric 0 or an empty array.
func NextSessionBandIsZero(v Value) bool {
	switch v.Kind {
	case KindNumber:
		return v.Number == 0
	case KindArray:
		return len(v.Array) == 0
	default:
		return true
	}
}

// FreqKHzList converts a next_session_band Value into a []int of kHz
// frequencies, for either shape (single number or array).
func FreqKHzList(v Value) []int {
	switch v.Kind {
	case KindNumber:
		if v.Number == 0 {
			return nil
		}
		return []int{int(v.Number)}
	case KindArray:
		out := make([]int, 0, len(v.Array))
		for _, e := range v.Array {
			if e.Kind == KindNumber {
				out = append(out, int(e.Number))
			}
		}
		return out
	default:
		return nil
	}
}

// ParseFreqKHz is a small helper for HTTP query-string style numeric
// fields that arrive as strings (e.g. "track:4" suffix parsing).
func ParseFreqKHz(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
