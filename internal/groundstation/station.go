// Package groundstation maintains the live registry of observed HFDL/VDL2
// ground stations and implements the SPDU feedback loop that can signal the
// Orchestrator to rotate sessions when the network's active frequencies
// drift away from what the current session covers (spec.md §4.4).
package groundstation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ID identifies a ground station. Equality follows spec.md §3: numeric ids
// compare numerically, string ids compare trimmed and lowercased, and a
// numeric id is never equal to a string id even if their text matches.
type ID struct {
	isNumeric bool
	num       int64
	str       string
}

// NumericID builds a numeric station identity (HFDL's small integer GS id).
func NumericID(n int64) ID { return ID{isNumeric: true, num: n} }

// StringID builds a string station identity (VDL2/AoA hex ICAO ground
// station address).
func StringID(s string) ID { return ID{str: strings.ToLower(strings.TrimSpace(s))} }

// Equal implements the id-equality rule from spec.md §3.
func (id ID) Equal(other ID) bool {
	if id.isNumeric != other.isNumeric {
		return false
	}
	if id.isNumeric {
		return id.num == other.num
	}
	return id.str == other.str
}

// Key returns a stable map key for this identity.
func (id ID) Key() string {
	if id.isNumeric {
		return "n:" + strconv.FormatInt(id.num, 10)
	}
	return "s:" + id.str
}

func (id ID) String() string {
	if id.isNumeric {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// Station is a registry entry: a ground station plus its currently active
// frequency set. Frequency-set equality/hash is keyed on khz alone —
// last_updated is carried metadata, not part of identity (spec.md §9).
type Station struct {
	ID     ID
	Name   *string
	active map[int]time.Time // khz -> last observed
}

// ActiveFrequencies returns the current active frequency set in kHz,
// sorted ascending.
func (s *Station) ActiveFrequencies() []int {
	var out = make([]int, 0, len(s.active))
	for khz := range s.active {
		out = append(out, khz)
	}
	sort.Ints(out)
	return out
}

// invalidate ages out frequency entries older than staleAfter, relative to
// now (spec.md §4.4 "Age out existing frequency entries").
func (s *Station) invalidate(now time.Time, staleAfter time.Duration) {
	for khz, lastHeard := range s.active {
		if now.Sub(lastHeard) >= staleAfter {
			delete(s.active, khz)
		}
	}
}

func setsEqual(a map[int]time.Time, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for _, khz := range b {
		if _, ok := a[khz]; !ok {
			return false
		}
	}
	return true
}

func symmetricDifference(a map[int]time.Time, b []int) []int {
	var bSet = make(map[int]bool, len(b))
	for _, khz := range b {
		bSet[khz] = true
	}

	var diff = make(map[int]bool)
	for khz := range a {
		if !bSet[khz] {
			diff[khz] = true
		}
	}
	for khz := range bSet {
		if _, ok := a[khz]; !ok {
			diff[khz] = true
		}
	}

	var out = make([]int, 0, len(diff))
	for khz := range diff {
		out = append(out, khz)
	}
	sort.Ints(out)
	return out
}

// ChangeEvent records an observed shift in a ground station's active
// frequency set, fanned out to the State DB Writer (spec.md §4.4).
type ChangeEvent struct {
	Timestamp time.Time
	StationID ID
	Name      *string
	Old       []int
	New       []int
}

func (e ChangeEvent) String() string {
	return fmt.Sprintf("gs %s frequency change: %v -> %v", e.StationID, e.Old, e.New)
}
