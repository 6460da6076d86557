// Package systable loads the static HFDL system table: the list of known
// ground stations (id, name, coordinates, frequency list) and its
// monotonic version. The on-disk systable.conf format itself is out of
// scope (spec.md §1 Non-goals name "system-table file format"); this
// package loads the JSON rendering dumphfdl's own "--system-table-save"
// flag can produce, which carries the same fields.
package systable

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/airframesio/xng/internal/frame"
)

// MinVersion is the lowest system table version this supervisor accepts
// (spec.md §3 invariant: system_table.version >= 51).
const MinVersion = 51

// Station is one HFDL ground station entry in the system table.
type Station struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Frequencies []int   `json:"frequencies"`
}

// Coords returns the station's location as a WKT point (z=0, ground level).
func (s Station) Coords() frame.Point {
	return frame.Point{X: s.Lon, Y: s.Lat, Z: 0}
}

// SystemTable is the immutable, versioned set of known ground stations.
type SystemTable struct {
	Version  int       `json:"version"`
	Stations []Station `json:"stations"`
}

// Load reads and validates a system table from path.
func Load(path string) (*SystemTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("systable: read %s: %w", path, err)
	}

	var st SystemTable
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("systable: parse %s: %w", path, err)
	}
	if st.Version < MinVersion {
		return nil, fmt.Errorf("systable: version %d is below minimum %d", st.Version, MinVersion)
	}

	return &st, nil
}

// Lookup returns the station with the given id, if known.
func (st *SystemTable) Lookup(id int) (Station, bool) {
	for _, s := range st.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// AllFrequencies returns the union of every known station's frequency
// list, sorted ascending with duplicates removed — the candidate pool the
// Band Planner partitions into bands.
func (st *SystemTable) AllFrequencies() []int {
	var seen = make(map[int]bool)
	var out []int
	for _, s := range st.Stations {
		for _, f := range s.Frequencies {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Ints(out)
	return out
}

// ValidateAgainst rejects an SPDU (or any update) whose advertised system
// table version is newer than ours, per spec.md §3's "out of date" rule.
func (st *SystemTable) ValidateAgainst(advertisedVersion int) error {
	if advertisedVersion > st.Version {
		return fmt.Errorf("systable: advertised version %d is newer than local %d (out of date)", advertisedVersion, st.Version)
	}
	return nil
}
