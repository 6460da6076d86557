package groundstation

import (
	"sync"
	"time"
)

// Registry is the live, process-lifetime set of observed ground stations.
// Entries are created lazily on first observation (spec.md §3 lifecycles)
// and kept behind a single mutex; operations are brief critical sections,
// matching the ModuleSettings RW-lock policy from spec.md §5.
type Registry struct {
	mu       sync.Mutex
	stations map[string]*Station
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{stations: make(map[string]*Station)}
}

func (r *Registry) lookupLocked(id ID) *Station {
	if s, ok := r.stations[id.Key()]; ok {
		return s
	}
	return nil
}

// Get returns the station by id, if known.
func (r *Registry) Get(id ID) (Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookupLocked(id)
	if s == nil {
		return Station{}, false
	}
	return Station{ID: s.ID, Name: s.Name, active: s.active}, true
}

// ActiveFrequencies returns the current active set for a station, or nil
// if the station is unknown — used by the "track:<gs_id>" band policy.
func (r *Registry) ActiveFrequencies(id ID) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookupLocked(id)
	if s == nil {
		return nil
	}
	return s.ActiveFrequencies()
}

// Update applies a freshly observed active-frequency set for a station
// (from an SPDU's gs_status or an AoA GS advertisement), following
// spec.md §4.4:
//
//  1. look up or create the station by id equality
//  2. age out stale entries
//  3. compute the new set; if the symmetric difference is non-empty,
//     return a ChangeEvent
//  4. replace the stored set with the new one, timestamps refreshed to now
func (r *Registry) Update(id ID, name *string, freqsKHz []int, staleTimeout time.Duration, now time.Time) (changed bool, diff []int, event *ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookupLocked(id)
	if s == nil {
		s = &Station{ID: id, Name: name, active: make(map[int]time.Time)}
		r.stations[id.Key()] = s
	} else if name != nil {
		s.Name = name
	}

	s.invalidate(now, staleTimeout)

	if setsEqual(s.active, freqsKHz) {
		return false, nil, nil
	}

	var oldList = s.ActiveFrequencies()
	diff = symmetricDifference(s.active, freqsKHz)

	s.active = make(map[int]time.Time, len(freqsKHz))
	for _, khz := range freqsKHz {
		s.active[khz] = now
	}

	return true, diff, &ChangeEvent{
		Timestamp: now,
		StationID: id,
		Name:      s.Name,
		Old:       oldList,
		New:       s.ActiveFrequencies(),
	}
}

// All returns a snapshot of every known station, for HTTP settings reads.
func (r *Registry) All() []Station {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out = make([]Station, 0, len(r.stations))
	for _, s := range r.stations {
		out = append(out, Station{ID: s.ID, Name: s.Name, active: s.active})
	}
	return out
}
