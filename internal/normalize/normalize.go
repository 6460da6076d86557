package normalize

import (
	"time"

	"github.com/airframesio/xng/internal/groundstation"
	"github.com/airframesio/xng/internal/systable"
)

// Deps are the reference data a Normalizer needs to resolve entities and
// validate freshness: the static system table, the VDL2 ground-station CSV,
// and the live registry the SPDU feedback loop observes through.
type Deps struct {
	SystemTable    *systable.SystemTable
	GroundStations *systable.GroundStationDB
	Registry       *groundstation.Registry
	StaleTimeout   time.Duration
}

// Normalizer turns raw decoder JSON lines into CommonFrame values. It holds
// no per-line state; NormalizeHFDL/NormalizeVDL2 are safe to call
// concurrently once constructed (spec.md §4.2: "Pure function of the raw
// message plus injected SystemTable/GroundStationDB").
type Normalizer struct {
	deps Deps
}

// New builds a Normalizer over the given reference data.
func New(deps Deps) *Normalizer {
	return &Normalizer{deps: deps}
}
