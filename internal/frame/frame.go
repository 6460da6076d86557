package frame

import (
	"fmt"
	"time"
)

// AppInfo names the decoder that produced a frame.
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HFDLMeta carries HFDL-specific squitter bookkeeping, emitted only for
// SPDU-derived frames (spec.md §4.2 HFDL path).
type HFDLMeta struct {
	Kind    string   `json:"kind"`
	HeardOn []int    `json:"heard_on,omitempty"`
	Reason  *string  `json:"reason,omitempty"`
}

// Metadata holds decoder-family-specific side information that doesn't fit
// the common envelope.
type Metadata struct {
	HFDL *HFDLMeta `json:"hfdl,omitempty"`
}

// Indexed carries the derived frame-emit timestamp (as distinct from the
// radio-arrival Timestamp) plus optional routing hints, per spec.md §9's
// "Arrival vs frame time" note.
type Indexed struct {
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	DstAirport *string    `json:"dst_airport,omitempty"`
}

// CommonFrame (CFF) is the normalized, immutable output of the Normalizer.
type CommonFrame struct {
	Timestamp time.Time         `json:"timestamp"`
	Freq      float64           `json:"freq"`
	Signal    float64           `json:"signal"`
	Err       bool              `json:"err"`
	Src       Entity            `json:"src"`
	Dst       *Entity           `json:"dst,omitempty"`
	Paths     []PropagationPath `json:"paths,omitempty"`
	App       AppInfo           `json:"app"`
	Indexed   *Indexed          `json:"indexed,omitempty"`
	Metadata  *Metadata         `json:"metadata,omitempty"`
	ACARS     *ACARS            `json:"acars,omitempty"`
}

// Validate enforces the CFF-level invariants from spec.md §8: frequency
// range, RFC3339 timestamp (guaranteed by the time.Time type itself), valid
// src kind, and tail normalization on both endpoints.
func (f CommonFrame) Validate() error {
	if f.Freq < 2.0 || f.Freq > 1630.0 {
		return fmt.Errorf("frame: freq %v MHz out of range [2.0, 1630.0]", f.Freq)
	}
	if err := f.Src.Validate(); err != nil {
		return fmt.Errorf("frame: src: %w", err)
	}
	if f.Dst != nil {
		if err := f.Dst.Validate(); err != nil {
			return fmt.Errorf("frame: dst: %w", err)
		}
	}
	for i, p := range f.Paths {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("frame: paths[%d]: %w", i, err)
		}
	}
	return nil
}
