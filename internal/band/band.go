// Package band implements the Band Planner: partitioning a candidate
// frequency set into bands that fit a sample rate, and picking the next
// band to listen on under a configurable policy (spec.md §4.1).
package band

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNoBand is returned when no candidate frequency satisfies a request.
var ErrNoBand = errors.New("band: no matching frequency")

// ErrNoRate is returned when no supported sample rate covers a request.
var ErrNoRate = errors.New("band: no supported sample rate")

// ErrNoCandidates is returned by policy selection when the candidate pool
// is empty after filtering. Per spec.md §4.1 this must be logged and
// retried by the caller, never treated as fatal.
var ErrNoCandidates = errors.New("band: no candidates available for policy")

// MaxDistKHz returns the widest span, in kHz, that a single band may cover
// at the given sample rate: floor(sample_rate * 0.9 / 1000).
func MaxDistKHz(sampleRateHz int) int {
	return int(float64(sampleRateHz) * 0.9 / 1000.0)
}

// FreqBands partitions a sorted, deduplicated kHz frequency list into bands
// via greedy left-to-right grouping: a band stays open while the next
// frequency is within MaxDistKHz of the band's first (lowest) member.
func FreqBands(freqsSortedUnique []int, sampleRateHz int) map[string][]int {
	var maxDist = MaxDistKHz(sampleRateHz)
	var bands = make(map[string][]int)

	var current []int
	for _, f := range freqsSortedUnique {
		if len(current) > 0 && f-current[0] > maxDist {
			bands[bandLabel(current)] = current
			current = nil
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		bands[bandLabel(current)] = current
	}

	return bands
}

func bandLabel(band []int) string {
	if len(band) == 0 {
		return ""
	}
	first, last := band[0], band[len(band)-1]
	if first == last {
		return strconv.Itoa(first)
	}
	return fmt.Sprintf("%d-%d", first, last)
}

// FirstFreqAtOrAbove returns the lowest frequency in freqs that is >=
// target, or ErrNoBand if none qualifies. freqs need not be pre-sorted.
func FirstFreqAtOrAbove(freqs []int, target int) (int, error) {
	var sorted = append([]int(nil), freqs...)
	sort.Ints(sorted)
	for _, f := range sorted {
		if f >= target {
			return f, nil
		}
	}
	return 0, ErrNoBand
}

// SortedUnique returns the input sorted ascending with duplicates removed.
func SortedUnique(freqs []int) []int {
	var sorted = append([]int(nil), freqs...)
	sort.Ints(sorted)

	var out []int
	for i, f := range sorted {
		if i == 0 || f != sorted[i-1] {
			out = append(out, f)
		}
	}
	return out
}

// BandHeads returns the sorted, ascending lowest-frequency member of every
// band, keyed by the deterministic ordering produced by FreqBands (since Go
// map iteration is not stable, callers needing reproducible ordering — e.g.
// inc/dec rotation — should use this instead of ranging the map directly).
func BandHeads(bands map[string][]int) []int {
	var heads = make([]int, 0, len(bands))
	for _, b := range bands {
		if len(b) > 0 {
			heads = append(heads, b[0])
		}
	}
	sort.Ints(heads)
	return heads
}
