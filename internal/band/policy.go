package band

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// PolicyKind is the session method driving candidate-band selection.
type PolicyKind string

const (
	PolicyRandom PolicyKind = "random"
	PolicyInc    PolicyKind = "inc"
	PolicyDec    PolicyKind = "dec"
	PolicyStatic PolicyKind = "static"
	PolicyTrack  PolicyKind = "track"
)

// Policy is a parsed session_method value: one of random|static|inc|dec, or
// track:<gs_id> where gs_id is a positive integer (spec.md §4.1, §4.6).
type Policy struct {
	Kind           PolicyKind
	TrackStationID string
}

// ParsePolicy parses and validates a session_method string.
func ParsePolicy(raw string) (Policy, error) {
	var trimmed = strings.ToLower(strings.TrimSpace(raw))

	if id, ok := strings.CutPrefix(trimmed, "track:"); ok {
		n, err := strconv.Atoi(id)
		if err != nil || n <= 0 {
			return Policy{}, fmt.Errorf("band: track policy needs a positive station id, got %q", raw)
		}
		return Policy{Kind: PolicyTrack, TrackStationID: id}, nil
	}

	switch PolicyKind(trimmed) {
	case PolicyRandom, PolicyInc, PolicyDec, PolicyStatic:
		return Policy{Kind: PolicyKind(trimmed)}, nil
	default:
		return Policy{}, fmt.Errorf("band: unknown session method %q", raw)
	}
}

func (p Policy) String() string {
	if p.Kind == PolicyTrack {
		return "track:" + p.TrackStationID
	}
	return string(p.Kind)
}

// Selector picks the next candidate frequency under a Policy, carrying the
// small amount of state (last random pick) the random policy needs to avoid
// repeating its previous choice.
type Selector struct {
	rng            *rand.Rand
	lastRandomHead *int
}

// NewSelector builds a Selector. A nil rng gets a process-seeded default.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Selector{rng: rng}
}

// Select returns the next target frequency (kHz) to listen on.
//
//   - static: keepCurrent is true, freq is unused.
//   - inc/dec: rotate through heads (sorted ascending), wrapping around.
//   - random: uniform over heads, excluding currentHead and the previous
//     random pick.
//   - track: uniform over stationActiveFreqs, excluding members already in
//     currentBand.
//
// ErrNoCandidates is returned when the filtered pool is empty; callers must
// log and retry rather than treat it as fatal (spec.md §4.1).
func (s *Selector) Select(policy Policy, heads []int, currentHead int, currentBand []int, stationActiveFreqs []int) (freq int, keepCurrent bool, err error) {
	switch policy.Kind {
	case PolicyStatic:
		return 0, true, nil

	case PolicyInc, PolicyDec:
		var sorted = append([]int(nil), heads...)
		sort.Ints(sorted)
		if len(sorted) == 0 {
			return 0, false, ErrNoCandidates
		}

		var idx = indexOf(sorted, currentHead)
		var next int
		switch {
		case idx == -1:
			next = 0
		case policy.Kind == PolicyInc:
			next = (idx + 1) % len(sorted)
		default:
			next = (idx - 1 + len(sorted)) % len(sorted)
		}
		return sorted[next], false, nil

	case PolicyRandom:
		var pool []int
		for _, h := range heads {
			if h == currentHead {
				continue
			}
			if s.lastRandomHead != nil && h == *s.lastRandomHead {
				continue
			}
			pool = append(pool, h)
		}
		if len(pool) == 0 {
			return 0, false, ErrNoCandidates
		}
		var pick = pool[s.rng.Intn(len(pool))]
		s.lastRandomHead = &pick
		return pick, false, nil

	case PolicyTrack:
		var inCurrent = make(map[int]bool, len(currentBand))
		for _, f := range currentBand {
			inCurrent[f] = true
		}
		var pool []int
		for _, f := range stationActiveFreqs {
			if !inCurrent[f] {
				pool = append(pool, f)
			}
		}
		if len(pool) == 0 {
			return 0, false, ErrNoCandidates
		}
		return pool[s.rng.Intn(len(pool))], false, nil

	default:
		return 0, false, fmt.Errorf("band: unhandled policy kind %q", policy.Kind)
	}
}

func indexOf(sorted []int, v int) int {
	for i, x := range sorted {
		if x == v {
			return i
		}
	}
	return -1
}

// BandContaining returns the band (from FreqBands' output) that contains
// freq, or the band whose head is closest to freq if none contains it
// exactly — used after a policy picks a raw candidate frequency so the
// Orchestrator can recover the full band around it.
func BandContaining(bands map[string][]int, freq int) []int {
	for _, b := range bands {
		for _, f := range b {
			if f == freq {
				return b
			}
		}
	}

	var best []int
	var bestDist = -1
	for _, b := range bands {
		if len(b) == 0 {
			continue
		}
		var d = b[0] - freq
		if d < 0 {
			d = -d
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = b
		}
	}
	return best
}
