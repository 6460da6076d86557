package band

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// defaultSupportedRatesHz lists sample rates common to RTL-SDR/Airspy-class
// receivers used behind dumphfdl/dumpvdl2. Real device enumeration is out of
// scope (spec.md §1); this is the static fallback table.
var defaultSupportedRatesHz = []int{
	250000, 500000, 1000000, 1200000, 1800000, 2000000,
	2048000, 2400000, 2560000, 3200000, 4000000, 8000000, 10000000, 12500000,
}

// SupportedSampleRates returns the device sample rates usable for planning.
// XNG_TEST_SAMPLERATES, a comma-separated list of kHz values, overrides the
// static table for deterministic testing (spec.md §6).
func SupportedSampleRates() []int {
	if raw, ok := os.LookupEnv("XNG_TEST_SAMPLERATES"); ok {
		var rates []int
		for _, tok := range strings.Split(raw, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			khz, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			rates = append(rates, khz*1000)
		}
		sort.Ints(rates)
		if len(rates) > 0 {
			return rates
		}
	}
	return defaultSupportedRatesHz
}

// NearestSampleRate returns the smallest supported rate >= requestedHz, or
// ErrNoRate if the request exceeds every supported rate.
func NearestSampleRate(requestedHz int) (int, error) {
	var rates = SupportedSampleRates()
	sort.Ints(rates)
	for _, r := range rates {
		if r >= requestedHz {
			return r, nil
		}
	}
	return 0, ErrNoRate
}

// ActualSampleRate returns the nearest supported rate >= (max-min)*1200 for
// a band (kHz span), the device rate that will actually cover it.
func ActualSampleRate(bandKHz []int) (int, error) {
	if len(bandKHz) == 0 {
		return 0, ErrNoBand
	}
	min, max := bandKHz[0], bandKHz[0]
	for _, f := range bandKHz {
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	return NearestSampleRate((max - min) * 1200)
}
