package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeTailIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var raw = rapid.StringOfN(rapid.RuneFrom([]rune("abcXYZ.- 019")), 0, 16, -1).Draw(t, "tail")

		var once = NormalizeTail(raw)
		var twice = NormalizeTail(once)

		assert.Equal(t, once, twice, "normalizing an already-normalized tail must be a no-op")
		assert.NotContains(t, once, ".")
		assert.NotContains(t, once, "-")
		assert.NotContains(t, once, " ")
	})
}

func TestEntityValidateRejectsBadICAO(t *testing.T) {
	icao := "abc123"
	e := Entity{Kind: Aircraft, ICAO: &icao}
	assert.Error(t, e.Validate(), "icao must be uppercase hex")
}

func TestEntityValidateAcceptsGoodICAO(t *testing.T) {
	icao := "A1B2C3"
	e := Entity{Kind: Aircraft, ICAO: &icao}
	assert.NoError(t, e.Validate())
}

func TestEntityValidateRejectsUnnormalizedTail(t *testing.T) {
	tail := "N123-AB"
	e := Entity{Kind: Aircraft, Tail: &tail}
	assert.Error(t, e.Validate())
}

func TestNewPropagationPathDerivesDistanceKM(t *testing.T) {
	sfo := Point{X: -122.375, Y: 37.619}
	lax := Point{X: -118.408, Y: 33.943}

	p := NewPropagationPath([]float64{5.451}, []Point{sfo, lax}, Entity{Kind: GroundStation})

	assert.InDelta(t, DistanceKM(sfo, lax), p.DistanceKM, 0.001)
	assert.Greater(t, p.DistanceKM, 0.0)
}
