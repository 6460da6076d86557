package groundstation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateEmitsChangeEventOnDiff(t *testing.T) {
	var r = NewRegistry()
	var now = time.Now()

	changed, _, ev := r.Update(NumericID(2), nil, []int{10027}, time.Hour, now)
	require.True(t, changed)
	require.NotNil(t, ev)

	changed, diff, ev := r.Update(NumericID(2), nil, []int{8921}, time.Hour, now.Add(time.Second))
	require.True(t, changed)
	require.NotNil(t, ev)
	assert.ElementsMatch(t, []int{10027, 8921}, diff)
}

func TestUpdateIdempotentNoDuplicateEvent(t *testing.T) {
	var r = NewRegistry()
	var now = time.Now()

	_, _, ev1 := r.Update(NumericID(2), nil, []int{10027, 8921}, time.Hour, now)
	require.NotNil(t, ev1)

	// Applying the very same SPDU (identical frequency set) a second time
	// must not emit a second GroundStationChangeEvent.
	changed, _, ev2 := r.Update(NumericID(2), nil, []int{10027, 8921}, time.Hour, now.Add(time.Second))
	assert.False(t, changed)
	assert.Nil(t, ev2)
}

func TestIDEqualityNeverCrossesKinds(t *testing.T) {
	assert.False(t, NumericID(2).Equal(StringID("2")))
	assert.True(t, StringID("  GS-2 ").Equal(StringID("gs-2")))
	assert.True(t, NumericID(2).Equal(NumericID(2)))
}

func TestTriggersSessionUpdate(t *testing.T) {
	var currentBand = []int{10027}
	var maxDist = 450

	// 10027 is removed from the active set -> it's in the current band ->
	// triggers (scenario 4 in spec.md §8).
	assert.True(t, TriggersSessionUpdate([]int{10027, 8921}, currentBand, maxDist))

	// A diff far from the current band and its edges does not trigger.
	assert.False(t, TriggersSessionUpdate([]int{20000}, currentBand, maxDist))
}

func TestActiveFrequenciesForUnknownStation(t *testing.T) {
	var r = NewRegistry()
	assert.Nil(t, r.ActiveFrequencies(NumericID(99)))
}
