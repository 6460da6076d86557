package band

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFreqBandsPacking(t *testing.T) {
	var freqs = SortedUnique([]int{2998, 3007, 5508, 6529, 6532, 8921})
	var bands = FreqBands(freqs, 500_000)

	assert.Equal(t, 450, MaxDistKHz(500_000))
	assert.Equal(t, map[string][]int{
		"2998-3007": {2998, 3007},
		"5508":      {5508},
		"6529-6532": {6529, 6532},
		"8921":      {8921},
	}, bands)
}

func TestMethodIncRotation(t *testing.T) {
	var heads = []int{3007, 5508, 6529, 8921}
	var sel = NewSelector(nil)
	var policy = Policy{Kind: PolicyInc}

	next, keep, err := sel.Select(policy, heads, 6529, nil, nil)
	require.NoError(t, err)
	assert.False(t, keep)
	assert.Equal(t, 8921, next)

	next, _, err = sel.Select(policy, heads, 8921, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3007, next)
}

func TestMethodDecRotation(t *testing.T) {
	var heads = []int{3007, 5508, 6529, 8921}
	var sel = NewSelector(nil)
	var policy = Policy{Kind: PolicyDec}

	next, _, err := sel.Select(policy, heads, 3007, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 8921, next)
}

func TestFreqBandsEveryBandRespectsMaxDist(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var raw = rapid.SliceOfN(rapid.IntRange(2000, 30000), 1, 40).Draw(t, "freqs")
		var rate = rapid.IntRange(50_000, 12_500_000).Draw(t, "rate")

		var freqs = SortedUnique(raw)
		var bands = FreqBands(freqs, rate)
		var maxDist = MaxDistKHz(rate)

		for label, b := range bands {
			require.NotEmpty(t, b, "band %q must not be empty", label)
			for i := 1; i < len(b); i++ {
				assert.Greater(t, b[i], b[i-1], "band %q must be strictly ascending", label)
			}
			assert.LessOrEqual(t, b[len(b)-1]-b[0], maxDist, "band %q exceeds max_dist_khz", label)
		}
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("track:42")
	require.NoError(t, err)
	assert.Equal(t, PolicyTrack, p.Kind)
	assert.Equal(t, "42", p.TrackStationID)

	_, err = ParsePolicy("track:0")
	assert.Error(t, err, "station id must be positive")

	_, err = ParsePolicy("bogus")
	assert.Error(t, err)

	p, err = ParsePolicy("RANDOM")
	require.NoError(t, err)
	assert.Equal(t, PolicyRandom, p.Kind)
}

func TestFirstFreqAtOrAbove(t *testing.T) {
	f, err := FirstFreqAtOrAbove([]int{3007, 5508, 6529}, 5000)
	require.NoError(t, err)
	assert.Equal(t, 5508, f)

	_, err = FirstFreqAtOrAbove([]int{3007, 5508}, 9000)
	assert.ErrorIs(t, err, ErrNoBand)
}

func TestNearestSampleRate(t *testing.T) {
	t.Setenv("XNG_TEST_SAMPLERATES", "250,500,1000")
	rate, err := NearestSampleRate(400_000)
	require.NoError(t, err)
	assert.Equal(t, 500_000, rate)
}
