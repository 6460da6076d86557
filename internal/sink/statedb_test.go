package sink

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airframesio/xng/internal/frame"
)

func testFrame(t *testing.T, icao string, gsID int) frame.CommonFrame {
	t.Helper()
	id := gsID
	tail := "N12345"
	coords := frame.Point{X: -122.0, Y: 37.0, Z: 1000}
	gsName := "Test GS"
	gsCoords := frame.Point{X: -122.1, Y: 37.1, Z: 0}

	return frame.CommonFrame{
		Timestamp: time.Now().UTC(),
		Freq:      5.451,
		Signal:    -10,
		Src:       frame.Entity{Kind: frame.Aircraft, ICAO: &icao, Tail: &tail, Coords: &coords},
		Dst:       &frame.Entity{Kind: frame.GroundStation, ID: &id, GS: &gsName, Coords: &gsCoords},
		App:       frame.AppInfo{Name: "dumphfdl", Version: "1.0"},
		Paths: []frame.PropagationPath{
			{Freqs: []float64{5.451}, Path: frame.Polyline{Points: []frame.Point{coords, gsCoords}}, Party: frame.Entity{Kind: frame.GroundStation, ID: &id}},
		},
	}
}

func TestStateDBWriteFrameUpsertsAndCounts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	w, err := OpenStateDB(dbPath)
	require.NoError(t, err)

	cf := testFrame(t, "A1B2C3", 7)
	require.NoError(t, w.WriteFrame(cf))
	require.NoError(t, w.WriteFrame(cf))

	var ac Aircraft
	require.NoError(t, w.db.Where("icao = ?", "A1B2C3").First(&ac).Error)
	assert.Equal(t, int64(2), ac.MsgCount)

	var stat FrequencyStat
	require.NoError(t, w.db.Where("khz = ? AND gs_id = ?", 5451, 7).First(&stat).Error)
	assert.Equal(t, int64(2), stat.Count)

	var events []AircraftEvent
	require.NoError(t, w.db.Find(&events).Error)
	assert.Len(t, events, 2)

	var props []PropagationEvent
	require.NoError(t, w.db.Find(&props).Error)
	assert.Len(t, props, 2)
}
