package systable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroundStationDB(t *testing.T) {
	var csv = "GS-ID,Airport-ICAO,Airport-IATA,AirportName,AirportLat,AirportLon\n" +
		"2,EDDF,FRA,Frankfurt,50.0379N,8.5622E\n" +
		"9,NZCH,CHC,Christchurch,43.4864S,172.5320E\n"

	db, err := ParseGroundStationDB(strings.NewReader(csv))
	require.NoError(t, err)

	rec, ok := db.Get("2")
	require.True(t, ok)
	assert.Equal(t, "Frankfurt", rec.AirportName)
	assert.InDelta(t, 50.0379, rec.Coords.Y, 1e-9)
	assert.InDelta(t, 8.5622, rec.Coords.X, 1e-9)

	rec, ok = db.Get("9")
	require.True(t, ok)
	assert.InDelta(t, -43.4864, rec.Coords.Y, 1e-9)
}

func TestSystemTableRejectsOutOfDateSPDU(t *testing.T) {
	st := &SystemTable{Version: 51}
	assert.NoError(t, st.ValidateAgainst(51))
	assert.NoError(t, st.ValidateAgainst(40))
	assert.Error(t, st.ValidateAgainst(52))
}
