package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airframesio/xng/internal/groundstation"
	"github.com/airframesio/xng/internal/systable"
)

func testSystemTable() *systable.SystemTable {
	return &systable.SystemTable{
		Version: 51,
		Stations: []systable.Station{
			{ID: 1, Name: "San Francisco", Lat: 37.6, Lon: -122.4, Frequencies: []int{5451, 8942}},
			{ID: 4, Name: "Reykjavik", Lat: 63.9, Lon: -22.6, Frequencies: []int{6625}},
		},
	}
}

func testGroundStationDB(t *testing.T) *systable.GroundStationDB {
	var csv = "GS-ID,Airport-ICAO,Airport-IATA,AirportName,AirportLat,AirportLon\n" +
		"ABCDEF,EDDF,FRA,Frankfurt,50.0379N,8.5622E\n"
	db, err := systable.ParseGroundStationDB(strings.NewReader(csv))
	require.NoError(t, err)
	return db
}

func TestNormalizeHFDLSPDU(t *testing.T) {
	n := New(Deps{
		SystemTable:  testSystemTable(),
		Registry:     groundstation.NewRegistry(),
		StaleTimeout: time.Hour,
	})

	var line = `{"hfdl":{"app":{"name":"dumphfdl","version":"1.7.0"},"t":{"sec":1714550400,"usec":500000},
		"freq":5451000,"bit_rate":1800,"sig_level":-12.5,"noise_level":-30.1,"freq_skew":0.1,"slot":"1",
		"spdu":{"err":false,"src":{"type":"Ground station","id":1,"name":null},"spdu_version":1,
		"change_note":"","systable_version":51,
		"gs_status":[{"gs":{"type":"Ground station","id":1,"name":null},"utc_sync":true,
		"freqs":[{"id":0,"freq":5451},{"id":1,"freq":8942}]}]}}}`

	cf, events, err := n.NormalizeHFDL([]byte(line), time.Now())
	require.NoError(t, err)
	require.NotNil(t, cf)

	assert.Equal(t, 5.451, cf.Freq)
	assert.Equal(t, "San Francisco", *cf.Src.GS)
	require.NotNil(t, cf.Metadata)
	require.NotNil(t, cf.Metadata.HFDL)
	assert.Equal(t, "Squitter", cf.Metadata.HFDL.Kind)
	assert.Equal(t, []int{1}, cf.Metadata.HFDL.HeardOn)

	require.Len(t, events, 1)
	assert.ElementsMatch(t, []int{5451, 8942}, events[0].New)
}

func TestNormalizeHFDLRejectsOutOfDateSystemTable(t *testing.T) {
	n := New(Deps{SystemTable: testSystemTable(), Registry: groundstation.NewRegistry(), StaleTimeout: time.Hour})

	var line = `{"hfdl":{"app":{"name":"dumphfdl","version":"1.7.0"},"t":{"sec":1714550400,"usec":0},
		"freq":5451000,"bit_rate":1800,"sig_level":-12.5,"noise_level":-30.1,"freq_skew":0.1,"slot":"1",
		"spdu":{"err":false,"src":{"type":"Ground station","id":1,"name":null},"spdu_version":1,
		"change_note":"","systable_version":99,"gs_status":[]}}}`

	_, _, err := n.NormalizeHFDL([]byte(line), time.Now())
	assert.ErrorIs(t, err, ErrSystemTableOutOfDate)
}

func TestNormalizeHFDLLPDUWithACARSAndFreqData(t *testing.T) {
	n := New(Deps{SystemTable: testSystemTable(), Registry: groundstation.NewRegistry(), StaleTimeout: time.Hour})

	var line = `{"hfdl":{"app":{"name":"dumphfdl","version":"1.7.0"},"t":{"sec":1714550400,"usec":0},
		"freq":5451000,"bit_rate":1800,"sig_level":-10,"noise_level":-30,"freq_skew":0,"slot":"3",
		"lpdu":{"err":false,
		"src":{"type":"Aircraft","id":9,"name":null,"ac_info":{"icao":"A1B2C3"}},
		"dst":{"type":"Ground station","id":1,"name":null},
		"type":{"id":4,"name":"Performance data"},
		"hfnpdu":{"err":false,"type":{"id":4,"name":"Performance data"},
		"flight_id":"UAL123 ","pos":{"lat":37.0,"lon":-120.0},
		"acars":{"err":false,"crc_ok":true,"more":false,"reg":"N12-345","mode":"2","label":"H1",
		"blk_id":"1","ack":"A","flight":"UA123","msg_num":"M01","msg_num_seq":"A","msg_text":"HELLO"},
		"flight_leg_num":1,"freq_data":[{"id":4,"freq":6625}]}}}}`

	cf, _, err := n.NormalizeHFDL([]byte(line), time.Now())
	require.NoError(t, err)
	require.NotNil(t, cf)

	assert.Equal(t, "A1B2C3", *cf.Src.ICAO)
	assert.Equal(t, "UAL123", *cf.Src.Callsign)
	require.NotNil(t, cf.ACARS)
	assert.Equal(t, "N12345", *cf.ACARS.Tail)
	assert.Equal(t, "N12345", *cf.Src.Tail)

	require.Len(t, cf.Paths, 2)
}

func TestNormalizeVDL2AVLCWithACARSAndXID(t *testing.T) {
	n := New(Deps{GroundStations: testGroundStationDB(t)})

	var line = `{"vdl2":{"app":{"name":"dumpvdl2","version":"2.3.0"},"t":{"sec":1714550400,"usec":250000},
		"freq":136975000,"idx":0,"sig_level":-15,"noise_level":-40,"freq_skew":0,
		"avlc":{"src":{"addr":"A1B2C3","type":"Aircraft","status":null},
		"dst":{"addr":"ABCDEF","type":"Ground station","status":null},"cr":"C",
		"acars":{"err":false,"crc_ok":true,"more":false,"reg":"N12-345","mode":"2","label":"H1",
		"blk_id":"1","ack":"A","flight":"UA123","msg_num":"M01","msg_num_seq":"A","msg_text":"HELLO"},
		"xid":{"err":false,"type":"GSIF","type_descr":"Ground Station Information Frame",
		"vdl_params":[{"name":"ac_location","value":{"loc":{"lat":50.5,"lon":8.0},"alt":35000}},
		{"name":"dst_airport","value":"EDDF"}]}}}}`

	cf, err := n.NormalizeVDL2([]byte(line), time.Now())
	require.NoError(t, err)
	require.NotNil(t, cf)

	assert.InDelta(t, 136.975, cf.Freq, 1e-9)
	assert.Equal(t, "Frankfurt (FRA/EDDF)", *cf.Dst.GS)
	require.NotNil(t, cf.Src.Coords)
	assert.Equal(t, 8.0, cf.Src.Coords.X)
	require.NotNil(t, cf.Indexed)
	assert.Equal(t, "EDDF", *cf.Indexed.DstAirport)
	require.Len(t, cf.Paths, 1)
	assert.Equal(t, "N12345", *cf.Src.Tail)
}

func TestNormalizeRejectsBadJSON(t *testing.T) {
	n := New(Deps{SystemTable: testSystemTable(), Registry: groundstation.NewRegistry()})
	_, _, err := n.NormalizeHFDL([]byte("{not json"), time.Now())
	assert.ErrorIs(t, err, ErrBadJSON)
}

func TestNormalizeRejectsMissingPDU(t *testing.T) {
	n := New(Deps{SystemTable: testSystemTable(), Registry: groundstation.NewRegistry()})
	_, _, err := n.NormalizeHFDL([]byte(`{"hfdl":{"app":{"name":"dumphfdl","version":"1"},"t":{"sec":1,"usec":0},"freq":5451000,"bit_rate":0,"sig_level":0,"noise_level":0,"freq_skew":0,"slot":"1"}}`), time.Now())
	assert.ErrorIs(t, err, ErrMissingPDU)
}
