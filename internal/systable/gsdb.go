package systable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/airframesio/xng/internal/frame"
)

// GroundStationRecord is one row of the VDL2 airport/ground-station CSV:
// GS-ID,Airport-ICAO,Airport-IATA,AirportName,AirportLat,AirportLon
// (spec.md §4.2), where lat/lon carry a trailing N/S or E/W direction
// letter instead of a sign.
type GroundStationRecord struct {
	ICAOAddr    string
	AirportICAO string
	AirportIATA string
	AirportName string
	Coords      frame.Point
}

// GroundStationDB is an in-memory lookup of VDL2 ground stations by their
// hex ICAO address, keyed uppercase.
type GroundStationDB struct {
	byAddr map[string]GroundStationRecord
}

// LoadGroundStationDB parses the CSV at path.
func LoadGroundStationDB(path string) (*GroundStationDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("systable: open ground station db %s: %w", path, err)
	}
	defer f.Close()
	return ParseGroundStationDB(f)
}

// ParseGroundStationDB parses the CSV format from an arbitrary reader.
func ParseGroundStationDB(r io.Reader) (*GroundStationDB, error) {
	var cr = csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("systable: read ground station db header: %w", err)
	}
	var col = make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"GS-ID", "Airport-ICAO", "Airport-IATA", "AirportName", "AirportLat", "AirportLon"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("systable: ground station db missing column %q", want)
		}
	}

	var db = &GroundStationDB{byAddr: make(map[string]GroundStationRecord)}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("systable: read ground station db row: %w", err)
		}

		gsID := strings.TrimSpace(row[col["GS-ID"]])
		lat, err := parseDirectedCoord(row[col["AirportLat"]], 'S')
		if err != nil {
			return nil, fmt.Errorf("systable: bad latitude for %s: %w", gsID, err)
		}
		lon, err := parseDirectedCoord(row[col["AirportLon"]], 'W')
		if err != nil {
			return nil, fmt.Errorf("systable: bad longitude for %s: %w", gsID, err)
		}

		db.byAddr[strings.ToUpper(gsID)] = GroundStationRecord{
			ICAOAddr:    gsID,
			AirportICAO: strings.TrimSpace(row[col["Airport-ICAO"]]),
			AirportIATA: strings.TrimSpace(row[col["Airport-IATA"]]),
			AirportName: strings.TrimSpace(row[col["AirportName"]]),
			Coords:      frame.Point{X: lon, Y: lat, Z: 0},
		}
	}

	return db, nil
}

// parseDirectedCoord parses a value like "50.0379N" or "122.3748W": a float
// magnitude with a trailing direction letter. negativeWhen is the letter
// that flips the sign ('S' for latitude, 'W' for longitude).
func parseDirectedCoord(raw string, negativeWhen byte) (float64, error) {
	var s = strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	var dir = s[len(s)-1]
	var magnitude = s
	if dir < '0' || dir > '9' {
		magnitude = s[:len(s)-1]
	} else {
		dir = 0
	}

	v, err := strconv.ParseFloat(magnitude, 64)
	if err != nil {
		return 0, err
	}
	if dir != 0 && strings.EqualFold(string(dir), string(negativeWhen)) {
		v = -v
	}
	return v, nil
}

// Get returns the ground station record for a hex ICAO address (matched
// case-insensitively), if known.
func (db *GroundStationDB) Get(addr string) (GroundStationRecord, bool) {
	rec, ok := db.byAddr[strings.ToUpper(addr)]
	return rec, ok
}
