package sink

import "time"

// GroundStation is the state-DB row for one observed ground station
// (spec.md §6 SQLite schema).
type GroundStation struct {
	ID             int `gorm:"primaryKey"`
	Name           string
	Latitude       float64
	Longitude      float64
	MsgsHeardFrom  int64
	MsgsHeardTo    int64
}

func (GroundStation) TableName() string { return "ground_stations" }

// GroundStationChangeEvent persists one SPDU-observed frequency-set change
// (spec.md §4.4, §6).
type GroundStationChangeEvent struct {
	ID    uint `gorm:"primaryKey"`
	GSID  int  `gorm:"index"`
	TS    time.Time
	Type  string
	Old   string // JSON array literal
	New   string // JSON array literal
}

func (GroundStationChangeEvent) TableName() string { return "ground_station_change_events" }

// Aircraft is the state-DB row for one observed aircraft, upserted by ICAO.
type Aircraft struct {
	ICAO     string `gorm:"primaryKey"`
	Addr     string
	Tail     string
	MsgCount int64
}

func (Aircraft) TableName() string { return "aircrafts" }

// AircraftEvent is one CFF with coordinates present, linked to the
// aircraft and the ground station that heard it.
type AircraftEvent struct {
	ID            uint `gorm:"primaryKey"`
	AircraftICAO  string  `gorm:"index"`
	GSID          int     `gorm:"index"`
	Callsign      string
	Tail          string
	TS            time.Time
	Signal        float64
	FreqMHz       float64
	Latitude      float64
	Longitude     float64
	Altitude      float64
}

func (AircraftEvent) TableName() string { return "aircraft_events" }

// PropagationEvent is one path-party row, one per PropagationPath on a CFF.
type PropagationEvent struct {
	ID              uint `gorm:"primaryKey"`
	AircraftEventID uint `gorm:"uniqueIndex:idx_prop_event_gs"`
	GSID            int  `gorm:"uniqueIndex:idx_prop_event_gs"`
}

func (PropagationEvent) TableName() string { return "propagation_events" }

// FrequencyStat tracks per-(khz, gs_id) traffic counts and direction.
type FrequencyStat struct {
	KHz        int `gorm:"primaryKey;column:khz"`
	GSID       int `gorm:"primaryKey"`
	Count      int64
	ToGS       int64
	FromGS     int64
	LastHeard  time.Time
}

func (FrequencyStat) TableName() string { return "frequency_stats" }

// AllModels lists every model for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&GroundStation{},
		&GroundStationChangeEvent{},
		&Aircraft{},
		&AircraftEvent{},
		&PropagationEvent{},
		&FrequencyStat{},
	}
}
