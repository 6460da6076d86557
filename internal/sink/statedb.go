package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/airframesio/xng/internal/frame"
	"github.com/airframesio/xng/internal/groundstation"
)

// StateDBWriter persists per-frame aggregates through a single SQLite
// connection pool shared across tasks (spec.md §4.5, §5). It is the passive
// "not in swarm mode" sink: cmd/xng's buildSinks does not create it when a
// swarm address is configured.
type StateDBWriter struct {
	db *gorm.DB
}

// OpenStateDB opens (creating if absent) the SQLite state database at path
// and runs AutoMigrate for every model.
func OpenStateDB(path string) (*StateDBWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sink: create state db directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sink: open state db %s: %w", path, err)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("sink: migrate state db: %w", err)
	}

	return &StateDBWriter{db: db}, nil
}

// WriteFrame applies one CFF's state-DB side effects: aircraft upsert,
// frequency_stats increment, ground_stations direction counters,
// aircraft_events (when coords present), and one propagation_events row
// per path party (spec.md §4.5).
func (w *StateDBWriter) WriteFrame(cf frame.CommonFrame) error {
	var aircraft, ground *frame.Entity
	if cf.Src.Kind == frame.Aircraft {
		aircraft = &cf.Src
	} else if cf.Src.Kind == frame.GroundStation {
		ground = &cf.Src
	}
	if cf.Dst != nil {
		if cf.Dst.Kind == frame.Aircraft && aircraft == nil {
			aircraft = cf.Dst
		} else if cf.Dst.Kind == frame.GroundStation && ground == nil {
			ground = cf.Dst
		}
	}

	if aircraft != nil && aircraft.ICAO != nil {
		if err := w.upsertAircraft(*aircraft); err != nil {
			return err
		}
	}

	if ground != nil && ground.ID != nil {
		fromGS := cf.Src.Kind == frame.GroundStation
		if err := w.touchGroundStation(*ground, fromGS); err != nil {
			return err
		}

		khz := int(cf.Freq * 1000)
		if err := w.incrementFrequencyStat(khz, *ground.ID, fromGS); err != nil {
			return err
		}
	}

	if aircraft != nil && aircraft.Coords != nil {
		evID, err := w.insertAircraftEvent(cf, *aircraft, ground)
		if err != nil {
			return err
		}
		for _, p := range cf.Paths {
			if p.Party.ID == nil {
				continue
			}
			if err := w.insertPropagationEvent(evID, *p.Party.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *StateDBWriter) upsertAircraft(a frame.Entity) error {
	var tail string
	if a.Tail != nil {
		tail = *a.Tail
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		var rec Aircraft
		result := tx.Where("icao = ?", *a.ICAO).First(&rec)
		if result.Error == gorm.ErrRecordNotFound {
			return tx.Create(&Aircraft{ICAO: *a.ICAO, Addr: *a.ICAO, Tail: tail, MsgCount: 1}).Error
		}
		if result.Error != nil {
			return result.Error
		}
		updates := map[string]interface{}{"msg_count": rec.MsgCount + 1}
		if tail != "" {
			updates["tail"] = tail
		}
		return tx.Model(&rec).Updates(updates).Error
	})
}

func (w *StateDBWriter) touchGroundStation(g frame.Entity, heardFrom bool) error {
	var name string
	if g.GS != nil {
		name = *g.GS
	}
	var lat, lon float64
	if g.Coords != nil {
		lat, lon = g.Coords.Y, g.Coords.X
	}

	return w.db.Transaction(func(tx *gorm.DB) error {
		var rec GroundStation
		result := tx.Where("id = ?", *g.ID).First(&rec)
		if result.Error == gorm.ErrRecordNotFound {
			gs := GroundStation{ID: *g.ID, Name: name, Latitude: lat, Longitude: lon}
			if heardFrom {
				gs.MsgsHeardFrom = 1
			} else {
				gs.MsgsHeardTo = 1
			}
			return tx.Create(&gs).Error
		}
		if result.Error != nil {
			return result.Error
		}
		col := "msgs_heard_to"
		if heardFrom {
			col = "msgs_heard_from"
		}
		return tx.Model(&rec).Update(col, gorm.Expr(col+" + 1")).Error
	})
}

func (w *StateDBWriter) incrementFrequencyStat(khz, gsID int, fromGS bool) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		var rec FrequencyStat
		result := tx.Where("khz = ? AND gs_id = ?", khz, gsID).First(&rec)
		now := time.Now().UTC()
		if result.Error == gorm.ErrRecordNotFound {
			stat := FrequencyStat{KHz: khz, GSID: gsID, Count: 1, LastHeard: now}
			if fromGS {
				stat.FromGS = 1
			} else {
				stat.ToGS = 1
			}
			return tx.Create(&stat).Error
		}
		if result.Error != nil {
			return result.Error
		}
		col := "to_gs"
		if fromGS {
			col = "from_gs"
		}
		return tx.Model(&rec).Updates(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			col:          gorm.Expr(col + " + 1"),
			"last_heard": now,
		}).Error
	})
}

func (w *StateDBWriter) insertAircraftEvent(cf frame.CommonFrame, aircraft frame.Entity, ground *frame.Entity) (uint, error) {
	var callsign, tail string
	if aircraft.Callsign != nil {
		callsign = *aircraft.Callsign
	}
	if aircraft.Tail != nil {
		tail = *aircraft.Tail
	}
	var gsID int
	if ground != nil && ground.ID != nil {
		gsID = *ground.ID
	}

	ev := AircraftEvent{
		AircraftICAO: *aircraft.ICAO,
		GSID:         gsID,
		Callsign:     callsign,
		Tail:         tail,
		TS:           cf.Timestamp,
		Signal:       cf.Signal,
		FreqMHz:      cf.Freq,
		Latitude:     aircraft.Coords.Y,
		Longitude:    aircraft.Coords.X,
		Altitude:     aircraft.Coords.Z,
	}
	if err := w.db.Create(&ev).Error; err != nil {
		return 0, fmt.Errorf("sink: insert aircraft_events: %w", err)
	}
	return ev.ID, nil
}

func (w *StateDBWriter) insertPropagationEvent(aircraftEventID uint, gsID int) error {
	err := w.db.Create(&PropagationEvent{AircraftEventID: aircraftEventID, GSID: gsID}).Error
	if err != nil && !isUniqueConstraintError(err) {
		return fmt.Errorf("sink: insert propagation_events: %w", err)
	}
	return nil
}

// WriteChangeEvent persists one SPDU-observed ground-station frequency
// change, emitting old/new frequency lists as JSON array literals per
// spec.md §9's recommendation.
func (w *StateDBWriter) WriteChangeEvent(e groundstation.ChangeEvent) error {
	old, err := jsonIntList(e.Old)
	if err != nil {
		return err
	}
	new_, err := jsonIntList(e.New)
	if err != nil {
		return err
	}

	gsID, _ := strconv.Atoi(e.StationID.String())

	return w.db.Create(&GroundStationChangeEvent{
		GSID: gsID,
		TS:   e.Timestamp,
		Type: "frequency_change",
		Old:  old,
		New:  new_,
	}).Error
}

func jsonIntList(xs []int) (string, error) {
	if xs == nil {
		xs = []int{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "", fmt.Errorf("sink: marshal frequency list: %w", err)
	}
	return string(b), nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "unique constraint")
}
