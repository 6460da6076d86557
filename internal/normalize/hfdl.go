package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/airframesio/xng/internal/frame"
	"github.com/airframesio/xng/internal/groundstation"
)

// NormalizeHFDL converts one line of dumphfdl "decoded:json" output into a
// CommonFrame. The second return value carries any ground-station
// frequency-set changes observed in an SPDU's gs_status block, for the
// caller to feed into the SPDU feedback loop (spec.md §4.4); it is nil for
// non-SPDU messages or when nothing changed.
func (n *Normalizer) NormalizeHFDL(line []byte, now time.Time) (*frame.CommonFrame, []groundstation.ChangeEvent, error) {
	var msg rawHFDLMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	var raw = msg.HFDL

	if raw.SPDU == nil && raw.LPDU == nil {
		return nil, nil, ErrMissingPDU
	}

	ts, err := arrivalTime(raw.T.Sec, raw.T.Usec)
	if err != nil {
		return nil, nil, err
	}

	cf := frame.CommonFrame{
		Timestamp: ts,
		Freq:      float64(raw.Freq) / 1_000_000,
		Signal:    raw.SigLevel,
		App:       frame.AppInfo{Name: raw.App.Name, Version: raw.App.Version},
	}

	var events []groundstation.ChangeEvent

	switch {
	case raw.SPDU != nil:
		cf.Err = raw.SPDU.Err
		cf.Src = n.hfdlEntity(raw.SPDU.Src)

		if err := n.deps.SystemTable.ValidateAgainst(raw.SPDU.SystableVersion); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSystemTableOutOfDate, err)
		}

		var heardOn = make([]int, 0, len(raw.SPDU.GSStatus))
		for _, gs := range raw.SPDU.GSStatus {
			heardOn = append(heardOn, gs.GS.ID)

			var freqsKHz = make([]int, 0, len(gs.Freqs))
			for _, f := range gs.Freqs {
				freqsKHz = append(freqsKHz, int(f.Freq))
			}

			_, _, event := n.deps.Registry.Update(groundstation.NumericID(int64(gs.GS.ID)), gs.GS.Name, freqsKHz, n.deps.StaleTimeout, now)
			if event != nil {
				events = append(events, *event)
			}
		}

		cf.Metadata = &frame.Metadata{HFDL: &frame.HFDLMeta{Kind: "Squitter", HeardOn: heardOn}}

	case raw.LPDU != nil:
		lpdu := raw.LPDU
		cf.Err = lpdu.Err
		cf.Src = n.hfdlEntity(lpdu.Src)
		dst := n.hfdlEntity(lpdu.Dst)
		cf.Dst = &dst

		if lpdu.ACInfo != nil {
			if cf.Src.Kind == frame.Aircraft {
				cf.Src.ICAO = &lpdu.ACInfo.ICAO
			} else if cf.Dst != nil && cf.Dst.Kind == frame.Aircraft {
				cf.Dst.ICAO = &lpdu.ACInfo.ICAO
			}
		}

		var acPoint *frame.Point

		if hf := lpdu.HFNPDU; hf != nil {
			if hf.FlightID != nil {
				callsign := strings.TrimSpace(*hf.FlightID)
				cf.Src.Callsign = &callsign
			}

			if hf.Pos != nil && (hf.Pos.Lat != 0 || hf.Pos.Lon != 0) {
				p := frame.Point{X: hf.Pos.Lon, Y: hf.Pos.Lat, Z: 0}
				cf.Src.Coords = &p
				acPoint = &p

				if cf.Dst != nil && cf.Dst.Coords != nil {
					cf.Paths = append(cf.Paths, frame.NewPropagationPath([]float64{cf.Freq}, []frame.Point{p, *cf.Dst.Coords}, *cf.Dst))
				}
			}

			if hf.Time != nil {
				it := nearestTimeInPast(ts, hf.Time.Hour, hf.Time.Min, hf.Time.Sec)
				cf.Indexed = &frame.Indexed{Timestamp: &it}
			}

			if hf.ACARS != nil {
				a := hf.ACARS
				tail := frame.NormalizeTail(a.Reg)
				cf.ACARS = &frame.ACARS{
					Mode:      a.Mode,
					More:      a.More,
					Label:     a.Label,
					Ack:       strPtr(a.Ack),
					BlockID:   strPtr(a.BlkID),
					MsgNum:    a.MsgNum,
					MsgNumSeq: a.MsgNumSeq,
					Tail:      &tail,
					Flight:    a.Flight,
					Text:      strPtr(a.MsgText),
					HasErr:    a.Err,
				}

				if cf.Src.Kind == frame.Aircraft {
					cf.Src.Tail = &tail
				} else if cf.Dst != nil && cf.Dst.Kind == frame.Aircraft {
					cf.Dst.Tail = &tail
				}
			}

			if acPoint != nil {
				var dstID = -1
				if cf.Dst != nil && cf.Dst.ID != nil {
					dstID = *cf.Dst.ID
				}
				for _, fd := range hf.FreqData {
					if fd.Freq == nil || fd.ID == dstID {
						continue
					}
					station, ok := n.deps.SystemTable.Lookup(fd.ID)
					if !ok {
						continue
					}
					sc := station.Coords()
					stationID := station.ID
					stationName := station.Name
					party := frame.Entity{Kind: frame.GroundStation, ID: &stationID, GS: &stationName, Coords: &sc}
					cf.Paths = append(cf.Paths, frame.NewPropagationPath([]float64{float64(*fd.Freq) / 1000}, []frame.Point{*acPoint, sc}, party))
				}
			}
		}
	}

	if err := cf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return &cf, events, nil
}

func (n *Normalizer) hfdlEntity(raw rawHFDLEntity) frame.Entity {
	e := frame.Entity{Kind: hfdlEntityKind(raw.Type)}

	switch e.Kind {
	case frame.GroundStation:
		id := raw.ID
		e.ID = &id
		if station, ok := n.deps.SystemTable.Lookup(raw.ID); ok {
			name := station.Name
			e.GS = &name
			c := station.Coords()
			e.Coords = &c
		} else if raw.Name != nil {
			e.GS = raw.Name
		}
	case frame.Aircraft:
		if raw.ACInfo != nil {
			e.ICAO = &raw.ACInfo.ICAO
		}
	}

	return e
}

func hfdlEntityKind(raw string) frame.Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aircraft":
		return frame.Aircraft
	case "ground station":
		return frame.GroundStation
	default:
		return frame.Reserved
	}
}

func strPtr(s string) *string { return &s }
