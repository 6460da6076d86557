package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/airframesio/xng/internal/frame"
)

// NormalizeVDL2 converts one line of dumpvdl2 "decoded:json" AVLC output
// into a CommonFrame, resolving ground-station coordinates via the injected
// GroundStationDB (spec.md §4.2 VDL2 path).
func (n *Normalizer) NormalizeVDL2(line []byte, now time.Time) (*frame.CommonFrame, error) {
	var msg rawVDL2Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	var raw = msg.VDL2

	if raw.AVLC == nil {
		return nil, ErrMissingPDU
	}
	avlc := raw.AVLC

	ts, err := arrivalTime(raw.T.Sec, raw.T.Usec)
	if err != nil {
		return nil, err
	}

	cf := frame.CommonFrame{
		Timestamp: ts,
		Freq:      float64(raw.Freq) / 1_000_000,
		Signal:    raw.SigLevel,
		App:       frame.AppInfo{Name: raw.App.Name, Version: raw.App.Version},
		Src:       n.vdl2Entity(avlc.Src),
	}
	dst := n.vdl2Entity(avlc.Dst)
	cf.Dst = &dst

	if ac, ok := xidACLocation(avlc.XID); ok {
		acPoint := frame.Point{X: ac.Loc.Lon, Y: ac.Loc.Lat, Z: ac.Alt}
		cf.Src.Coords = &acPoint

		if cf.Dst != nil && cf.Dst.Kind == frame.GroundStation && cf.Dst.Coords != nil {
			cf.Paths = append(cf.Paths, frame.NewPropagationPath([]float64{cf.Freq}, []frame.Point{acPoint, *cf.Dst.Coords}, *cf.Dst))
		}
	}

	if dstAirport, ok := xidDstAirport(avlc.XID); ok {
		a := dstAirport
		cf.Indexed = &frame.Indexed{DstAirport: &a}
	}

	if avlc.ACARS != nil {
		a := avlc.ACARS
		cf.Err = a.Err
		tail := frame.NormalizeTail(a.Reg)

		cf.ACARS = &frame.ACARS{
			Mode:      a.Mode,
			More:      a.More,
			Label:     a.Label,
			Sublabel:  a.Sublabel,
			MFI:       a.MFI,
			CFI:       a.CFI,
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
			if a.Flight != nil {
				f := strings.TrimSpace(*a.Flight)
				cf.Src.Callsign = &f
			}
		} else if cf.Dst != nil && cf.Dst.Kind == frame.Aircraft {
			cf.Dst.Tail = &tail
		}
	}

	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return &cf, nil
}

func (n *Normalizer) vdl2Entity(raw rawVDL2Entity) frame.Entity {
	norm := strings.ToUpper(strings.TrimSpace(raw.Addr))
	e := frame.Entity{Kind: vdl2EntityKind(raw.Type), ICAO: &norm}

	if e.Kind == frame.GroundStation {
		if id, err := strconv.ParseInt(norm, 16, 64); err == nil {
			idInt := int(id)
			e.ID = &idInt
		}

		if n.deps.GroundStations != nil {
			if rec, ok := n.deps.GroundStations.Get(norm); ok {
				gs := fmt.Sprintf("%s (%s/%s)", rec.AirportName, rec.AirportIATA, rec.AirportICAO)
				e.GS = &gs
				c := rec.Coords
				e.Coords = &c
			}
		}
	}

	return e
}

func vdl2EntityKind(raw string) frame.Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "aircraft":
		return frame.Aircraft
	case "ground station":
		return frame.GroundStation
	default:
		return frame.Reserved
	}
}
