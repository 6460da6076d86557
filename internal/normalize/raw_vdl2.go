package normalize

import "encoding/json"

// Raw decoder JSON shapes for dumpvdl2's "--output decoded:json" AVLC
// output.

type rawVDL2Entity struct {
	Addr   string  `json:"addr"`
	Type   string  `json:"type"`
	Status *string `json:"status"`
}

type rawVDL2ACARS struct {
	Err       bool    `json:"err"`
	CRCOK     bool    `json:"crc_ok"`
	More      bool    `json:"more"`
	Reg       string  `json:"reg"`
	Mode      string  `json:"mode"`
	Label     string  `json:"label"`
	Sublabel  *string `json:"sublabel"`
	CFI       *string `json:"cfi"`
	MFI       *string `json:"mfi"`
	BlkID     string  `json:"blk_id"`
	Ack       string  `json:"ack"`
	Flight    *string `json:"flight"`
	MsgNum    *string `json:"msg_num"`
	MsgNumSeq *string `json:"msg_num_seq"`
	MsgText   string  `json:"msg_text"`
}

type rawGPSCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type rawACLocation struct {
	Loc rawGPSCoord `json:"loc"`
	Alt float64     `json:"alt"`
}

type rawVDLParam struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type rawXID struct {
	Err        bool          `json:"err"`
	Type       string        `json:"type"`
	TypeDescr  string        `json:"type_descr"`
	VDLParams  []rawVDLParam `json:"vdl_params"`
}

type rawAVLC struct {
	Src   rawVDL2Entity `json:"src"`
	Dst   rawVDL2Entity `json:"dst"`
	CR    string        `json:"cr"`
	ACARS *rawVDL2ACARS `json:"acars"`
	XID   *rawXID       `json:"xid"`
}

type rawVDL2 struct {
	App        rawApp       `json:"app"`
	T          rawTimestamp `json:"t"`
	Freq       int64        `json:"freq"`
	Idx        int          `json:"idx"`
	SigLevel   float64      `json:"sig_level"`
	NoiseLevel float64      `json:"noise_level"`
	FreqSkew   float64      `json:"freq_skew"`
	AVLC       *rawAVLC     `json:"avlc"`
}

type rawVDL2Message struct {
	VDL2 rawVDL2 `json:"vdl2"`
}

// xidACLocation pulls the "ac_location" vdl_param out of an XID block, if
// present, decoding its nested {loc:{lat,lon}, alt} shape.
func xidACLocation(xid *rawXID) (*rawACLocation, bool) {
	if xid == nil {
		return nil, false
	}
	for _, p := range xid.VDLParams {
		if p.Name != "ac_location" {
			continue
		}
		var loc rawACLocation
		if err := json.Unmarshal(p.Value, &loc); err != nil {
			return nil, false
		}
		return &loc, true
	}
	return nil, false
}

// xidDstAirport pulls the "dst_airport" vdl_param's string value, if present.
func xidDstAirport(xid *rawXID) (string, bool) {
	if xid == nil {
		return "", false
	}
	for _, p := range xid.VDLParams {
		if p.Name != "dst_airport" {
			continue
		}
		var s string
		if err := json.Unmarshal(p.Value, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}
