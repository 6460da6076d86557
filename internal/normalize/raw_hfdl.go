package normalize

// Raw decoder JSON shapes for dumphfdl's "decoded:json" output. Field names
// mirror the wire format; validation beyond JSON shape happens in hfdl.go
// against the already-typed frame package.

type rawTimestamp struct {
	Sec  int64 `json:"sec"`
	Usec int64 `json:"usec"`
}

type rawApp struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type rawHFDLEntity struct {
	Type   string            `json:"type"`
	ID     int               `json:"id"`
	Name   *string           `json:"name"`
	ACInfo *rawAircraftInfo  `json:"ac_info"`
}

type rawAircraftInfo struct {
	ICAO string `json:"icao"`
}

type rawFrequencyInfo struct {
	ID   int   `json:"id"`
	Freq int64 `json:"freq"`
}

type rawGroundStationStatus struct {
	GS      rawHFDLEntity      `json:"gs"`
	UTCSync bool               `json:"utc_sync"`
	Freqs   []rawFrequencyInfo `json:"freqs"`
}

type rawPDUType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawReason struct {
	Code int    `json:"code"`
	Descr string `json:"descr"`
}

type rawSPDU struct {
	Err             bool                      `json:"err"`
	Src             rawHFDLEntity             `json:"src"`
	SPDUVersion     int                       `json:"spdu_version"`
	ChangeNote      string                    `json:"change_note"`
	SystableVersion int                       `json:"systable_version"`
	GSStatus        []rawGroundStationStatus  `json:"gs_status"`
}

type rawHFDLACARS struct {
	Err       bool    `json:"err"`
	CRCOK     bool    `json:"crc_ok"`
	More      bool    `json:"more"`
	Reg       string  `json:"reg"`
	Mode      string  `json:"mode"`
	Label     string  `json:"label"`
	BlkID     string  `json:"blk_id"`
	Ack       string  `json:"ack"`
	Flight    *string `json:"flight"`
	MsgNum    *string `json:"msg_num"`
	MsgNumSeq *string `json:"msg_num_seq"`
	MsgText   string  `json:"msg_text"`
}

type rawPosition struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type rawHFNPDUTime struct {
	Hour int `json:"hour"`
	Min  int `json:"min"`
	Sec  int `json:"sec"`
}

type rawPerfDataFreq struct {
	ID   int    `json:"id"`
	Freq *int64 `json:"freq"`
}

type rawHFNPDU struct {
	Err            bool               `json:"err"`
	Type           rawPDUType         `json:"type"`
	FlightID       *string            `json:"flight_id"`
	Pos            *rawPosition       `json:"pos"`
	ACARS          *rawHFDLACARS      `json:"acars"`
	Time           *rawHFNPDUTime     `json:"time"`
	FreqData       []rawPerfDataFreq  `json:"freq_data"`
}

type rawLPDU struct {
	Err          bool             `json:"err"`
	Src          rawHFDLEntity    `json:"src"`
	Dst          rawHFDLEntity    `json:"dst"`
	Type         rawPDUType       `json:"type"`
	HFNPDU       *rawHFNPDU       `json:"hfnpdu"`
	ACInfo       *rawAircraftInfo `json:"ac_info"`
	AssignedACID *int             `json:"assigned_ac_id"`
	Reason       *rawReason       `json:"reason"`
}

type rawHFDL struct {
	App        rawApp        `json:"app"`
	T          rawTimestamp  `json:"t"`
	Freq       int64         `json:"freq"`
	BitRate    int           `json:"bit_rate"`
	SigLevel   float64       `json:"sig_level"`
	NoiseLevel float64       `json:"noise_level"`
	FreqSkew   float64       `json:"freq_skew"`
	Slot       string        `json:"slot"`
	SPDU       *rawSPDU      `json:"spdu"`
	LPDU       *rawLPDU      `json:"lpdu"`
}

type rawHFDLMessage struct {
	HFDL rawHFDL `json:"hfdl"`
}
