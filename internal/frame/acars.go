package frame

// ACARS mirrors the application-layer ACARS block carried inside both HFDL
// LPDU/HFNPDU messages and VDL2/AVLC frames. Fields beyond what spec.md
// names explicitly (err/tail/flight) are restored from
// original_source/src/common/frame.rs and modules/hfdl/frame.rs so that a
// complete CFF emitter round-trips the raw decoder's ACARS payload.
type ACARS struct {
	Mode       string  `json:"mode"`
	More       bool    `json:"more"`
	Label      string  `json:"label"`
	Ack        *string `json:"ack,omitempty"`
	BlockID    *string `json:"blk_id,omitempty"`
	MsgNum     *string `json:"msg_num,omitempty"`
	MsgNumSeq  *string `json:"msg_num_seq,omitempty"`
	Tail       *string `json:"tail,omitempty"`
	Flight     *string `json:"flight,omitempty"`
	Sublabel   *string `json:"sublabel,omitempty"`
	MFI        *string `json:"mfi,omitempty"`
	CFI        *string `json:"cfi,omitempty"`
	Text       *string `json:"text,omitempty"`
	HasErr     bool    `json:"has_err"`
}
