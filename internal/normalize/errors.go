// Package normalize converts one line of raw decoder JSON (HFDL or
// VDL2/AVLC) into a frame.CommonFrame, or fails with a typed reason
// (spec.md §4.2).
package normalize

import "errors"

// Failure taxonomy from spec.md §4.2.
var (
	ErrBadJSON             = errors.New("normalize: malformed JSON")
	ErrValidationFailed    = errors.New("normalize: validation failed")
	ErrInvalidArrivalTime  = errors.New("normalize: invalid arrival time")
	ErrMissingPDU          = errors.New("normalize: message carries no known PDU")
	ErrSystemTableOutOfDate = errors.New("normalize: system table out of date")
)
