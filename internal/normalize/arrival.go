package normalize

import (
	"fmt"
	"time"
)

// arrivalTime converts a (sec, usec) pair as reported by the decoder's "t"
// block into a UTC time.Time with microsecond precision, per spec.md §4.2.
func arrivalTime(sec int64, usec int64) (time.Time, error) {
	if sec < 0 {
		return time.Time{}, fmt.Errorf("%w: negative seconds %d", ErrInvalidArrivalTime, sec)
	}
	if usec < 0 || usec > 999999 {
		return time.Time{}, fmt.Errorf("%w: microseconds %d out of range [0, 999999]", ErrInvalidArrivalTime, usec)
	}
	return time.Unix(sec, usec*1000).UTC(), nil
}

// nearestTimeInPast returns the latest instant at or before ref whose
// (hour, minute, second) components match those given, stepping back one
// day if today's occurrence would be in the future — used to backfill
// HFNPDU "time" fields that carry no date (spec.md §4.2 HFDL path).
func nearestTimeInPast(ref time.Time, hour, min, sec int) time.Time {
	var candidate = time.Date(ref.Year(), ref.Month(), ref.Day(), hour, min, sec, 0, time.UTC)
	if candidate.After(ref) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate
}
