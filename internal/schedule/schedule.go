// Package schedule parses the session_schedule control-plane prop: a
// sequence of local wall-clock times paired with a target frequency,
// used to pick both a session's scheduled-end instant and, on the next
// rotation, its target band (spec.md §4.3, §6).
package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed schedule segment: the next absolute instant (within
// the next 24h) this entry fires, paired with its target frequency in kHz.
type Entry struct {
	At      time.Time
	FreqKHz int
}

var entryPattern = regexp.MustCompile(`^time=([0-9]|[01][0-9]|2[0-3]):([0-5][0-9]),band_contains=([0-9]{4,5})$`)

// Parse parses "time=HH:MM,band_contains=NNNN(N);..." into a sorted (by
// instant), deduplicated list of Entry, using now as the reference instant
// for "next occurrence" resolution (spec.md §6).
func Parse(value string, now time.Time) ([]Entry, error) {
	var entries []Entry

	for _, token := range strings.Split(value, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		m := entryPattern.FindStringSubmatch(token)
		if m == nil {
			return nil, fmt.Errorf("schedule: bad entry format: %q", token)
		}

		hour, err := strconv.Atoi(m[1])
		if err != nil || hour > 23 {
			return nil, fmt.Errorf("schedule: bad hour in %q", token)
		}
		min, err := strconv.Atoi(m[2])
		if err != nil || min > 59 {
			return nil, fmt.Errorf("schedule: bad minute in %q", token)
		}
		freq, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, fmt.Errorf("schedule: bad target frequency in %q", token)
		}

		at := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if at.Before(now) {
			at = at.AddDate(0, 0, 1)
		}

		entries = append(entries, Entry{At: at, FreqKHz: freq})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })

	var deduped = entries[:0]
	for i, e := range entries {
		if i == 0 || !e.At.Equal(entries[i-1].At) {
			deduped = append(deduped, e)
		}
	}

	return deduped, nil
}

// Validate checks the schedule string is well formed, for use as a
// settings-store prop validator (spec.md §4.6).
func Validate(value string) error {
	_, err := Parse(value, time.Now())
	return err
}

// Next returns the earliest entry in entries that is still in the future
// relative to now. If none is, it returns the first entry; ok is false
// only when entries is empty.
func Next(entries []Entry, now time.Time) (Entry, bool) {
	for _, e := range entries {
		if e.At.After(now) {
			return e, true
		}
	}
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}
