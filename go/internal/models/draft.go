package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidDraftOrder is returned when a draft order is not a contiguous 1..N sequence
var ErrInvalidDraftOrder = errors.New("invalid draft order")

// DraftInfo holds the live draft logistics served by /draft
type DraftInfo struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Note     string `json:"note"`
	Details  string `json:"details"`
	Food     string `json:"food"`
}

// ScheduledAt parses the free-form date and time strings into a timestamp.
// The backend writes things like "August 24th, 2025" and "6:00 PM".
func (d DraftInfo) ScheduledAt(loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(stripOrdinals(d.Date) + " " + d.Time)
	if raw == "" {
		return time.Time{}, fmt.Errorf("draft date is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse draft date %q: %w", raw, err)
	}
	return t, nil
}

func stripOrdinals(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		trail := strings.TrimRight(f, ",")
		comma := f[len(trail):]
		for _, suffix := range []string{"st", "nd", "rd", "th"} {
			num := strings.TrimSuffix(trail, suffix)
			if num != trail && num != "" && strings.Trim(num, "0123456789") == "" {
				trail = num
				break
			}
		}
		fields[i] = trail + comma
	}
	return strings.Join(fields, " ")
}

// RaceStatus is the server's view of the draft order race, polled from /draft-race-status
type RaceStatus struct {
	TimeLocked      bool `json:"time_locked"`
	DraftCompleted  bool `json:"draft_completed"`
	TimeUntilReveal int  `json:"time_until_reveal"`
	ShouldAutoStart bool `json:"should_auto_start"`
}

// RevealDue reports whether the reveal deadline has passed
func (s RaceStatus) RevealDue() bool {
	return !s.TimeLocked || s.TimeUntilReveal <= 0
}

// DraftOrderEntry is one slot of the draft order
type DraftOrderEntry struct {
	Position int    `json:"draft_position"`
	Owner    string `json:"owner"`
}

// DraftOrder is the full draft order as returned by /draft-order
type DraftOrder []DraftOrderEntry

// Normalize returns a copy sorted by position, verifying positions run 1..N with
// no gaps or duplicates.
func (o DraftOrder) Normalize() (DraftOrder, error) {
	if len(o) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDraftOrder)
	}
	sorted := make(DraftOrder, len(o))
	copy(sorted, o)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for i, entry := range sorted {
		if entry.Position != i+1 {
			return nil, fmt.Errorf("%w: expected position %d, got %d", ErrInvalidDraftOrder, i+1, entry.Position)
		}
	}
	return sorted, nil
}

// Owners returns the owner names in draft order
func (o DraftOrder) Owners() []string {
	owners := make([]string, len(o))
	for i, entry := range o {
		owners[i] = entry.Owner
	}
	return owners
}
