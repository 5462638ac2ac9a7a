package service

import (
	"time"

	"heater_server/internal/models"
)

// DoorOpeningTracker derives the cumulative door-open time since the
// fire last went out from the raw status code stream. It keeps one
// interval per opening; the sequence is cleared when a burning or
// fire-starting status is seen.
//
// The tracker is not safe for concurrent use on its own; the ingestion
// engine serializes access to it.
type DoorOpeningTracker struct {
	openings []models.DoorOpening
	now      func() time.Time
}

func NewDoorOpeningTracker() *DoorOpeningTracker {
	return &DoorOpeningTracker{now: time.Now}
}

// Observe applies one status code and reports whether the door-opening
// state changed.
func (t *DoorOpeningTracker) Observe(status int) bool {
	switch {
	case status == models.StatusHeatingUp ||
		status == models.StatusBurning ||
		status == models.StatusEmbers:
		// Fire is active again; door openings of the previous cycle no
		// longer count.
		if len(t.openings) > 0 {
			t.openings = t.openings[:0]
			return true
		}
		return false

	case (status == models.StatusWaitIgnition || status == models.StatusPreVenting) &&
		len(t.openings) > 0:
		last := &t.openings[len(t.openings)-1]
		if last.End == nil {
			end := t.now()
			last.End = &end
			return true
		}
		return false

	case status == models.StatusDoorOpen:
		if !t.hasOpenInterval() {
			t.openings = append(t.openings, models.DoorOpening{Start: t.now()})
		}
		return true

	default:
		return false
	}
}

// OpenDuration returns the summed duration of all recorded intervals.
// A still-open interval counts up to now.
func (t *DoorOpeningTracker) OpenDuration() time.Duration {
	var sum time.Duration
	for _, o := range t.openings {
		end := t.now()
		if o.End != nil {
			end = *o.End
		}
		sum += end.Sub(o.Start)
	}
	return sum
}

// Openings returns a copy of the recorded intervals.
func (t *DoorOpeningTracker) Openings() []models.DoorOpening {
	out := make([]models.DoorOpening, len(t.openings))
	copy(out, t.openings)
	return out
}

func (t *DoorOpeningTracker) hasOpenInterval() bool {
	if len(t.openings) == 0 {
		return false
	}
	return t.openings[len(t.openings)-1].End == nil
}
