package models

import (
	"fmt"
	"time"
)

// MinuteOfDay is a time of day expressed as minutes since midnight, campus
// local time. Slot windows are computed in this representation so schedules
// never depend on wall-clock offsets.
type MinuteOfDay int

// ParseClock parses an "HH:MM" string into a MinuteOfDay.
func ParseClock(raw string) (MinuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return MinuteOfDay(h*60 + m), nil
}

// MinuteOf converts a wall-clock instant into its minute of day.
func MinuteOf(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

// String renders the minute as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// SessionSchedule is one event day's slot configuration. Absent slot times
// mean the event does not require that checkpoint on this date.
type SessionSchedule struct {
	SessionDayID     string       `db:"id" json:"session_day_id"`
	EventID          string       `db:"event_id" json:"event_id"`
	Date             time.Time    `db:"date" json:"date"`
	AmIn             *MinuteOfDay `db:"am_in" json:"am_in,omitempty"`
	AmOut            *MinuteOfDay `db:"am_out" json:"am_out,omitempty"`
	PmIn             *MinuteOfDay `db:"pm_in" json:"pm_in,omitempty"`
	PmOut            *MinuteOfDay `db:"pm_out" json:"pm_out,omitempty"`
	ToleranceMinutes int          `db:"tolerance_minutes" json:"tolerance_minutes"`
	DurationMinutes  int          `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// SlotTime returns the configured time for the slot, or nil.
func (s *SessionSchedule) SlotTime(slot Slot) *MinuteOfDay {
	switch slot {
	case SlotAmIn:
		return s.AmIn
	case SlotAmOut:
		return s.AmOut
	case SlotPmIn:
		return s.PmIn
	case SlotPmOut:
		return s.PmOut
	default:
		return nil
	}
}

// Configured reports whether the slot has a time on this schedule.
func (s *SessionSchedule) Configured(slot Slot) bool {
	return s.SlotTime(slot) != nil
}

// ConfiguredSlots lists the configured slots in canonical order.
func (s *SessionSchedule) ConfiguredSlots() []Slot {
	slots := make([]Slot, 0, len(SlotOrder))
	for _, slot := range SlotOrder {
		if s.Configured(slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Validate rejects schedules whose configured slot times are not strictly
// increasing, and nonsensical window parameters. Overlap between adjacent
// windows is still possible with a large tolerance; the resolver breaks such
// ties by fixed slot order.
func (s *SessionSchedule) Validate() error {
	if s.ToleranceMinutes < 0 {
		return fmt.Errorf("tolerance must not be negative")
	}
	if s.DurationMinutes < 0 {
		return fmt.Errorf("duration must not be negative")
	}

	var prev *MinuteOfDay
	var prevSlot Slot
	for _, slot := range SlotOrder {
		t := s.SlotTime(slot)
		if t == nil {
			continue
		}
		if *t < 0 || *t >= 24*60 {
			return fmt.Errorf("%s time %d out of range", slot, *t)
		}
		if prev != nil && *t <= *prev {
			return fmt.Errorf("%s must be after %s", slot, prevSlot)
		}
		prev = t
		prevSlot = slot
	}
	if prev == nil {
		return fmt.Errorf("at least one slot time is required")
	}
	return nil
}
