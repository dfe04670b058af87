package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-attend/attendance-api/internal/models"
)

func minutePtr(m models.MinuteOfDay) *models.MinuteOfDay {
	return &m
}

func clock(t *testing.T, raw string) models.MinuteOfDay {
	t.Helper()
	m, err := models.ParseClock(raw)
	require.NoError(t, err)
	return m
}

func timePtr(ts time.Time) *time.Time {
	return &ts
}

func strictPolicy() ResolvePolicy {
	return ResolvePolicy{StrictSequential: true}
}

func fullDaySchedule() *models.SessionSchedule {
	return &models.SessionSchedule{
		SessionDayID:     "day-1",
		EventID:          "event-1",
		AmIn:             minutePtr(8 * 60),
		AmOut:            minutePtr(12 * 60),
		PmIn:             minutePtr(13 * 60),
		PmOut:            minutePtr(17 * 60),
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}
}

func TestResolveSlotMorningInWindowBoundaries(t *testing.T) {
	// amIn=08:00, tolerance=15, duration=30.
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "08:00")),
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}

	cases := []struct {
		name     string
		scan     string
		accepted bool
	}{
		{"one minute before window opens", "07:44", false},
		{"exactly at window open", "07:45", true},
		{"nominal slot time", "08:00", true},
		{"exactly at window close", "08:30", true},
		{"one minute after window closes", "08:31", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := ResolveSlot(schedule, nil, clock(t, tc.scan), strictPolicy())
			if tc.accepted {
				require.True(t, decision.Accepted)
				assert.Equal(t, models.SlotAmIn, decision.Slot)
			} else {
				require.False(t, decision.Accepted)
				assert.Equal(t, models.RejectNoMatchingWindow, decision.Reason)
			}
		})
	}
}

func TestResolveSlotMorningOutAfterMorningIn(t *testing.T) {
	// amOut=12:00, tolerance=15, duration=15, amIn already recorded.
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "08:00")),
		AmOut:            minutePtr(clock(t, "12:00")),
		ToleranceMinutes: 15,
		DurationMinutes:  15,
	}
	record := &models.AttendanceRecord{AmIn: timePtr(time.Now())}

	decision := ResolveSlot(schedule, record, clock(t, "11:50"), strictPolicy())
	require.True(t, decision.Accepted)
	assert.Equal(t, models.SlotAmOut, decision.Slot)
}

func TestResolveSlotRepeatedScanRejectedAlreadyRecorded(t *testing.T) {
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "08:00")),
		AmOut:            minutePtr(clock(t, "12:00")),
		ToleranceMinutes: 15,
		DurationMinutes:  15,
	}
	record := &models.AttendanceRecord{
		AmIn:  timePtr(time.Now()),
		AmOut: timePtr(time.Now()),
	}

	decision := ResolveSlot(schedule, record, clock(t, "11:50"), strictPolicy())
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectAlreadyRecorded, decision.Reason)
}

func TestResolveSlotSequentialPrerequisiteBlocksCheckout(t *testing.T) {
	schedule := fullDaySchedule()

	// Every scan time, am-in unset: am-out must never be the outcome.
	for minute := models.MinuteOfDay(0); minute < 24*60; minute++ {
		decision := ResolveSlot(schedule, nil, minute, strictPolicy())
		if decision.Accepted {
			assert.Equal(t, models.SlotAmIn, decision.Slot, "minute %s", minute)
		}
	}
}

func TestResolveSlotUnconfiguredPrerequisiteStillBlocks(t *testing.T) {
	// Only amIn and pmOut configured. Under the sequential policy the pm-out
	// chain (am-out, pm-in) is unrecorded, so a pm-out window scan is
	// rejected even though those slots are not configured for the day.
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "08:00")),
		PmOut:            minutePtr(clock(t, "17:00")),
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}
	record := &models.AttendanceRecord{AmIn: timePtr(time.Now())}

	decision := ResolveSlot(schedule, record, clock(t, "17:00"), strictPolicy())
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectNoMatchingWindow, decision.Reason)

	// The permissive policy accepts the same scan.
	permissive := ResolveSlot(schedule, record, clock(t, "17:00"), ResolvePolicy{})
	require.True(t, permissive.Accepted)
	assert.Equal(t, models.SlotPmOut, permissive.Slot)
}

func TestResolveSlotOverlappingWindowsResolveToFirstSlot(t *testing.T) {
	// Misconfigured: pmIn window opens before amOut window closes. A scan in
	// the overlap must deterministically go to the earlier slot.
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "08:00")),
		AmOut:            minutePtr(clock(t, "12:00")),
		PmIn:             minutePtr(clock(t, "12:10")),
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}
	record := &models.AttendanceRecord{AmIn: timePtr(time.Now())}

	decision := ResolveSlot(schedule, record, clock(t, "12:05"), ResolvePolicy{})
	require.True(t, decision.Accepted)
	assert.Equal(t, models.SlotAmOut, decision.Slot)
}

func TestResolveSlotNoConfiguredSlots(t *testing.T) {
	schedule := &models.SessionSchedule{ToleranceMinutes: 15, DurationMinutes: 30}

	decision := ResolveSlot(schedule, nil, clock(t, "08:00"), strictPolicy())
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectSessionNotConfigured, decision.Reason)
}

func TestResolveSlotSkipsRecordedSlotToNextOpenWindow(t *testing.T) {
	// A scan inside both the recorded am-in window and the am-out window
	// re-resolves to the still-open am-out slot.
	schedule := &models.SessionSchedule{
		AmIn:             minutePtr(clock(t, "11:45")),
		AmOut:            minutePtr(clock(t, "12:00")),
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}
	record := &models.AttendanceRecord{AmIn: timePtr(time.Now())}

	decision := ResolveSlot(schedule, record, clock(t, "11:50"), strictPolicy())
	require.True(t, decision.Accepted)
	assert.Equal(t, models.SlotAmOut, decision.Slot)
}

func TestResolveSlotFullDayProgression(t *testing.T) {
	schedule := fullDaySchedule()
	record := &models.AttendanceRecord{}
	now := time.Now()

	steps := []struct {
		scan string
		want models.Slot
	}{
		{"07:50", models.SlotAmIn},
		{"12:10", models.SlotAmOut},
		{"12:50", models.SlotPmIn},
		{"17:25", models.SlotPmOut},
	}

	for _, step := range steps {
		decision := ResolveSlot(schedule, record, clock(t, step.scan), strictPolicy())
		require.True(t, decision.Accepted, "scan at %s", step.scan)
		require.Equal(t, step.want, decision.Slot)

		switch decision.Slot {
		case models.SlotAmIn:
			record.AmIn = timePtr(now)
		case models.SlotAmOut:
			record.AmOut = timePtr(now)
		case models.SlotPmIn:
			record.PmIn = timePtr(now)
		case models.SlotPmOut:
			record.PmOut = timePtr(now)
		}
	}

	decision := ResolveSlot(schedule, record, clock(t, "17:25"), strictPolicy())
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectAlreadyRecorded, decision.Reason)
}

func TestSessionScheduleValidate(t *testing.T) {
	valid := fullDaySchedule()
	require.NoError(t, valid.Validate())

	outOfOrder := &models.SessionSchedule{
		AmIn:  minutePtr(clock(t, "12:00")),
		AmOut: minutePtr(clock(t, "08:00")),
	}
	assert.Error(t, outOfOrder.Validate())

	empty := &models.SessionSchedule{}
	assert.Error(t, empty.Validate())

	negative := fullDaySchedule()
	negative.ToleranceMinutes = -1
	assert.Error(t, negative.Validate())
}
