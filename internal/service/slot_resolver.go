package service

import (
	"github.com/campus-attend/attendance-api/internal/models"
)

// ResolvePolicy selects between the two historical slot-resolution rules.
type ResolvePolicy struct {
	// StrictSequential blocks a slot until its chain prerequisite is recorded
	// (am-in before am-out, am-out before pm-in, pm-in before pm-out). The
	// prerequisite binds even when that slot is not configured for the day,
	// so a morning-only student can never check out of the afternoon.
	StrictSequential bool
}

// ResolveSlot decides which attendance slot a scan satisfies, or why it is
// rejected. Pure: it never touches storage and never mutates its inputs.
// `existing` may be nil when the student has no ledger row yet.
//
// Slots are evaluated in fixed order (am-in, am-out, pm-in, pm-out) and the
// first open slot whose window contains the scan wins, which keeps the
// outcome deterministic under misconfigured overlapping windows. A slot's
// window is [slotTime - tolerance, slotTime + duration], both ends inclusive.
func ResolveSlot(schedule *models.SessionSchedule, existing *models.AttendanceRecord, scanMinutes models.MinuteOfDay, policy ResolvePolicy) models.SlotDecision {
	configured := schedule.ConfiguredSlots()
	if len(configured) == 0 {
		return models.RejectScan(models.RejectSessionNotConfigured)
	}

	anyOpen := false
	for _, slot := range configured {
		if !existing.Recorded(slot) {
			anyOpen = true
			break
		}
	}
	if !anyOpen {
		return models.RejectScan(models.RejectAlreadyRecorded)
	}

	for _, slot := range configured {
		if existing.Recorded(slot) {
			continue
		}
		if policy.StrictSequential {
			if prereq, ok := slot.Prerequisite(); ok && !existing.Recorded(prereq) {
				continue
			}
		}

		slotTime := *schedule.SlotTime(slot)
		opens := slotTime - models.MinuteOfDay(schedule.ToleranceMinutes)
		closes := slotTime + models.MinuteOfDay(schedule.DurationMinutes)
		if scanMinutes >= opens && scanMinutes <= closes {
			return models.AcceptSlot(slot)
		}
	}

	return models.RejectScan(models.RejectNoMatchingWindow)
}
