package models

import "time"

// Slot identifies one of the four attendance checkpoints of a session day.
type Slot string

const (
	SlotAmIn  Slot = "AM_IN"
	SlotAmOut Slot = "AM_OUT"
	SlotPmIn  Slot = "PM_IN"
	SlotPmOut Slot = "PM_OUT"
)

// SlotOrder is the fixed evaluation order for scans. A scan matching two
// overlapping windows always resolves to the earlier slot.
var SlotOrder = [4]Slot{SlotAmIn, SlotAmOut, SlotPmIn, SlotPmOut}

// Valid returns true when the slot is a supported value.
func (s Slot) Valid() bool {
	switch s {
	case SlotAmIn, SlotAmOut, SlotPmIn, SlotPmOut:
		return true
	default:
		return false
	}
}

// Prerequisite returns the slot that must be recorded before this one under
// the sequential policy. AmIn has none.
func (s Slot) Prerequisite() (Slot, bool) {
	switch s {
	case SlotAmOut:
		return SlotAmIn, true
	case SlotPmIn:
		return SlotAmOut, true
	case SlotPmOut:
		return SlotPmIn, true
	default:
		return "", false
	}
}

// AttendanceRecord is one student's ledger row for a session day. Slot fields
// hold the wall-clock instant of the accepted scan; nil means not recorded.
// The resolver never clears a recorded slot.
type AttendanceRecord struct {
	ID           string     `db:"id" json:"id"`
	SessionDayID string     `db:"session_day_id" json:"session_day_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	AmIn         *time.Time `db:"am_in" json:"am_in,omitempty"`
	AmOut        *time.Time `db:"am_out" json:"am_out,omitempty"`
	PmIn         *time.Time `db:"pm_in" json:"pm_in,omitempty"`
	PmOut        *time.Time `db:"pm_out" json:"pm_out,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// SlotValue returns the recorded timestamp for the slot, or nil.
func (r *AttendanceRecord) SlotValue(slot Slot) *time.Time {
	if r == nil {
		return nil
	}
	switch slot {
	case SlotAmIn:
		return r.AmIn
	case SlotAmOut:
		return r.AmOut
	case SlotPmIn:
		return r.PmIn
	case SlotPmOut:
		return r.PmOut
	default:
		return nil
	}
}

// Recorded reports whether the slot already holds a value. Safe on nil
// records, which represent "no row yet".
func (r *AttendanceRecord) Recorded(slot Slot) bool {
	return r.SlotValue(slot) != nil
}

// RejectReason enumerates why a scan was not attributed to any slot.
type RejectReason string

const (
	RejectNoMatchingWindow     RejectReason = "NO_MATCHING_WINDOW"
	RejectAlreadyRecorded      RejectReason = "ALREADY_RECORDED"
	RejectSessionNotConfigured RejectReason = "SESSION_NOT_CONFIGURED"
)

// SlotDecision is the resolver's verdict for a single scan.
type SlotDecision struct {
	Accepted bool         `json:"accepted"`
	Slot     Slot         `json:"slot,omitempty"`
	Reason   RejectReason `json:"reason,omitempty"`
}

// AcceptSlot builds an accepting decision.
func AcceptSlot(slot Slot) SlotDecision {
	return SlotDecision{Accepted: true, Slot: slot}
}

// RejectScan builds a rejecting decision.
func RejectScan(reason RejectReason) SlotDecision {
	return SlotDecision{Reason: reason}
}

// CommitResult reports how the ledger satisfied an idempotent slot write.
type CommitResult string

const (
	CommitInserted   CommitResult = "INSERTED"
	CommitUpdatedRow CommitResult = "UPDATED_EXISTING_ROW"
)

// SlotTimes carries the optional per-slot timestamps of one sync tuple.
type SlotTimes struct {
	AmIn  *time.Time `json:"am_in,omitempty"`
	AmOut *time.Time `json:"am_out,omitempty"`
	PmIn  *time.Time `json:"pm_in,omitempty"`
	PmOut *time.Time `json:"pm_out,omitempty"`
}

// Empty reports whether no slot is carried.
func (s SlotTimes) Empty() bool {
	return s.AmIn == nil && s.AmOut == nil && s.PmIn == nil && s.PmOut == nil
}

// SyncTuple is one offline-captured record uploaded by a scanner device.
type SyncTuple struct {
	SessionDayID string    `json:"session_day_id"`
	StudentID    string    `json:"student_id"`
	Times        SlotTimes `json:"times"`
}

// AttendanceSheetRow is one line of a session-day attendance summary.
type AttendanceSheetRow struct {
	StudentID   string     `db:"student_id" json:"student_id"`
	IDNumber    string     `db:"id_number" json:"id_number"`
	StudentName string     `db:"student_name" json:"student_name"`
	BlockName   *string    `db:"block_name" json:"block_name,omitempty"`
	AmIn        *time.Time `db:"am_in" json:"am_in,omitempty"`
	AmOut       *time.Time `db:"am_out" json:"am_out,omitempty"`
	PmIn        *time.Time `db:"pm_in" json:"pm_in,omitempty"`
	PmOut       *time.Time `db:"pm_out" json:"pm_out,omitempty"`
}
