package dto

import (
	"time"

	"github.com/campus-attend/attendance-api/internal/models"
)

// EventDateRequest configures one session day of a new event. Clock fields
// use "HH:MM"; an absent field means the slot is not held that day.
type EventDateRequest struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	AmIn  *string `json:"am_in"`
	AmOut *string `json:"am_out"`
	PmIn  *string `json:"pm_in"`
	PmOut *string `json:"pm_out"`
}

// CreateEventRequest creates a pending event with its block attachments and
// per-date schedules.
type CreateEventRequest struct {
	Name             string             `json:"name" validate:"required,min=3,max=150"`
	Venue            string             `json:"venue" validate:"required,max=150"`
	ScanPersonnel    *string            `json:"scan_personnel"`
	BlockIDs         []string           `json:"block_ids" validate:"required,min=1,dive,required"`
	Dates            []EventDateRequest `json:"dates" validate:"required,min=1,dive"`
	ToleranceMinutes *int               `json:"tolerance_minutes" validate:"omitempty,min=0,max=240"`
	DurationMinutes  *int               `json:"duration_minutes" validate:"omitempty,min=0,max=720"`
}

// EventResponse returns an event with its session days.
type EventResponse struct {
	Event models.Event             `json:"event"`
	Days  []models.SessionSchedule `json:"days"`
}

// ApproveEventResponse reports an approval and how many ledger rows were
// pre-seeded for it.
type ApproveEventResponse struct {
	Event      models.Event `json:"event"`
	SeededRows int          `json:"seeded_rows"`
}

// UpdateScheduleRequest replaces one session day's slot configuration.
type UpdateScheduleRequest struct {
	AmIn             *string `json:"am_in"`
	AmOut            *string `json:"am_out"`
	PmIn             *string `json:"pm_in"`
	PmOut            *string `json:"pm_out"`
	ToleranceMinutes *int    `json:"tolerance_minutes" validate:"omitempty,min=0,max=240"`
	DurationMinutes  *int    `json:"duration_minutes" validate:"omitempty,min=0,max=720"`
}

// ArchiveSweepResponse reports one archive pass.
type ArchiveSweepResponse struct {
	ArchivedEvents []models.ArchivedEvent `json:"archived_events"`
	SweptAt        time.Time              `json:"swept_at"`
}
