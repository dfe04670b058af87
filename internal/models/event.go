package models

import "time"

// EventStatus tracks an event through its lifecycle.
type EventStatus string

const (
	EventStatusPending  EventStatus = "PENDING"
	EventStatusApproved EventStatus = "APPROVED"
	EventStatusArchived EventStatus = "ARCHIVED"
)

// Valid returns true when the status is a supported value.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusArchived:
		return true
	default:
		return false
	}
}

// Event is a campus event requiring attendance, scoped to an academic term
// and a set of blocks, with one SessionSchedule per date.
type Event struct {
	ID            string      `db:"id" json:"id"`
	TermID        string      `db:"term_id" json:"term_id"`
	Name          string      `db:"name" json:"name"`
	Venue         string      `db:"venue" json:"venue"`
	Status        EventStatus `db:"status" json:"status"`
	ScanPersonnel *string     `db:"scan_personnel" json:"scan_personnel,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	ApprovedAt    *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	ArchivedAt    *time.Time  `db:"archived_at" json:"archived_at,omitempty"`
}

// ArchivedEvent pairs an archived event with its final session date.
type ArchivedEvent struct {
	EventID  string    `db:"event_id" json:"event_id"`
	Name     string    `db:"name" json:"name"`
	LastDate time.Time `db:"last_date" json:"last_date"`
}
