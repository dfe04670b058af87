package dto

import (
	"time"

	"github.com/campus-attend/attendance-api/internal/models"
)

// ScanRequest carries one QR scan from a scanner device. ScannedAt is
// optional; absent means "now" on the server clock.
type ScanRequest struct {
	Code      string     `json:"code" validate:"required"`
	ScannedAt *time.Time `json:"scanned_at"`
}

// ScanResponse reports an accepted scan.
type ScanResponse struct {
	StudentID    string              `json:"student_id"`
	IDNumber     string              `json:"id_number"`
	FullName     string              `json:"full_name"`
	EventID      string              `json:"event_id"`
	SessionDayID string              `json:"session_day_id"`
	Slot         models.Slot         `json:"slot"`
	Commit       models.CommitResult `json:"commit"`
	RecordedAt   time.Time           `json:"recorded_at"`
}

// SyncRequest uploads records captured while a scanner was offline.
type SyncRequest struct {
	Records []models.SyncTuple `json:"records" validate:"required,min=1,dive"`
}

// FailedSyncRecord pairs a rejected tuple with the failure reason.
type FailedSyncRecord struct {
	Record models.SyncTuple `json:"record"`
	Reason string           `json:"reason"`
}

// SyncedRecord identifies one ledger row a sync upload merged into.
type SyncedRecord struct {
	SessionDayID string `json:"session_day_id"`
	StudentID    string `json:"student_id"`
}

// SyncResponse summarises a sync upload. Failures never abort the batch.
type SyncResponse struct {
	SyncedRecords []SyncedRecord     `json:"synced_records"`
	FailedRecords []FailedSyncRecord `json:"failed_records"`
}
