package dto

import (
	"time"

	"github.com/campus-attend/attendance-api/internal/models"
)

// DaySummaryResponse is the per-slot headcount and roster sheet for one
// session day.
type DaySummaryResponse struct {
	SessionDayID string                      `json:"session_day_id"`
	EventID      string                      `json:"event_id"`
	Date         time.Time                   `json:"date"`
	TotalSeeded  int                         `json:"total_seeded"`
	SlotCounts   map[models.Slot]int         `json:"slot_counts"`
	Rows         []models.AttendanceSheetRow `json:"rows"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}
