package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
)

type summaryLedgerStub struct {
	rows   []models.AttendanceSheetRow
	counts map[models.Slot]int
	total  int
}

func (s *summaryLedgerStub) DaySheet(ctx context.Context, sessionDayID string) ([]models.AttendanceSheetRow, error) {
	return s.rows, nil
}

func (s *summaryLedgerStub) DaySlotCounts(ctx context.Context, sessionDayID string) (map[models.Slot]int, int, error) {
	return s.counts, s.total, nil
}

type summaryScheduleStub struct {
	schedule *models.SessionSchedule
}

func (s *summaryScheduleStub) FindBySessionDay(ctx context.Context, sessionDayID string) (*models.SessionSchedule, error) {
	if s.schedule == nil {
		return nil, sql.ErrNoRows
	}
	return s.schedule, nil
}

type summaryEventStub struct {
	event *models.Event
}

func (s *summaryEventStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if s.event == nil {
		return nil, sql.ErrNoRows
	}
	return s.event, nil
}

func summaryFixture() (*summaryLedgerStub, *summaryScheduleStub, *summaryEventStub) {
	amIn := time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC)
	ledger := &summaryLedgerStub{
		rows: []models.AttendanceSheetRow{
			{StudentID: "student-1", IDNumber: "2021001", StudentName: "Dela Cruz, Juan", AmIn: &amIn},
			{StudentID: "student-2", IDNumber: "2021002", StudentName: "Reyes, Maria"},
		},
		counts: map[models.Slot]int{models.SlotAmIn: 1},
		total:  2,
	}
	schedules := &summaryScheduleStub{schedule: &models.SessionSchedule{
		SessionDayID: "day-1",
		EventID:      "event-1",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}}
	events := &summaryEventStub{event: &models.Event{ID: "event-1", Name: "Intramurals"}}
	return ledger, schedules, events
}

func TestSummaryServiceDaySummary(t *testing.T) {
	ledger, schedules, events := summaryFixture()
	svc := NewSummaryService(ledger, schedules, events, time.UTC, nil)

	resp, err := svc.DaySummary(context.Background(), "day-1")
	require.NoError(t, err)
	assert.Equal(t, "event-1", resp.EventID)
	assert.Equal(t, 2, resp.TotalSeeded)
	assert.Equal(t, 1, resp.SlotCounts[models.SlotAmIn])
	require.Len(t, resp.Rows, 2)
}

func TestSummaryServiceDaySummaryMissingDay(t *testing.T) {
	svc := NewSummaryService(&summaryLedgerStub{}, &summaryScheduleStub{}, &summaryEventStub{}, time.UTC, nil)

	_, err := svc.DaySummary(context.Background(), "day-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSummaryServiceExportCSV(t *testing.T) {
	ledger, schedules, events := summaryFixture()
	svc := NewSummaryService(ledger, schedules, events, time.UTC, nil)

	file, err := svc.ExportDaySheet(context.Background(), "day-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "attendance_event-1_2026-03-02.csv", file.FileName)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Content), "2021001")
	assert.Contains(t, string(file.Content), "08:05")
	assert.Contains(t, string(file.Content), "Reyes, Maria")
}

func TestSummaryServiceRendersCampusLocalTimes(t *testing.T) {
	// An 08:05 scan in UTC+8 is stored as 00:05 UTC; sheets must show the
	// campus wall-clock time, not the stored instant.
	campus := time.FixedZone("UTC+8", 8*3600)
	amIn := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	ledger := &summaryLedgerStub{
		rows:  []models.AttendanceSheetRow{{StudentID: "student-1", IDNumber: "2021001", StudentName: "Dela Cruz, Juan", AmIn: &amIn}},
		total: 1,
	}
	schedules := &summaryScheduleStub{schedule: &models.SessionSchedule{
		SessionDayID: "day-1",
		EventID:      "event-1",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}}
	svc := NewSummaryService(ledger, schedules, &summaryEventStub{}, campus, nil)

	summary, err := svc.DaySummary(context.Background(), "day-1")
	require.NoError(t, err)
	require.NotNil(t, summary.Rows[0].AmIn)
	assert.Equal(t, "08:05", summary.Rows[0].AmIn.Format("15:04"))

	file, err := svc.ExportDaySheet(context.Background(), "day-1", "csv")
	require.NoError(t, err)
	assert.Contains(t, string(file.Content), "08:05")
	assert.NotContains(t, string(file.Content), "00:05")
}

func TestSummaryServiceExportPDF(t *testing.T) {
	ledger, schedules, events := summaryFixture()
	svc := NewSummaryService(ledger, schedules, events, time.UTC, nil)

	file, err := svc.ExportDaySheet(context.Background(), "day-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestSummaryServiceExportUnsupportedFormat(t *testing.T) {
	ledger, schedules, events := summaryFixture()
	svc := NewSummaryService(ledger, schedules, events, time.UTC, nil)

	_, err := svc.ExportDaySheet(context.Background(), "day-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
