package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/export"
)

type summaryLedgerRepository interface {
	DaySheet(ctx context.Context, sessionDayID string) ([]models.AttendanceSheetRow, error)
	DaySlotCounts(ctx context.Context, sessionDayID string) (map[models.Slot]int, int, error)
}

type summaryScheduleRepository interface {
	FindBySessionDay(ctx context.Context, sessionDayID string) (*models.SessionSchedule, error)
}

type summaryEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// SummaryService builds per-day attendance summaries and renders them as
// downloadable sheets. Slot timestamps are stored in UTC; summaries convert
// them to the campus timezone before they reach an administrator.
type SummaryService struct {
	ledger    summaryLedgerRepository
	schedules summaryScheduleRepository
	events    summaryEventRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	location  *time.Location
	logger    *zap.Logger
}

// NewSummaryService constructs the summary service.
func NewSummaryService(ledger summaryLedgerRepository, schedules summaryScheduleRepository, events summaryEventRepository, location *time.Location, logger *zap.Logger) *SummaryService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		ledger:    ledger,
		schedules: schedules,
		events:    events,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		location:  location,
		logger:    logger,
	}
}

// DaySummary returns slot headcounts and the full roster sheet for one
// session day.
func (s *SummaryService) DaySummary(ctx context.Context, sessionDayID string) (*dto.DaySummaryResponse, error) {
	schedule, err := s.schedules.FindBySessionDay(ctx, sessionDayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session day not found")
		}
		return nil, fmt.Errorf("find session day: %w", err)
	}

	counts, total, err := s.ledger.DaySlotCounts(ctx, sessionDayID)
	if err != nil {
		return nil, fmt.Errorf("day slot counts: %w", err)
	}
	rows, err := s.ledger.DaySheet(ctx, sessionDayID)
	if err != nil {
		return nil, fmt.Errorf("day sheet: %w", err)
	}
	for i := range rows {
		localizeSheetRow(&rows[i], s.location)
	}

	return &dto.DaySummaryResponse{
		SessionDayID: sessionDayID,
		EventID:      schedule.EventID,
		Date:         schedule.Date,
		TotalSeeded:  total,
		SlotCounts:   counts,
		Rows:         rows,
	}, nil
}

// ExportDaySheet renders the roster sheet as a CSV or PDF download.
// Supported formats are "csv" and "pdf".
func (s *SummaryService) ExportDaySheet(ctx context.Context, sessionDayID, format string) (*dto.ExportFile, error) {
	summary, err := s.DaySummary(ctx, sessionDayID)
	if err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, summary.EventID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find event: %w", err)
	}
	title := "Attendance Sheet"
	if event != nil {
		title = fmt.Sprintf("%s - %s", event.Name, summary.Date.Format("Jan 2, 2006"))
	}

	dataset := sheetDataset(summary.Rows)
	base := fmt.Sprintf("attendance_%s_%s", summary.EventID, summary.Date.Format("2006-01-02"))

	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
		return &dto.ExportFile{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &dto.ExportFile{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func sheetDataset(rows []models.AttendanceSheetRow) export.Dataset {
	headers := []string{"ID Number", "Name", "Block", "AM In", "AM Out", "PM In", "PM Out"}
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		block := ""
		if row.BlockName != nil {
			block = *row.BlockName
		}
		data = append(data, map[string]string{
			"ID Number": row.IDNumber,
			"Name":      row.StudentName,
			"Block":     block,
			"AM In":     formatSlotTime(row.AmIn),
			"AM Out":    formatSlotTime(row.AmOut),
			"PM In":     formatSlotTime(row.PmIn),
			"PM Out":    formatSlotTime(row.PmOut),
		})
	}
	return export.Dataset{Headers: headers, Rows: data}
}

func formatSlotTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}

func localizeSheetRow(row *models.AttendanceSheetRow, loc *time.Location) {
	for _, t := range []**time.Time{&row.AmIn, &row.AmOut, &row.PmIn, &row.PmOut} {
		if *t != nil {
			local := (*t).In(loc)
			*t = &local
		}
	}
}
