package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/scancode"
)

type scanScheduleRepository interface {
	FindByEventAndDate(ctx context.Context, eventID string, date time.Time) (*models.SessionSchedule, error)
}

type scanStudentRepository interface {
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Student, error)
}

type scanLedgerRepository interface {
	RecordSlot(ctx context.Context, sessionDayID, studentID string, scannedAt time.Time, decide func(existing *models.AttendanceRecord) models.SlotDecision) (models.SlotDecision, models.CommitResult, error)
	ApplySync(ctx context.Context, tuple models.SyncTuple) error
}

// ScanService runs the scan pipeline: decode the QR payload, resolve the
// student and session day, pick the slot, and commit it to the ledger.
type ScanService struct {
	codec       *scancode.Codec
	schedules   scanScheduleRepository
	students    scanStudentRepository
	ledger      scanLedgerRepository
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	policy      ResolvePolicy
	location    *time.Location
	scheduleTTL time.Duration
}

// NewScanService constructs the scan service. location fixes the campus
// timezone; scans are bucketed into calendar days and minutes of day there.
func NewScanService(codec *scancode.Codec, schedules scanScheduleRepository, students scanStudentRepository, ledger scanLedgerRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, policy ResolvePolicy, location *time.Location, scheduleTTL time.Duration) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if scheduleTTL <= 0 {
		scheduleTTL = 5 * time.Minute
	}
	return &ScanService{
		codec:       codec,
		schedules:   schedules,
		students:    students,
		ledger:      ledger,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		policy:      policy,
		location:    location,
		scheduleTTL: scheduleTTL,
	}
}

// RecordScan processes one scanned QR code. Rejections come back as typed
// errors carrying the resolver's reason code; infrastructure failures after
// one retry surface as LEDGER_CONFLICT.
func (s *ScanService) RecordScan(ctx context.Context, req dto.ScanRequest) (*dto.ScanResponse, error) {
	if req.Code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}

	payload, err := s.codec.Decode(req.Code)
	if err != nil {
		s.logger.Debug("scan payload rejected", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedScanPayload.Code, appErrors.ErrMalformedScanPayload.Status, appErrors.ErrMalformedScanPayload.Message)
	}

	student, err := s.students.FindByIDNumber(ctx, payload.StudentIDNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not active")
	}

	scannedAt := time.Now()
	if req.ScannedAt != nil {
		scannedAt = *req.ScannedAt
	}
	local := scannedAt.In(s.location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	schedule, err := s.scheduleFor(ctx, payload.EventID, day)
	if err != nil {
		return nil, err
	}

	scanMinutes := models.MinuteOf(local)
	decision, commit, err := s.recordWithRetry(ctx, schedule, student.ID, scannedAt.UTC(), scanMinutes)
	if err != nil {
		s.logger.Error("ledger write failed",
			zap.String("session_day_id", schedule.SessionDayID),
			zap.String("student_id", student.ID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrLedgerConflict.Code, appErrors.ErrLedgerConflict.Status, appErrors.ErrLedgerConflict.Message)
	}

	s.metrics.ObserveScanDecision(decision)
	if !decision.Accepted {
		return nil, rejectError(decision.Reason)
	}

	s.logger.Info("scan accepted",
		zap.String("student_id", student.ID),
		zap.String("session_day_id", schedule.SessionDayID),
		zap.String("slot", string(decision.Slot)),
		zap.String("commit", string(commit)))

	return &dto.ScanResponse{
		StudentID:    student.ID,
		IDNumber:     student.IDNumber,
		FullName:     payload.FullName,
		EventID:      payload.EventID,
		SessionDayID: schedule.SessionDayID,
		Slot:         decision.Slot,
		Commit:       commit,
		RecordedAt:   scannedAt.UTC(),
	}, nil
}

// SyncAttendance merges offline-captured tuples into the ledger. Each tuple
// is applied independently; a bad tuple lands in FailedRecords and the rest
// of the batch proceeds.
func (s *ScanService) SyncAttendance(ctx context.Context, req dto.SyncRequest) (*dto.SyncResponse, error) {
	if len(req.Records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "records must not be empty")
	}

	resp := &dto.SyncResponse{
		SyncedRecords: make([]dto.SyncedRecord, 0, len(req.Records)),
		FailedRecords: make([]dto.FailedSyncRecord, 0),
	}
	for _, tuple := range req.Records {
		if reason := validateSyncTuple(tuple); reason != "" {
			resp.FailedRecords = append(resp.FailedRecords, dto.FailedSyncRecord{Record: tuple, Reason: reason})
			continue
		}
		if err := s.ledger.ApplySync(ctx, tuple); err != nil {
			s.logger.Warn("sync tuple failed",
				zap.String("session_day_id", tuple.SessionDayID),
				zap.String("student_id", tuple.StudentID),
				zap.Error(err))
			resp.FailedRecords = append(resp.FailedRecords, dto.FailedSyncRecord{Record: tuple, Reason: "write failed"})
			continue
		}
		resp.SyncedRecords = append(resp.SyncedRecords, dto.SyncedRecord{SessionDayID: tuple.SessionDayID, StudentID: tuple.StudentID})
	}
	return resp, nil
}

func (s *ScanService) scheduleFor(ctx context.Context, eventID string, day time.Time) (*models.SessionSchedule, error) {
	key := fmt.Sprintf("schedule:event:%s:date:%s", eventID, day.Format("2006-01-02"))

	var cached models.SessionSchedule
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	start := time.Now()
	schedule, err := s.schedules.FindByEventAndDate(ctx, eventID, day)
	s.metrics.ObserveDBQuery("session_day_lookup", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSessionNotConfigured
		}
		return nil, fmt.Errorf("find session day: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, schedule, s.scheduleTTL)
	}
	return schedule, nil
}

func (s *ScanService) recordWithRetry(ctx context.Context, schedule *models.SessionSchedule, studentID string, scannedAt time.Time, scanMinutes models.MinuteOfDay) (models.SlotDecision, models.CommitResult, error) {
	decide := func(existing *models.AttendanceRecord) models.SlotDecision {
		return ResolveSlot(schedule, existing, scanMinutes, s.policy)
	}

	start := time.Now()
	decision, commit, err := s.ledger.RecordSlot(ctx, schedule.SessionDayID, studentID, scannedAt, decide)
	if err != nil && retryableTxError(err) {
		s.logger.Warn("ledger write aborted, retrying once",
			zap.String("session_day_id", schedule.SessionDayID),
			zap.String("student_id", studentID),
			zap.Error(err))
		decision, commit, err = s.ledger.RecordSlot(ctx, schedule.SessionDayID, studentID, scannedAt, decide)
	}
	s.metrics.ObserveDBQuery("attendance_record_slot", time.Since(start))
	return decision, commit, err
}

func validateSyncTuple(tuple models.SyncTuple) string {
	if tuple.SessionDayID == "" {
		return "session_day_id is required"
	}
	if tuple.StudentID == "" {
		return "student_id is required"
	}
	if tuple.Times.Empty() {
		return "no slot times carried"
	}
	return ""
}

func rejectError(reason models.RejectReason) *appErrors.Error {
	switch reason {
	case models.RejectSessionNotConfigured:
		return appErrors.ErrSessionNotConfigured
	case models.RejectAlreadyRecorded:
		return appErrors.ErrAlreadyRecorded
	default:
		return appErrors.ErrNoMatchingWindow
	}
}

// retryableTxError reports Postgres serialization failures and deadlocks,
// which are safe to retry once on a fresh transaction.
func retryableTxError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
