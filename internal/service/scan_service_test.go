package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/scancode"
)

type scheduleRepoStub struct {
	schedule *models.SessionSchedule
	err      error
	calls    int
}

func (s *scheduleRepoStub) FindByEventAndDate(ctx context.Context, eventID string, date time.Time) (*models.SessionSchedule, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.schedule, nil
}

type studentRepoStub struct {
	student *models.Student
	err     error
}

func (s *studentRepoStub) FindByIDNumber(ctx context.Context, idNumber string) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.student, nil
}

type ledgerRepoStub struct {
	existing    *models.AttendanceRecord
	commit      models.CommitResult
	errs        []error
	recordCalls int
	syncErr     error
	synced      []models.SyncTuple
}

func (s *ledgerRepoStub) RecordSlot(ctx context.Context, sessionDayID, studentID string, scannedAt time.Time, decide func(existing *models.AttendanceRecord) models.SlotDecision) (models.SlotDecision, models.CommitResult, error) {
	call := s.recordCalls
	s.recordCalls++
	if call < len(s.errs) && s.errs[call] != nil {
		return models.SlotDecision{}, "", s.errs[call]
	}
	decision := decide(s.existing)
	if !decision.Accepted {
		return decision, "", nil
	}
	return decision, s.commit, nil
}

func (s *ledgerRepoStub) ApplySync(ctx context.Context, tuple models.SyncTuple) error {
	if s.syncErr != nil {
		return s.syncErr
	}
	s.synced = append(s.synced, tuple)
	return nil
}

func scanTestSchedule() *models.SessionSchedule {
	amIn := models.MinuteOfDay(8 * 60)
	amOut := models.MinuteOfDay(12 * 60)
	return &models.SessionSchedule{
		SessionDayID:     "day-1",
		EventID:          "event1",
		AmIn:             &amIn,
		AmOut:            &amOut,
		ToleranceMinutes: 15,
		DurationMinutes:  30,
	}
}

func scanTestService(t *testing.T, schedules *scheduleRepoStub, students *studentRepoStub, ledger *ledgerRepoStub) (*ScanService, *scancode.Codec) {
	t.Helper()
	codec := scancode.NewCodec("test-secret")
	svc := NewScanService(codec, schedules, students, ledger, nil, nil, nil,
		ResolvePolicy{StrictSequential: true}, time.UTC, time.Minute)
	return svc, codec
}

func encodeScan(t *testing.T, codec *scancode.Codec, idNumber, eventID string) string {
	t.Helper()
	code, err := codec.Encode(scancode.Payload{FullName: "Dela Cruz, Juan", StudentIDNumber: idNumber, EventID: eventID})
	require.NoError(t, err)
	return code
}

func TestScanServiceRecordScanAccepted(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", IDNumber: "2021001", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{commit: models.CommitInserted}
	svc, codec := scanTestService(t, schedules, students, ledger)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	resp, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlotAmIn, resp.Slot)
	assert.Equal(t, models.CommitInserted, resp.Commit)
	assert.Equal(t, "student-1", resp.StudentID)
	assert.Equal(t, "day-1", resp.SessionDayID)
}

func TestScanServiceRecordScanMalformedPayload(t *testing.T) {
	svc, _ := scanTestService(t, &scheduleRepoStub{}, &studentRepoStub{}, &ledgerRepoStub{})

	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{Code: "not-a-real-code"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedScanPayload.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanUnknownStudent(t *testing.T) {
	students := &studentRepoStub{err: sql.ErrNoRows}
	svc, codec := scanTestService(t, &scheduleRepoStub{}, students, &ledgerRepoStub{})

	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{Code: encodeScan(t, codec, "2021001", "event1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanInactiveStudent(t *testing.T) {
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusDisabled}}
	svc, codec := scanTestService(t, &scheduleRepoStub{}, students, &ledgerRepoStub{})

	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{Code: encodeScan(t, codec, "2021001", "event1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanNoSessionDay(t *testing.T) {
	schedules := &scheduleRepoStub{err: sql.ErrNoRows}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusActive}}
	svc, codec := scanTestService(t, schedules, students, &ledgerRepoStub{})

	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{Code: encodeScan(t, codec, "2021001", "event1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanOutsideEveryWindow(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusActive}}
	svc, codec := scanTestService(t, schedules, students, &ledgerRepoStub{})

	scannedAt := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoMatchingWindow.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanAlreadyRecorded(t *testing.T) {
	now := time.Now()
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{existing: &models.AttendanceRecord{AmIn: &now, AmOut: &now}}
	svc, codec := scanTestService(t, schedules, students, ledger)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyRecorded.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanRetriesSerializationAbort(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", IDNumber: "2021001", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{
		commit: models.CommitInserted,
		errs:   []error{&pq.Error{Code: "40001"}},
	}
	svc, codec := scanTestService(t, schedules, students, ledger)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	resp, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.recordCalls)
	assert.Equal(t, models.SlotAmIn, resp.Slot)
}

func TestScanServiceRecordScanGivesUpAfterOneRetry(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{
		errs: []error{&pq.Error{Code: "40P01"}, &pq.Error{Code: "40001"}},
	}
	svc, codec := scanTestService(t, schedules, students, ledger)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.Error(t, err)
	assert.Equal(t, 2, ledger.recordCalls)
	assert.Equal(t, appErrors.ErrLedgerConflict.Code, appErrors.FromError(err).Code)
}

func TestScanServiceRecordScanNonRetryableErrorFailsFast(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{errs: []error{errors.New("connection reset")}}
	svc, codec := scanTestService(t, schedules, students, ledger)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.Error(t, err)
	assert.Equal(t, 1, ledger.recordCalls)
}

func TestScanServiceRecordScanObservesDBQueries(t *testing.T) {
	schedules := &scheduleRepoStub{schedule: scanTestSchedule()}
	students := &studentRepoStub{student: &models.Student{ID: "student-1", IDNumber: "2021001", Status: models.StudentStatusActive}}
	ledger := &ledgerRepoStub{commit: models.CommitInserted}
	metrics := NewMetricsService()
	codec := scancode.NewCodec("test-secret")
	svc := NewScanService(codec, schedules, students, ledger, nil, metrics, nil,
		ResolvePolicy{StrictSequential: true}, time.UTC, time.Minute)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)
	_, err := svc.RecordScan(context.Background(), dto.ScanRequest{
		Code:      encodeScan(t, codec, "2021001", "event1"),
		ScannedAt: &scannedAt,
	})
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.DBQueryCount)
	assert.Equal(t, uint64(1), snapshot.ScansTotal)
	assert.Equal(t, uint64(1), snapshot.ScansAccepted)
}

func TestScanServiceSyncAttendancePartialFailure(t *testing.T) {
	ledger := &ledgerRepoStub{}
	svc, _ := scanTestService(t, &scheduleRepoStub{}, &studentRepoStub{}, ledger)

	amIn := time.Now()
	resp, err := svc.SyncAttendance(context.Background(), dto.SyncRequest{Records: []models.SyncTuple{
		{SessionDayID: "day-1", StudentID: "student-1", Times: models.SlotTimes{AmIn: &amIn}},
		{SessionDayID: "", StudentID: "student-2", Times: models.SlotTimes{AmIn: &amIn}},
		{SessionDayID: "day-1", StudentID: "student-3", Times: models.SlotTimes{}},
	}})
	require.NoError(t, err)
	require.Len(t, resp.SyncedRecords, 1)
	assert.Equal(t, dto.SyncedRecord{SessionDayID: "day-1", StudentID: "student-1"}, resp.SyncedRecords[0])
	require.Len(t, resp.FailedRecords, 2)
	assert.Equal(t, "session_day_id is required", resp.FailedRecords[0].Reason)
	assert.Equal(t, "no slot times carried", resp.FailedRecords[1].Reason)
}

func TestScanServiceSyncAttendanceEmptyBatch(t *testing.T) {
	svc, _ := scanTestService(t, &scheduleRepoStub{}, &studentRepoStub{}, &ledgerRepoStub{})

	_, err := svc.SyncAttendance(context.Background(), dto.SyncRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
