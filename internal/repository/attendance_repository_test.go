package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-attend/attendance-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_day_id", "student_id", "am_in", "am_out", "pm_in", "pm_out", "created_at", "updated_at"})
}

func TestAttendanceRepositoryGetMissingRowIsNil(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectQuery("SELECT id, session_day_id").
		WithArgs("day-1", "student-1").
		WillReturnRows(attendanceRows())

	record, err := repo.Get(context.Background(), "day-1", "student-1")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRecordSlotInsertsNewRow(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	scannedAt := time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("day-1", "student-1").
		WillReturnRows(attendanceRows())
	mock.ExpectQuery("ON CONFLICT \\(session_day_id, student_id\\)").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-1", scannedAt, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectCommit()

	decision, result, err := repo.RecordSlot(context.Background(), "day-1", "student-1", scannedAt,
		func(existing *models.AttendanceRecord) models.SlotDecision {
			assert.Nil(t, existing)
			return models.AcceptSlot(models.SlotAmIn)
		})
	require.NoError(t, err)
	require.True(t, decision.Accepted)
	assert.Equal(t, models.SlotAmIn, decision.Slot)
	assert.Equal(t, models.CommitInserted, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRecordSlotUpdatesExistingRow(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now().UTC()
	scannedAt := time.Date(2026, 2, 10, 12, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("day-1", "student-1").
		WillReturnRows(attendanceRows().
			AddRow("rec-1", "day-1", "student-1", now, nil, nil, nil, now, now))
	mock.ExpectQuery("ON CONFLICT \\(session_day_id, student_id\\)").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-1", scannedAt, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))
	mock.ExpectCommit()

	decision, result, err := repo.RecordSlot(context.Background(), "day-1", "student-1", scannedAt,
		func(existing *models.AttendanceRecord) models.SlotDecision {
			require.NotNil(t, existing)
			assert.True(t, existing.Recorded(models.SlotAmIn))
			return models.AcceptSlot(models.SlotAmOut)
		})
	require.NoError(t, err)
	require.True(t, decision.Accepted)
	assert.Equal(t, models.CommitUpdatedRow, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRecordSlotRejectionSkipsWrite(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("day-1", "student-1").
		WillReturnRows(attendanceRows())
	mock.ExpectRollback()

	decision, _, err := repo.RecordSlot(context.Background(), "day-1", "student-1", time.Now(),
		func(existing *models.AttendanceRecord) models.SlotDecision {
			return models.RejectScan(models.RejectNoMatchingWindow)
		})
	require.NoError(t, err)
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectNoMatchingWindow, decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRecordSlotLostRaceReportsAlreadyRecorded(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// The guarded upsert touches zero rows when another writer filled the
	// slot between the lock and the write.
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("day-1", "student-1").
		WillReturnRows(attendanceRows())
	mock.ExpectQuery("ON CONFLICT \\(session_day_id, student_id\\)").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}))
	mock.ExpectRollback()

	decision, _, err := repo.RecordSlot(context.Background(), "day-1", "student-1", time.Now(),
		func(existing *models.AttendanceRecord) models.SlotDecision {
			return models.AcceptSlot(models.SlotAmIn)
		})
	require.NoError(t, err)
	require.False(t, decision.Accepted)
	assert.Equal(t, models.RejectAlreadyRecorded, decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryApplySync(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	amIn := time.Date(2026, 2, 10, 7, 55, 0, 0, time.UTC)
	mock.ExpectExec("COALESCE\\(attendance_records.am_in").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-1", &amIn, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplySync(context.Background(), models.SyncTuple{
		SessionDayID: "day-1",
		StudentID:    "student-1",
		Times:        models.SlotTimes{AmIn: &amIn},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySeedCountsNewRowsOnly(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("ON CONFLICT \\(session_day_id, student_id\\) DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ON CONFLICT \\(session_day_id, student_id\\) DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "day-1", "student-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	seeded, err := repo.Seed(context.Background(), []string{"day-1"}, []string{"student-1", "student-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDaySlotCounts(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total").
		WithArgs("day-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "am_in", "am_out", "pm_in", "pm_out"}).
			AddRow(40, 38, 35, 30, 28))

	counts, total, err := repo.DaySlotCounts(context.Background(), "day-1")
	require.NoError(t, err)
	assert.Equal(t, 40, total)
	assert.Equal(t, 38, counts[models.SlotAmIn])
	assert.Equal(t, 28, counts[models.SlotPmOut])
	assert.NoError(t, mock.ExpectationsWereMet())
}
