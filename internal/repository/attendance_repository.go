package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-attend/attendance-api/internal/models"
)

// slotColumn maps a slot onto its ledger column. Queries interpolate the
// column through this map only, never from request input.
var slotColumn = map[models.Slot]string{
	models.SlotAmIn:  "am_in",
	models.SlotAmOut: "am_out",
	models.SlotPmIn:  "pm_in",
	models.SlotPmOut: "pm_out",
}

// AttendanceRepository owns the attendance ledger: one row per
// (session day, student), slot columns written at most once.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, session_day_id, student_id, am_in, am_out, pm_in, pm_out, created_at, updated_at`

// Get loads one ledger row, or nil when the student has none for the day.
func (r *AttendanceRepository) Get(ctx context.Context, sessionDayID, studentID string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE session_day_id = $1 AND student_id = $2`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, sessionDayID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return &record, nil
}

// RecordSlot runs one scan's read-decide-write cycle in a single
// transaction. The existing row (nil when absent) is locked and handed to
// decide; an accepting decision is then committed through a conditional
// upsert that writes the slot column only while it is still NULL, so two
// racing scans can never overwrite each other. When the guarded write
// touches zero rows the slot was taken by a concurrent writer and the scan
// reports ALREADY_RECORDED.
//
// Serialization and deadlock aborts surface to the caller unwrapped enough
// for errors.As against *pq.Error; retry policy lives with the caller.
func (r *AttendanceRepository) RecordSlot(ctx context.Context, sessionDayID, studentID string, scannedAt time.Time, decide func(existing *models.AttendanceRecord) models.SlotDecision) (models.SlotDecision, models.CommitResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.SlotDecision{}, "", fmt.Errorf("begin record slot: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE session_day_id = $1 AND student_id = $2 FOR UPDATE`, attendanceColumns)
	var existing *models.AttendanceRecord
	var row models.AttendanceRecord
	if err := tx.GetContext(ctx, &row, lockQuery, sessionDayID, studentID); err != nil {
		if err != sql.ErrNoRows {
			return models.SlotDecision{}, "", fmt.Errorf("lock attendance record: %w", err)
		}
	} else {
		existing = &row
	}

	decision := decide(existing)
	if !decision.Accepted {
		return decision, "", nil
	}

	column, ok := slotColumn[decision.Slot]
	if !ok {
		return models.SlotDecision{}, "", fmt.Errorf("record slot: unknown slot %q", decision.Slot)
	}

	upsert := fmt.Sprintf(`INSERT INTO attendance_records (id, session_day_id, student_id, %[1]s, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (session_day_id, student_id)
DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = EXCLUDED.updated_at
WHERE attendance_records.%[1]s IS NULL
RETURNING (xmax = 0) AS inserted`, column)

	now := time.Now().UTC()
	var inserted bool
	if err := tx.GetContext(ctx, &inserted, upsert, uuid.NewString(), sessionDayID, studentID, scannedAt, now); err != nil {
		if err == sql.ErrNoRows {
			return models.RejectScan(models.RejectAlreadyRecorded), "", nil
		}
		return models.SlotDecision{}, "", fmt.Errorf("commit slot %s: %w", decision.Slot, err)
	}

	if err := tx.Commit(); err != nil {
		return models.SlotDecision{}, "", fmt.Errorf("commit record slot: %w", err)
	}
	committed = true

	result := models.CommitUpdatedRow
	if inserted {
		result = models.CommitInserted
	}
	return decision, result, nil
}

// ApplySync merges one offline tuple into the ledger. Every slot column is
// guarded by COALESCE, so a slot already recorded on the server keeps its
// value and the tuple's entry for it is silently dropped. The statement
// succeeds whether or not the row already exists.
func (r *AttendanceRepository) ApplySync(ctx context.Context, tuple models.SyncTuple) error {
	const query = `INSERT INTO attendance_records (id, session_day_id, student_id, am_in, am_out, pm_in, pm_out, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (session_day_id, student_id)
DO UPDATE SET
	am_in = COALESCE(attendance_records.am_in, EXCLUDED.am_in),
	am_out = COALESCE(attendance_records.am_out, EXCLUDED.am_out),
	pm_in = COALESCE(attendance_records.pm_in, EXCLUDED.pm_in),
	pm_out = COALESCE(attendance_records.pm_out, EXCLUDED.pm_out),
	updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), tuple.SessionDayID, tuple.StudentID,
		tuple.Times.AmIn, tuple.Times.AmOut, tuple.Times.PmIn, tuple.Times.PmOut, now); err != nil {
		return fmt.Errorf("apply sync tuple: %w", err)
	}
	return nil
}

// Seed pre-creates empty ledger rows for every (session day, student) pair.
// Existing rows are left untouched.
func (r *AttendanceRepository) Seed(ctx context.Context, sessionDayIDs, studentIDs []string) (int, error) {
	if len(sessionDayIDs) == 0 || len(studentIDs) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance_records (id, session_day_id, student_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (session_day_id, student_id) DO NOTHING`
	now := time.Now().UTC()
	seeded := 0
	for _, dayID := range sessionDayIDs {
		for _, studentID := range studentIDs {
			res, err := tx.ExecContext(ctx, query, uuid.NewString(), dayID, studentID, now)
			if err != nil {
				return 0, fmt.Errorf("seed attendance row: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("seed attendance rows affected: %w", err)
			}
			seeded += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed attendance: %w", err)
	}
	committed = true
	return seeded, nil
}

// DaySheet returns the per-student attendance sheet for one session day,
// ordered by student name.
func (r *AttendanceRepository) DaySheet(ctx context.Context, sessionDayID string) ([]models.AttendanceSheetRow, error) {
	const query = `SELECT ar.student_id, s.id_number,
	TRIM(CONCAT(s.last_name, ', ', s.first_name, ' ', COALESCE(s.suffix, ''))) AS student_name,
	b.name AS block_name,
	ar.am_in, ar.am_out, ar.pm_in, ar.pm_out
FROM attendance_records ar
JOIN students s ON s.id = ar.student_id
LEFT JOIN blocks b ON b.id = s.block_id
WHERE ar.session_day_id = $1
ORDER BY student_name ASC`
	var rows []models.AttendanceSheetRow
	if err := r.db.SelectContext(ctx, &rows, query, sessionDayID); err != nil {
		return nil, fmt.Errorf("day sheet: %w", err)
	}
	return rows, nil
}

// DaySlotCounts aggregates how many records hold each slot for a session
// day, plus the total seeded rows.
func (r *AttendanceRepository) DaySlotCounts(ctx context.Context, sessionDayID string) (map[models.Slot]int, int, error) {
	const query = `SELECT COUNT(*) AS total,
	COUNT(am_in) AS am_in, COUNT(am_out) AS am_out,
	COUNT(pm_in) AS pm_in, COUNT(pm_out) AS pm_out
FROM attendance_records WHERE session_day_id = $1`
	var row struct {
		Total int `db:"total"`
		AmIn  int `db:"am_in"`
		AmOut int `db:"am_out"`
		PmIn  int `db:"pm_in"`
		PmOut int `db:"pm_out"`
	}
	if err := r.db.GetContext(ctx, &row, query, sessionDayID); err != nil {
		return nil, 0, fmt.Errorf("day slot counts: %w", err)
	}
	counts := map[models.Slot]int{
		models.SlotAmIn:  row.AmIn,
		models.SlotAmOut: row.AmOut,
		models.SlotPmIn:  row.PmIn,
		models.SlotPmOut: row.PmOut,
	}
	return counts, row.Total, nil
}
