package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-attend/attendance-api/internal/models"
)

// ScheduleRepository handles persistence for session-day schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, event_id, date, am_in, am_out, pm_in, pm_out, tolerance_minutes, duration_minutes, created_at`

// FindBySessionDay loads one session day's schedule by identifier.
func (r *ScheduleRepository) FindBySessionDay(ctx context.Context, sessionDayID string) (*models.SessionSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_days WHERE id = $1`, scheduleColumns)
	var schedule models.SessionSchedule
	if err := r.db.GetContext(ctx, &schedule, query, sessionDayID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindByEventAndDate resolves the session day an event holds on a calendar
// date. Scanners carry the event id, not the session-day id, so the scan
// path goes through this lookup.
func (r *ScheduleRepository) FindByEventAndDate(ctx context.Context, eventID string, date time.Time) (*models.SessionSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_days WHERE event_id = $1 AND date = $2`, scheduleColumns)
	var schedule models.SessionSchedule
	if err := r.db.GetContext(ctx, &schedule, query, eventID, date); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByEvent returns every session day of an event, earliest first.
func (r *ScheduleRepository) ListByEvent(ctx context.Context, eventID string) ([]models.SessionSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_days WHERE event_id = $1 ORDER BY date ASC`, scheduleColumns)
	var schedules []models.SessionSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, eventID); err != nil {
		return nil, fmt.Errorf("list session days: %w", err)
	}
	return schedules, nil
}

// UpdateSlots replaces a session day's slot times and window parameters.
func (r *ScheduleRepository) UpdateSlots(ctx context.Context, schedule *models.SessionSchedule) error {
	const query = `UPDATE session_days
SET am_in = :am_in, am_out = :am_out, pm_in = :pm_in, pm_out = :pm_out,
	tolerance_minutes = :tolerance_minutes, duration_minutes = :duration_minutes
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, schedule)
	if err != nil {
		return fmt.Errorf("update session day slots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session day rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
