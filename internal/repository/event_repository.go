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

// EventRepository handles persistence for events, their block attachments
// and their session days.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, term_id, name, venue, status, scan_personnel, created_at, approved_at, archived_at`

// Create inserts an event together with its block attachments and one
// session day per date, all in a single transaction.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, blockIDs []string, days []models.SessionSchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = now
	if event.Status == "" {
		event.Status = models.EventStatusPending
	}

	const insertEvent = `INSERT INTO events (id, term_id, name, venue, status, scan_personnel, created_at)
VALUES (:id, :term_id, :name, :venue, :status, :scan_personnel, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertEvent, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	const insertBlock = `INSERT INTO event_blocks (event_id, block_id) VALUES ($1, $2)`
	for _, blockID := range blockIDs {
		if _, err := tx.ExecContext(ctx, insertBlock, event.ID, blockID); err != nil {
			return fmt.Errorf("attach block %s: %w", blockID, err)
		}
	}

	const insertDay = `INSERT INTO session_days (id, event_id, date, am_in, am_out, pm_in, pm_out, tolerance_minutes, duration_minutes, created_at)
VALUES (:id, :event_id, :date, :am_in, :am_out, :pm_in, :pm_out, :tolerance_minutes, :duration_minutes, :created_at)`
	for i := range days {
		day := &days[i]
		if day.SessionDayID == "" {
			day.SessionDayID = uuid.NewString()
		}
		day.EventID = event.ID
		day.CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertDay, day); err != nil {
			return fmt.Errorf("insert session day %s: %w", day.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	committed = true
	return nil
}

// FindByID loads an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// BlockIDs returns the blocks attached to an event.
func (r *EventRepository) BlockIDs(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT block_id FROM event_blocks WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("event block ids: %w", err)
	}
	return ids, nil
}

// Approve flips a pending event to approved. Returns sql.ErrNoRows when
// the event is missing or not pending.
func (r *EventRepository) Approve(ctx context.Context, id string, approvedAt time.Time) error {
	const query = `UPDATE events SET status = $1, approved_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, models.EventStatusApproved, approvedAt, id, models.EventStatusPending)
	if err != nil {
		return fmt.Errorf("approve event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve event rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchivePast archives every approved event whose last session day falls
// before the cutoff date, and reports which events were touched.
func (r *EventRepository) ArchivePast(ctx context.Context, cutoff time.Time) ([]models.ArchivedEvent, error) {
	const query = `UPDATE events e
SET status = $1, archived_at = $2
FROM (
	SELECT sd.event_id, MAX(sd.date) AS last_date
	FROM session_days sd
	GROUP BY sd.event_id
) latest
WHERE latest.event_id = e.id
  AND e.status = $3
  AND latest.last_date < $4
RETURNING e.id AS event_id, e.name, latest.last_date`
	var archived []models.ArchivedEvent
	if err := r.db.SelectContext(ctx, &archived, query, models.EventStatusArchived, time.Now().UTC(), models.EventStatusApproved, cutoff); err != nil {
		return nil, fmt.Errorf("archive past events: %w", err)
	}
	return archived, nil
}
