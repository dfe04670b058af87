package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-attend/attendance-api/internal/models"
)

// TermRepository handles persistence for school terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, school_year, semester, status, created_at`

// FindActive returns the currently active term.
func (r *TermRepository) FindActive(ctx context.Context) (*models.SchoolTerm, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_terms WHERE status = $1 LIMIT 1`, termColumns)
	var term models.SchoolTerm
	if err := r.db.GetContext(ctx, &term, query, models.TermStatusActive); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.SchoolTerm, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_terms WHERE id = $1`, termColumns)
	var term models.SchoolTerm
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// Rollover archives the current active term and activates its successor in
// one transaction, returning the new term.
func (r *TermRepository) Rollover(ctx context.Context, current models.SchoolTerm, next models.SchoolTerm) (*models.SchoolTerm, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin term rollover: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE school_terms SET status = $1 WHERE id = $2 AND status = $3`,
		models.TermStatusArchived, current.ID, models.TermStatusActive); err != nil {
		return nil, fmt.Errorf("archive current term: %w", err)
	}

	next.ID = uuid.NewString()
	next.Status = models.TermStatusActive
	next.CreatedAt = time.Now().UTC()
	const insert = `INSERT INTO school_terms (id, school_year, semester, status, created_at)
VALUES (:id, :school_year, :semester, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, next); err != nil {
		return nil, fmt.Errorf("insert next term: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit term rollover: %w", err)
	}
	committed = true
	return &next, nil
}
