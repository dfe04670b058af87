package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-attend/attendance-api/internal/models"
)

// StudentRepository handles persistence for the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, id_number, first_name, middle_name, last_name, suffix, block_id, status, created_at, updated_at`

// FindByIDNumber loads a student by campus card id number.
func (r *StudentRepository) FindByIDNumber(ctx context.Context, idNumber string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id_number = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, idNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID loads a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ActiveIDsByBlocks returns the ids of active students enrolled in any of
// the given blocks. Used to pre-seed ledger rows on event approval.
func (r *StudentRepository) ActiveIDsByBlocks(ctx context.Context, blockIDs []string) ([]string, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM students WHERE block_id = ANY($1) AND status = $2 ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(blockIDs), models.StudentStatusActive); err != nil {
		return nil, fmt.Errorf("active students by blocks: %w", err)
	}
	return ids, nil
}

// BlocksByIDs loads blocks by identifier.
func (r *StudentRepository) BlocksByIDs(ctx context.Context, blockIDs []string) ([]models.Block, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, department, course, year_level, term_id, created_at FROM blocks WHERE id = ANY($1)`
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, pq.Array(blockIDs)); err != nil {
		return nil, fmt.Errorf("blocks by ids: %w", err)
	}
	return blocks, nil
}
