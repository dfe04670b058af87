package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
)

type termRepoStub struct {
	active   *models.SchoolTerm
	rolledTo *models.SchoolTerm
}

func (s *termRepoStub) FindActive(ctx context.Context) (*models.SchoolTerm, error) {
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

func (s *termRepoStub) Rollover(ctx context.Context, current models.SchoolTerm, next models.SchoolTerm) (*models.SchoolTerm, error) {
	next.ID = "term-next"
	s.rolledTo = &next
	return &next, nil
}

func TestTermServiceRolloverFirstToSecond(t *testing.T) {
	repo := &termRepoStub{active: &models.SchoolTerm{
		ID:         "term-1",
		SchoolYear: "2025-2026",
		Semester:   models.SemesterFirst,
		Status:     models.TermStatusActive,
	}}
	svc := NewTermService(repo, nil)

	next, err := svc.Rollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", next.SchoolYear)
	assert.Equal(t, models.SemesterSecond, next.Semester)
}

func TestTermServiceRolloverSecondOpensNextYear(t *testing.T) {
	repo := &termRepoStub{active: &models.SchoolTerm{
		ID:         "term-2",
		SchoolYear: "2025-2026",
		Semester:   models.SemesterSecond,
		Status:     models.TermStatusActive,
	}}
	svc := NewTermService(repo, nil)

	next, err := svc.Rollover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-2027", next.SchoolYear)
	assert.Equal(t, models.SemesterFirst, next.Semester)
}

func TestTermServiceRolloverWithoutActiveTerm(t *testing.T) {
	svc := NewTermService(&termRepoStub{}, nil)

	_, err := svc.Rollover(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTermServiceRolloverMalformedSchoolYear(t *testing.T) {
	repo := &termRepoStub{active: &models.SchoolTerm{
		ID:         "term-x",
		SchoolYear: "2026",
		Semester:   models.SemesterSecond,
	}}
	svc := NewTermService(repo, nil)

	_, err := svc.Rollover(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
