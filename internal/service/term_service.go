package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
)

type termRepository interface {
	FindActive(ctx context.Context) (*models.SchoolTerm, error)
	Rollover(ctx context.Context, current models.SchoolTerm, next models.SchoolTerm) (*models.SchoolTerm, error)
}

// TermService manages the active school term and semester rollover.
type TermService struct {
	terms  termRepository
	logger *zap.Logger
}

// NewTermService constructs the term service.
func NewTermService(terms termRepository, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{terms: terms, logger: logger}
}

// Active returns the current active term.
func (s *TermService) Active(ctx context.Context) (*models.SchoolTerm, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active school term")
		}
		return nil, fmt.Errorf("find active term: %w", err)
	}
	return term, nil
}

// Rollover archives the active term and opens its successor: first semester
// rolls to second within the school year, second opens the next year's first.
func (s *TermService) Rollover(ctx context.Context) (*models.SchoolTerm, error) {
	current, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	next, err := current.Next()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	}

	opened, err := s.terms.Rollover(ctx, *current, next)
	if err != nil {
		return nil, fmt.Errorf("term rollover: %w", err)
	}

	s.logger.Info("term rolled over",
		zap.String("from", fmt.Sprintf("%s %s", current.SchoolYear, current.Semester)),
		zap.String("to", fmt.Sprintf("%s %s", opened.SchoolYear, opened.Semester)))
	return opened, nil
}
