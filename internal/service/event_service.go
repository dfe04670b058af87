package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/models"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event, blockIDs []string, days []models.SessionSchedule) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	BlockIDs(ctx context.Context, eventID string) ([]string, error)
	Approve(ctx context.Context, id string, approvedAt time.Time) error
	ArchivePast(ctx context.Context, cutoff time.Time) ([]models.ArchivedEvent, error)
}

type eventScheduleRepository interface {
	FindBySessionDay(ctx context.Context, sessionDayID string) (*models.SessionSchedule, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.SessionSchedule, error)
	UpdateSlots(ctx context.Context, schedule *models.SessionSchedule) error
}

type eventStudentRepository interface {
	ActiveIDsByBlocks(ctx context.Context, blockIDs []string) ([]string, error)
}

type eventLedgerSeeder interface {
	Seed(ctx context.Context, sessionDayIDs, studentIDs []string) (int, error)
}

type eventTermRepository interface {
	FindActive(ctx context.Context) (*models.SchoolTerm, error)
}

// EventService coordinates the event lifecycle: creation with per-date
// schedules, approval with ledger pre-seeding, and archiving.
type EventService struct {
	events           eventRepository
	schedules        eventScheduleRepository
	students         eventStudentRepository
	ledger           eventLedgerSeeder
	terms            eventTermRepository
	cache            *CacheService
	validator        *validator.Validate
	logger           *zap.Logger
	location         *time.Location
	defaultTolerance int
	defaultDuration  int
}

// NewEventService constructs the event service. defaultTolerance and
// defaultDuration apply to session days whose request omits them.
func NewEventService(events eventRepository, schedules eventScheduleRepository, students eventStudentRepository, ledger eventLedgerSeeder, terms eventTermRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, location *time.Location, defaultTolerance, defaultDuration int) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &EventService{
		events:           events,
		schedules:        schedules,
		students:         students,
		ledger:           ledger,
		terms:            terms,
		cache:            cache,
		validator:        validate,
		logger:           logger,
		location:         location,
		defaultTolerance: defaultTolerance,
		defaultDuration:  defaultDuration,
	}
}

// Create registers a pending event under the active term, with one session
// day per requested date.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest) (*dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no active school term")
		}
		return nil, fmt.Errorf("find active term: %w", err)
	}

	days := make([]models.SessionSchedule, 0, len(req.Dates))
	seen := make(map[string]struct{}, len(req.Dates))
	for _, dateReq := range req.Dates {
		if _, dup := seen[dateReq.Date]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate date %s", dateReq.Date))
		}
		seen[dateReq.Date] = struct{}{}

		day, err := s.buildSessionDay(dateReq, req.ToleranceMinutes, req.DurationMinutes)
		if err != nil {
			return nil, err
		}
		days = append(days, *day)
	}

	event := &models.Event{
		TermID:        term.ID,
		Name:          req.Name,
		Venue:         req.Venue,
		ScanPersonnel: req.ScanPersonnel,
		Status:        models.EventStatusPending,
	}
	if err := s.events.Create(ctx, event, req.BlockIDs, days); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.Int("session_days", len(days)),
		zap.Int("blocks", len(req.BlockIDs)))

	created, err := s.schedules.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list created session days: %w", err)
	}
	return &dto.EventResponse{Event: *event, Days: created}, nil
}

// Get loads an event with its session days.
func (s *EventService) Get(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	days, err := s.schedules.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list session days: %w", err)
	}
	return &dto.EventResponse{Event: *event, Days: days}, nil
}

// Approve flips a pending event to approved and pre-seeds one empty ledger
// row per (session day, active student of an attached block). Seeding is
// idempotent, so re-running a partially seeded approval fills only the gaps.
func (s *EventService) Approve(ctx context.Context, id string) (*dto.ApproveEventResponse, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	if event.Status != models.EventStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("event is %s, only pending events can be approved", event.Status))
	}

	approvedAt := time.Now().UTC()
	if err := s.events.Approve(ctx, id, approvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "event was approved concurrently")
		}
		return nil, fmt.Errorf("approve event: %w", err)
	}
	event.Status = models.EventStatusApproved
	event.ApprovedAt = &approvedAt

	blockIDs, err := s.events.BlockIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event blocks: %w", err)
	}
	studentIDs, err := s.students.ActiveIDsByBlocks(ctx, blockIDs)
	if err != nil {
		return nil, fmt.Errorf("event students: %w", err)
	}
	days, err := s.schedules.ListByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list session days: %w", err)
	}
	dayIDs := make([]string, 0, len(days))
	for _, day := range days {
		dayIDs = append(dayIDs, day.SessionDayID)
	}

	seeded, err := s.ledger.Seed(ctx, dayIDs, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("seed ledger: %w", err)
	}

	s.logger.Info("event approved",
		zap.String("event_id", id),
		zap.Int("students", len(studentIDs)),
		zap.Int("session_days", len(dayIDs)),
		zap.Int("seeded_rows", seeded))

	return &dto.ApproveEventResponse{Event: *event, SeededRows: seeded}, nil
}

// UpdateSchedule replaces one session day's slot configuration and drops
// the cached copy scanners read.
func (s *EventService) UpdateSchedule(ctx context.Context, sessionDayID string, req dto.UpdateScheduleRequest) (*models.SessionSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	schedule, err := s.schedules.FindBySessionDay(ctx, sessionDayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session day not found")
		}
		return nil, fmt.Errorf("find session day: %w", err)
	}

	if schedule.AmIn, err = parseOptionalClock(req.AmIn); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if schedule.AmOut, err = parseOptionalClock(req.AmOut); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if schedule.PmIn, err = parseOptionalClock(req.PmIn); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if schedule.PmOut, err = parseOptionalClock(req.PmOut); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.ToleranceMinutes != nil {
		schedule.ToleranceMinutes = *req.ToleranceMinutes
	}
	if req.DurationMinutes != nil {
		schedule.DurationMinutes = *req.DurationMinutes
	}
	if err := schedule.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if err := s.schedules.UpdateSlots(ctx, schedule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session day not found")
		}
		return nil, fmt.Errorf("update session day: %w", err)
	}

	if s.cache != nil {
		pattern := fmt.Sprintf("schedule:event:%s:*", schedule.EventID)
		_ = s.cache.Invalidate(ctx, pattern)
	}
	return schedule, nil
}

// ArchivePast archives every approved event whose last session day is
// before today in the campus timezone. Safe to run repeatedly.
func (s *EventService) ArchivePast(ctx context.Context) (*dto.ArchiveSweepResponse, error) {
	now := time.Now().In(s.location)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	archived, err := s.events.ArchivePast(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("archive past events: %w", err)
	}
	if len(archived) > 0 {
		s.logger.Info("archived past events", zap.Int("count", len(archived)))
	}
	return &dto.ArchiveSweepResponse{ArchivedEvents: archived, SweptAt: time.Now().UTC()}, nil
}

func (s *EventService) buildSessionDay(req dto.EventDateRequest, tolerance, duration *int) (*models.SessionSchedule, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", req.Date))
	}

	day := &models.SessionSchedule{
		Date:             date,
		ToleranceMinutes: s.defaultTolerance,
		DurationMinutes:  s.defaultDuration,
	}
	if tolerance != nil {
		day.ToleranceMinutes = *tolerance
	}
	if duration != nil {
		day.DurationMinutes = *duration
	}

	if day.AmIn, err = parseOptionalClock(req.AmIn); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if day.AmOut, err = parseOptionalClock(req.AmOut); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if day.PmIn, err = parseOptionalClock(req.PmIn); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if day.PmOut, err = parseOptionalClock(req.PmOut); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if err := day.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %v", req.Date, err))
	}
	return day, nil
}

func parseOptionalClock(raw *string) (*models.MinuteOfDay, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	minute, err := models.ParseClock(*raw)
	if err != nil {
		return nil, err
	}
	return &minute, nil
}
