package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/service"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/response"
)

// EventHandler exposes event lifecycle endpoints.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// Create godoc
// @Summary Create event
// @Description Creates a pending event with one session day per date
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload"))
		return
	}

	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Approve godoc
// @Summary Approve event
// @Description Approves a pending event and pre-seeds ledger rows for every attached student
// @Tags Events
// @Produce json
// @Param id path string true "Event id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/approve [post]
func (h *EventHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateSchedule godoc
// @Summary Update a session day's slots
// @Tags Events
// @Accept json
// @Produce json
// @Param dayId path string true "Session day id"
// @Param payload body dto.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /session-days/{dayId}/schedule [put]
func (h *EventHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload"))
		return
	}

	schedule, err := h.service.UpdateSchedule(c.Request.Context(), c.Param("dayId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ArchivePast godoc
// @Summary Archive past events
// @Description Archives approved events whose last session day has passed
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/archive-past [post]
func (h *EventHandler) ArchivePast(c *gin.Context) {
	result, err := h.service.ArchivePast(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
