package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-attend/attendance-api/internal/service"
	"github.com/campus-attend/attendance-api/pkg/response"
)

// TermHandler exposes school term endpoints.
type TermHandler struct {
	service *service.TermService
}

// NewTermHandler constructs a term handler.
func NewTermHandler(svc *service.TermService) *TermHandler {
	return &TermHandler{service: svc}
}

// Active godoc
// @Summary Get the active school term
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /terms/active [get]
func (h *TermHandler) Active(c *gin.Context) {
	term, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Rollover godoc
// @Summary Roll the active term over to its successor
// @Description Archives the active term and opens the next semester
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /terms/rollover [post]
func (h *TermHandler) Rollover(c *gin.Context) {
	term, err := h.service.Rollover(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}
