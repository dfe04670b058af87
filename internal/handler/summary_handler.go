package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-attend/attendance-api/internal/service"
	"github.com/campus-attend/attendance-api/pkg/response"
)

// SummaryHandler exposes attendance summary and export endpoints.
type SummaryHandler struct {
	service *service.SummaryService
}

// NewSummaryHandler constructs a summary handler.
func NewSummaryHandler(svc *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: svc}
}

// DaySummary godoc
// @Summary Session day summary
// @Description Slot headcounts and the full roster sheet for one session day
// @Tags Summaries
// @Produce json
// @Param dayId path string true "Session day id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /session-days/{dayId}/summary [get]
func (h *SummaryHandler) DaySummary(c *gin.Context) {
	summary, err := h.service.DaySummary(c.Request.Context(), c.Param("dayId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export session day sheet
// @Description Renders the roster sheet as a CSV or PDF download
// @Tags Summaries
// @Produce text/csv
// @Produce application/pdf
// @Param dayId path string true "Session day id"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /session-days/{dayId}/export [get]
func (h *SummaryHandler) Export(c *gin.Context) {
	file, err := h.service.ExportDaySheet(c.Request.Context(), c.Param("dayId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.FileName)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
