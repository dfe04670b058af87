package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-attend/attendance-api/internal/dto"
	"github.com/campus-attend/attendance-api/internal/service"
	appErrors "github.com/campus-attend/attendance-api/pkg/errors"
	"github.com/campus-attend/attendance-api/pkg/response"
)

// ScanHandler exposes the scanner endpoints.
type ScanHandler struct {
	service *service.ScanService
}

// NewScanHandler constructs a scan handler.
func NewScanHandler(svc *service.ScanService) *ScanHandler {
	return &ScanHandler{service: svc}
}

// Record godoc
// @Summary Record a QR scan
// @Description Decodes the scanned code, resolves the attendance slot and commits it to the ledger
// @Tags Scans
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest true "Scan payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scans [post]
func (h *ScanHandler) Record(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scan payload"))
		return
	}

	result, err := h.service.RecordScan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Sync godoc
// @Summary Sync offline-captured attendance
// @Description Merges records captured while the scanner was offline; failures are reported per record
// @Tags Scans
// @Accept json
// @Produce json
// @Param payload body dto.SyncRequest true "Sync payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scans/sync [post]
func (h *ScanHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync payload"))
		return
	}

	report, err := h.service.SyncAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
