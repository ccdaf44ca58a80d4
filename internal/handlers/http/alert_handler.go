package http

import (
	"net/http"
	"strconv"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertService ports.AlertService
}

func NewAlertHandler(alertService ports.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

type SubmitAlertRequest struct {
	Message  string  `json:"message"`
	CameraID string  `json:"cameraId"`
	ImageURL *string `json:"imageUrl"`
}

// SubmitAlert is called by the analysis worker. It is mounted without the
// auth gate; the worker is expected to sit on an isolated network. The body
// is not validated beyond being JSON, and cameraId need not name a camera.
func (h *AlertHandler) SubmitAlert(c *gin.Context) {
	var req SubmitAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}

	if _, err := h.alertService.Submit(c.Request.Context(), ports.SubmitAlertInput{
		Message:  req.Message,
		CameraID: domain.CameraID(req.CameraID),
		ImageURL: req.ImageURL,
	}); err != nil {
		_ = c.Error(mapError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListAlerts returns recent alerts, newest first. ?limit is optional.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(errors.NewInvalidInputError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	alerts, err := h.alertService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, alerts)
}
