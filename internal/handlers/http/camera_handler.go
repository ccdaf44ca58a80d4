package http

import (
	"net/http"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CameraHandler struct {
	cameraService ports.CameraService
}

func NewCameraHandler(cameraService ports.CameraService) *CameraHandler {
	return &CameraHandler{
		cameraService: cameraService,
	}
}

type CreateCameraRequest struct {
	Name      string `json:"name"`
	RTSPURL   string `json:"rtspUrl"`
	Location  string `json:"location"`
	AIEnabled *bool  `json:"aiEnabled"`
}

// UpdateCameraRequest is a partial update; omitted fields keep their value.
type UpdateCameraRequest struct {
	Status    *domain.CameraStatus `json:"status"`
	AIEnabled *bool                `json:"aiEnabled"`
}

func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras, err := h.cameraService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func (h *CameraHandler) GetCamera(c *gin.Context) {
	camera, err := h.cameraService.Get(c.Request.Context(), domain.CameraID(c.Param("id")))
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) CreateCamera(c *gin.Context) {
	var req CreateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}

	camera, err := h.cameraService.Create(c.Request.Context(), ports.CreateCameraInput{
		Name:      req.Name,
		RTSPURL:   req.RTSPURL,
		Location:  req.Location,
		AIEnabled: req.AIEnabled,
	})
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusCreated, camera)
}

func (h *CameraHandler) UpdateCamera(c *gin.Context) {
	var req UpdateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}

	camera, err := h.cameraService.Update(c.Request.Context(), domain.CameraID(c.Param("id")), ports.UpdateCameraInput{
		Status:    req.Status,
		AIEnabled: req.AIEnabled,
	})
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) DeleteCamera(c *gin.Context) {
	if err := h.cameraService.Delete(c.Request.Context(), domain.CameraID(c.Param("id"))); err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListWorkerCameras serves the analysis worker. It is mounted without the
// auth gate.
func (h *CameraHandler) ListWorkerCameras(c *gin.Context) {
	cameras, err := h.cameraService.ListForWorker(c.Request.Context())
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	c.JSON(http.StatusOK, cameras)
}
