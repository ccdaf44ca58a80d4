package ports

import "github.com/gin-gonic/gin"

type CameraHTTPHandler interface {
	ListCameras(c *gin.Context)
	GetCamera(c *gin.Context)
	CreateCamera(c *gin.Context)
	UpdateCamera(c *gin.Context)
	DeleteCamera(c *gin.Context)
	ListWorkerCameras(c *gin.Context)
}

type AlertHTTPHandler interface {
	SubmitAlert(c *gin.Context)
	ListAlerts(c *gin.Context)
}
