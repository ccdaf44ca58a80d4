package domain

import "time"

type AlertID string

// Alert is a detection event reported by the analysis worker. CameraID is not
// checked against the registry: an alert may outlive or precede its camera.
type Alert struct {
	ID        AlertID   `json:"id"`
	Message   string    `json:"message"`
	CameraID  CameraID  `json:"cameraId"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}
