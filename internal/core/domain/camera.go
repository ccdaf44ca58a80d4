package domain

import "time"

type CameraID string

type CameraStatus string

const (
	CameraStatusActive   CameraStatus = "active"
	CameraStatusInactive CameraStatus = "inactive"
)

// DefaultCameraLocation is stored when a camera is created without a location.
const DefaultCameraLocation = "Unknown"

type Camera struct {
	ID        CameraID     `json:"id"`
	Name      string       `json:"name"`
	RTSPURL   string       `json:"rtspUrl"`
	Location  string       `json:"location"`
	Status    CameraStatus `json:"status"`
	AIEnabled bool         `json:"aiEnabled"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s CameraStatus) Valid() bool {
	return s == CameraStatusActive || s == CameraStatusInactive
}
