package postgres

import (
	"time"

	"camwatch/internal/core/domain"
)

type userModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Username     string `gorm:"uniqueIndex;not null;size:50"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type cameraModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Name      string    `gorm:"not null"`
	RTSPURL   string    `gorm:"column:rtsp_url;not null"`
	Location  string    `gorm:"not null;default:Unknown"`
	Status    string    `gorm:"not null;default:active"`
	AIEnabled bool      `gorm:"column:ai_enabled;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (cameraModel) TableName() string { return "cameras" }

// alertModel has no foreign key to cameras: alerts may outlive or precede them.
type alertModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Message   string    `gorm:"not null"`
	CameraID  string    `gorm:"column:camera_id;index;not null"`
	ImageURL  *string   `gorm:"column:image_url"`
	CreatedAt time.Time `gorm:"index"`
}

func (alertModel) TableName() string { return "alerts" }

func newCameraModel(c *domain.Camera) *cameraModel {
	return &cameraModel{
		ID:        string(c.ID),
		Name:      c.Name,
		RTSPURL:   c.RTSPURL,
		Location:  c.Location,
		Status:    string(c.Status),
		AIEnabled: c.AIEnabled,
		CreatedAt: c.CreatedAt,
	}
}

func (m *cameraModel) toDomain() *domain.Camera {
	return &domain.Camera{
		ID:        domain.CameraID(m.ID),
		Name:      m.Name,
		RTSPURL:   m.RTSPURL,
		Location:  m.Location,
		Status:    domain.CameraStatus(m.Status),
		AIEnabled: m.AIEnabled,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func newAlertModel(a *domain.Alert) *alertModel {
	return &alertModel{
		ID:        string(a.ID),
		Message:   a.Message,
		CameraID:  string(a.CameraID),
		ImageURL:  a.ImageURL,
		CreatedAt: a.CreatedAt,
	}
}

func (m *alertModel) toDomain() *domain.Alert {
	return &domain.Alert{
		ID:        domain.AlertID(m.ID),
		Message:   m.Message,
		CameraID:  domain.CameraID(m.CameraID),
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func newUserModel(u *domain.User) *userModel {
	return &userModel{
		ID:           string(u.ID),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
	}
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           domain.UserID(m.ID),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
	}
}
