package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerProfile is a local snapshot of user data needed for rosters and
// search. Owned solely by this service; populated by the profile sync
// worker from the profile service.
type PlayerProfile struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID    string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username          string    `gorm:"index;not null" json:"username"`
	Email             string    `json:"email,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	Bio               *string   `json:"bio,omitempty"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	IsBanned bool `json:"is_banned" gorm:"default:false"` // local tournament ban

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
