package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatorModel is the read side of the users table owned by the auth service.
type CreatorModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	Username  string
	AvatarURL string
	Role      string
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
}

func (CreatorModel) TableName() string {
	return "users"
}

type FollowModel struct {
	ID         string `gorm:"type:uuid;primary_key"`
	FollowerID string `gorm:"type:uuid;not null"`
	CreatorID  string `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
}

func (FollowModel) TableName() string {
	return "follows"
}

func (f *FollowModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
