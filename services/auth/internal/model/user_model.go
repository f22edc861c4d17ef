package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserModel struct {
	ID           string         `gorm:"type:uuid;primary_key"`
	Email        string         `gorm:"type:varchar(255);not null"`
	Username     string         `gorm:"type:varchar(50);not null"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	AvatarURL    string         `gorm:"type:varchar(500)"`
	Bio          string         `gorm:"type:text"`
	Role         string         `gorm:"type:varchar(20);default:'viewer'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// FollowModel is read here only to count followers.
type FollowModel struct {
	ID         string `gorm:"type:uuid;primary_key"`
	FollowerID string `gorm:"type:uuid;not null"`
	CreatorID  string `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
}

func (FollowModel) TableName() string {
	return "follows"
}
