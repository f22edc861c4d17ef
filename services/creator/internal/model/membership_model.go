package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TierModel struct {
	ID            string                      `gorm:"type:uuid;primary_key"`
	CreatorID     string                      `gorm:"type:uuid;not null"`
	Name          string                      `gorm:"type:varchar(100);not null"`
	Level         int                         `gorm:"not null"`
	Price         int                         `gorm:"not null"`
	BillingPeriod string                      `gorm:"type:varchar(20);not null"`
	Benefits      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (TierModel) TableName() string {
	return "membership_tiers"
}

func (t *TierModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// SubscriptionModel keeps the tier level at subscribe time.
type SubscriptionModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	ViewerID  string `gorm:"type:uuid;not null"`
	CreatorID string `gorm:"type:uuid;not null"`
	TierID    string `gorm:"type:uuid;not null"`
	Level     int    `gorm:"not null"`
	CreatedAt time.Time
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
