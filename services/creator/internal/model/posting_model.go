package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostingModel stores the gate flattened: a NULL min_level means no membership
// gate and a NULL price means the posting cannot be bought.
type PostingModel struct {
	ID           string                      `gorm:"type:uuid;primary_key"`
	CreatorID    string                      `gorm:"type:uuid;not null;index"`
	Title        string                      `gorm:"type:varchar(255);not null"`
	Text         string                      `gorm:"type:text"`
	ImageURLs    datatypes.JSONSlice[string] `gorm:"column:image_urls;type:jsonb"`
	VideoURLs    datatypes.JSONSlice[string] `gorm:"column:video_urls;type:jsonb"`
	MinLevel     *int
	Price        *int
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (PostingModel) TableName() string {
	return "postings"
}

func (p *PostingModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

type LikeModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	PostingID string `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (LikeModel) TableName() string {
	return "likes"
}

func (l *LikeModel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type PurchaseModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	PostingID string `gorm:"type:uuid;not null"`
	Price     int    `gorm:"not null"`
	CreatedAt time.Time
}

func (PurchaseModel) TableName() string {
	return "purchases"
}

func (p *PurchaseModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
