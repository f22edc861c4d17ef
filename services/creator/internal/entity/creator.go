package entity

import (
	"time"

	"fanclub/pkg/domain"
)

// CreatorRow is a directory entry with the keyset columns it was read at.
type CreatorRow struct {
	domain.CreatorSummary
	CreatedAt time.Time
}

type FollowState struct {
	CreatorID     string `json:"creator_id"`
	Following     bool   `json:"following"`
	FollowerCount int64  `json:"follower_count"`
}
