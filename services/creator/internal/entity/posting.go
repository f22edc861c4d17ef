package entity

import (
	"io"

	"fanclub/pkg/cursor"
)

// Posting list filters accepted by the API.
const (
	FilterAll        = "all"
	FilterMembership = "membership"
	FilterPurchase   = "purchase"
)

func ValidFilter(f string) bool {
	return f == FilterAll || f == FilterMembership || f == FilterPurchase
}

// PostingQuery selects one keyset page. After is nil for the first page.
type PostingQuery struct {
	CreatorID string
	Filter    string
	After     *cursor.Position
	Limit     int
}

// MediaFile is an upload already opened by the transport layer.
type MediaFile struct {
	Filename    string
	ContentType string
	Body        io.ReadSeeker
}

type NewPosting struct {
	Title    string
	Text     string
	MinLevel *int
	Price    *int
	Images   []MediaFile
}

type LikeState struct {
	PostingID string `json:"posting_id"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}
