package entity

import "fanclub/pkg/domain"

// Push is what the websocket sends: the unread count, and the notification that changed it if any.
type Push struct {
	UnreadCount  int64                `json:"unread_count"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

type MarkReadRequest struct {
	// UpTo is the id of the newest notification seen. Empty marks everything read.
	UpTo string `json:"up_to"`
}

type UnreadCount struct {
	UnreadCount int64 `json:"unread_count"`
}

type MuteState struct {
	CreatorID string `json:"creator_id"`
	Muted     bool   `json:"muted"`
}
