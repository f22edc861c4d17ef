package client

import (
	"context"
	"net/http"
	"net/url"

	"fanclub/pkg/domain"
	"fanclub/pkg/feed"
)

type unreadCount struct {
	UnreadCount int64 `json:"unread_count"`
}

type muteState struct {
	CreatorID string `json:"creator_id"`
	Muted     bool   `json:"muted"`
}

// Notifications returns the fetcher of the signed-in user's notifications, newest first.
func (c *Client) Notifications() feed.PageFetcher[domain.Notification] {
	return feed.FetcherFunc[domain.Notification](func(ctx context.Context, _ string, cursor *string, limit int) (feed.Page[domain.Notification], error) {
		var page feed.Page[domain.Notification]
		if err := c.get(ctx, "/notifications", pageQuery("", cursor, limit), &page); err != nil {
			return feed.Page[domain.Notification]{}, err
		}
		return page, nil
	})
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var resp unreadCount
	err := c.get(ctx, "/notifications/unread-count", nil, &resp)
	return resp.UnreadCount, err
}

// MarkRead marks notifications up to and including upTo as read; an empty upTo
// marks everything. It returns the remaining unread count.
func (c *Client) MarkRead(ctx context.Context, upTo string) (int64, error) {
	var resp unreadCount
	err := c.post(ctx, "/notifications/read", map[string]string{"up_to": upTo}, &resp)
	return resp.UnreadCount, err
}

// SetMuted mutes or unmutes new-post notifications from a creator.
func (c *Client) SetMuted(ctx context.Context, creatorID string, muted bool) (bool, error) {
	method := http.MethodDelete
	if muted {
		method = http.MethodPost
	}
	var resp muteState
	err := c.doJSON(ctx, method, "/notifications/mutes/"+url.PathEscape(creatorID), nil, nil, &resp)
	return resp.Muted, err
}
