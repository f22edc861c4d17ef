package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/composer"
	"fanclub/pkg/entitlement"
	"fanclub/pkg/feed"
)

type LikeState struct {
	PostingID string `json:"posting_id"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

// Image is a file attached to a new posting.
type Image struct {
	Filename string
	Body     io.Reader
}

// Postings returns the fetcher of the postings list, optionally limited to one creator.
func (c *Client) Postings(creatorID string) feed.PageFetcher[entitlement.View] {
	return feed.FetcherFunc[entitlement.View](func(ctx context.Context, filter string, cursor *string, limit int) (feed.Page[entitlement.View], error) {
		q := pageQuery(filter, cursor, limit)
		if creatorID != "" {
			q.Set("creator_id", creatorID)
		}
		var page feed.Page[entitlement.View]
		if err := c.get(ctx, "/postings", q, &page); err != nil {
			return feed.Page[entitlement.View]{}, err
		}
		return page, nil
	})
}

func (c *Client) GetPosting(ctx context.Context, id string) (entitlement.View, error) {
	var view entitlement.View
	err := c.get(ctx, "/postings/"+url.PathEscape(id), nil, &view)
	return view, err
}

// Publish sends a validated draft as a new posting.
func (c *Client) Publish(ctx context.Context, draft *composer.Draft, cat *catalog.Catalog, images ...Image) (entitlement.View, error) {
	if err := draft.Validate(cat); err != nil {
		return entitlement.View{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{"title": draft.Title(), "text": draft.Text()}
	if level := draft.MinLevel(); level > 0 {
		fields["min_level"] = strconv.Itoa(level)
	}
	if draft.PurchaseAllowed() {
		fields["price"] = strconv.Itoa(draft.Price())
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return entitlement.View{}, fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	for _, img := range images {
		part, err := w.CreateFormFile("images", path.Base(img.Filename))
		if err != nil {
			return entitlement.View{}, fmt.Errorf("failed to attach %s: %w", img.Filename, err)
		}
		if _, err := io.Copy(part, img.Body); err != nil {
			return entitlement.View{}, fmt.Errorf("failed to read %s: %w", img.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return entitlement.View{}, fmt.Errorf("failed to finish upload: %w", err)
	}

	var view entitlement.View
	err := c.do(ctx, http.MethodPost, "/postings", nil, &buf, w.FormDataContentType(), &view)
	return view, err
}

func (c *Client) DeletePosting(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/postings/"+url.PathEscape(id), nil, nil, nil)
}

// SetLiked likes or unlikes a posting.
func (c *Client) SetLiked(ctx context.Context, postingID string, liked bool) (LikeState, error) {
	method := http.MethodDelete
	if liked {
		method = http.MethodPost
	}
	var state LikeState
	err := c.doJSON(ctx, method, "/postings/"+url.PathEscape(postingID)+"/like", nil, nil, &state)
	return state, err
}

func (c *Client) RecordView(ctx context.Context, postingID string) error {
	return c.post(ctx, "/postings/"+url.PathEscape(postingID)+"/view", nil, nil)
}

// Purchase buys a posting and returns it unlocked.
func (c *Client) Purchase(ctx context.Context, postingID string) (entitlement.View, error) {
	var view entitlement.View
	if err := c.post(ctx, "/postings/"+url.PathEscape(postingID)+"/purchase", nil, &view); err != nil {
		return entitlement.View{}, err
	}
	if view.Locked() {
		return view, apperr.Internal("posting %s still locked after purchase", postingID)
	}
	return view, nil
}
