package client

import (
	"context"
	"net/http"
	"net/url"

	"fanclub/pkg/catalog"
	"fanclub/pkg/domain"
	"fanclub/pkg/feed"
)

type FollowState struct {
	CreatorID     string `json:"creator_id"`
	Following     bool   `json:"following"`
	FollowerCount int64  `json:"follower_count"`
}

var _ catalog.TierAPI = (*Client)(nil)

func (c *Client) ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error) {
	var tiers []domain.MembershipTier
	if err := c.get(ctx, "/creators/"+url.PathEscape(creatorID)+"/tiers", nil, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (c *Client) CreateTier(ctx context.Context, draft catalog.TierDraft) (domain.MembershipTier, error) {
	var tier domain.MembershipTier
	err := c.post(ctx, "/tiers", draft, &tier)
	return tier, err
}

func (c *Client) UpdateTier(ctx context.Context, id string, patch catalog.TierPatch) (domain.MembershipTier, error) {
	var tier domain.MembershipTier
	err := c.doJSON(ctx, http.MethodPatch, "/tiers/"+url.PathEscape(id), nil, patch, &tier)
	return tier, err
}

func (c *Client) DeleteTier(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tiers/"+url.PathEscape(id), nil, nil, nil)
}

// Subscribe joins a tier. Refresh the entitlement snapshot afterwards to unlock postings.
func (c *Client) Subscribe(ctx context.Context, tierID string) (domain.TierRef, error) {
	var ref domain.TierRef
	err := c.post(ctx, "/tiers/"+url.PathEscape(tierID)+"/subscribe", nil, &ref)
	return ref, err
}

func (c *Client) Unsubscribe(ctx context.Context, tierID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tiers/"+url.PathEscape(tierID)+"/subscribe", nil, nil, nil)
}

// Entitlements returns what the signed-in viewer holds.
func (c *Client) Entitlements(ctx context.Context) (domain.ViewerEntitlement, error) {
	var ent domain.ViewerEntitlement
	err := c.get(ctx, "/me/entitlements", nil, &ent)
	return ent, err
}

// Creators returns the fetcher of the creator directory. The filter is ignored.
func (c *Client) Creators() feed.PageFetcher[domain.CreatorSummary] {
	return feed.FetcherFunc[domain.CreatorSummary](func(ctx context.Context, _ string, cursor *string, limit int) (feed.Page[domain.CreatorSummary], error) {
		var page feed.Page[domain.CreatorSummary]
		if err := c.get(ctx, "/creators", pageQuery("", cursor, limit), &page); err != nil {
			return feed.Page[domain.CreatorSummary]{}, err
		}
		return page, nil
	})
}

// SetFollowing follows or unfollows a creator.
func (c *Client) SetFollowing(ctx context.Context, creatorID string, following bool) (FollowState, error) {
	method := http.MethodDelete
	if following {
		method = http.MethodPost
	}
	var state FollowState
	err := c.doJSON(ctx, method, "/creators/"+url.PathEscape(creatorID)+"/follow", nil, nil, &state)
	return state, err
}
