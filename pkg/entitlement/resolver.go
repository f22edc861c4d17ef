// Package entitlement decides whether a viewer can see a content item.
//
// Resolve is pure: it never performs I/O and never fails. A malformed
// membership gate (minimum level missing or zero) denies access.
package entitlement

import (
	"unicode/utf8"

	"fanclub/pkg/domain"
)

type Reason string

const (
	ReasonPublic                 Reason = "PUBLIC"
	ReasonOwner                  Reason = "OWNER"
	ReasonMembershipSufficient   Reason = "MEMBERSHIP_SUFFICIENT"
	ReasonMembershipInsufficient Reason = "MEMBERSHIP_INSUFFICIENT"
	ReasonPurchaseRequired       Reason = "PURCHASE_REQUIRED"
	ReasonPurchased              Reason = "PURCHASED"
)

// Hints describe the shape of an item without exposing it, so a locked teaser can be drawn.
type Hints struct {
	TextLength int `json:"text_length"`
	ImageCount int `json:"image_count"`
	VideoCount int `json:"video_count"`
}

type Decision struct {
	CanView bool   `json:"can_view"`
	Reason  Reason `json:"reason"`
	Hints   Hints  `json:"display_hints"`
}

func HintsFor(body domain.Body) Hints {
	return Hints{
		TextLength: utf8.RuneCountInString(body.Text),
		ImageCount: len(body.ImageURLs),
		VideoCount: len(body.VideoURLs),
	}
}

func Resolve(item domain.ContentItem, viewer domain.ViewerEntitlement) Decision {
	d := Decision{Hints: HintsFor(item.Body)}

	if !viewer.IsAnonymous() && viewer.ViewerID == item.AuthorID {
		d.CanView, d.Reason = true, ReasonOwner
		return d
	}

	gate := item.Gate
	if gate.IsPublic() {
		d.CanView, d.Reason = true, ReasonPublic
		return d
	}

	if gate.Purchase != nil && viewer.HasPurchased(item.ID) {
		d.CanView, d.Reason = true, ReasonPurchased
		return d
	}

	if gate.Membership != nil && membershipSatisfied(gate.Membership, item.AuthorID, viewer) {
		d.CanView, d.Reason = true, ReasonMembershipSufficient
		return d
	}

	if gate.Purchase != nil {
		d.Reason = ReasonPurchaseRequired
	} else {
		d.Reason = ReasonMembershipInsufficient
	}
	return d
}

func membershipSatisfied(g *domain.MembershipGate, authorID string, viewer domain.ViewerEntitlement) bool {
	if g.MinLevel <= 0 {
		return false
	}
	return viewer.EffectiveLevel(authorID) >= g.MinLevel
}

// ResolveAll resolves each item of a page, keyed by item id.
func ResolveAll(items []domain.ContentItem, viewer domain.ViewerEntitlement) map[string]Decision {
	out := make(map[string]Decision, len(items))
	for _, item := range items {
		out[item.ID] = Resolve(item, viewer)
	}
	return out
}
