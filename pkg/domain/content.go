// Package domain holds the types shared by the services and the client library:
// content items and their access gates, membership tiers and viewer entitlements.
package domain

import "time"

// VisibilityTier is the coarse classification of a Gate.
type VisibilityTier string

const (
	TierPublic             VisibilityTier = "PUBLIC"
	TierMembership         VisibilityTier = "MEMBERSHIP"
	TierIndividualPurchase VisibilityTier = "INDIVIDUAL_PURCHASE"
)

// MembershipGate requires an effective level of at least MinLevel on the author's tiers.
type MembershipGate struct {
	MinLevel int `json:"min_level"`
}

// PurchaseGate allows a one-off purchase of the item for Price.
type PurchaseGate struct {
	Price int `json:"price"`
}

// Gate composes the access conditions of an item. Both gates nil means public.
// When both are set the item is visible if either condition holds.
type Gate struct {
	Membership *MembershipGate `json:"membership,omitempty"`
	Purchase   *PurchaseGate   `json:"purchase,omitempty"`
}

func Public() Gate {
	return Gate{}
}

func Membership(minLevel int) Gate {
	return Gate{Membership: &MembershipGate{MinLevel: minLevel}}
}

func Purchase(price int) Gate {
	return Gate{Purchase: &PurchaseGate{Price: price}}
}

func MembershipOrPurchase(minLevel, price int) Gate {
	return Gate{
		Membership: &MembershipGate{MinLevel: minLevel},
		Purchase:   &PurchaseGate{Price: price},
	}
}

// Tier reports the classification shown in listings. A purchasable item is
// INDIVIDUAL_PURCHASE even when it also carries a membership gate.
func (g Gate) Tier() VisibilityTier {
	switch {
	case g.Purchase != nil:
		return TierIndividualPurchase
	case g.Membership != nil:
		return TierMembership
	default:
		return TierPublic
	}
}

func (g Gate) IsPublic() bool {
	return g.Membership == nil && g.Purchase == nil
}

// MinLevel is the required membership level, 0 when there is no membership gate.
func (g Gate) MinLevel() int {
	if g.Membership == nil {
		return 0
	}
	return g.Membership.MinLevel
}

// Price is the one-off purchase price, 0 when the item cannot be bought.
func (g Gate) Price() int {
	if g.Purchase == nil {
		return 0
	}
	return g.Purchase.Price
}

// GateFromColumns rebuilds a gate from its flattened storage form.
func GateFromColumns(minLevel *int, price *int) Gate {
	var g Gate
	if minLevel != nil {
		g.Membership = &MembershipGate{MinLevel: *minLevel}
	}
	if price != nil {
		g.Purchase = &PurchaseGate{Price: *price}
	}
	return g
}

// Columns flattens the gate for storage.
func (g Gate) Columns() (minLevel *int, price *int) {
	if g.Membership != nil {
		v := g.Membership.MinLevel
		minLevel = &v
	}
	if g.Purchase != nil {
		v := g.Purchase.Price
		price = &v
	}
	return minLevel, price
}

type Counters struct {
	Views    int64 `json:"view_count"`
	Likes    int64 `json:"like_count"`
	Comments int64 `json:"comment_count"`
}

// Body is the gated payload of an item. It never leaves the server for a viewer who cannot see it.
type Body struct {
	Text      string   `json:"text"`
	ImageURLs []string `json:"image_urls,omitempty"`
	VideoURLs []string `json:"video_urls,omitempty"`
}

type ContentItem struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Gate      Gate      `json:"gate"`
	Counters  Counters  `json:"counters"`
	Body      Body      `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (c ContentItem) Key() string {
	return c.ID
}
