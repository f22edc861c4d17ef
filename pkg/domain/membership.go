package domain

import (
	"encoding/json"
	"sort"
	"time"
)

type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
	BillingOnce    BillingPeriod = "once"
)

func (b BillingPeriod) Valid() bool {
	switch b {
	case BillingMonthly, BillingYearly, BillingOnce:
		return true
	}
	return false
}

// MembershipTier is a creator-defined subscription level. Higher levels are
// conventionally supersets of lower ones, but access is a plain numeric gate.
type MembershipTier struct {
	ID            string        `json:"id"`
	CreatorID     string        `json:"creator_id"`
	Name          string        `json:"name"`
	Level         int           `json:"level"`
	Price         int           `json:"price"`
	BillingPeriod BillingPeriod `json:"billing_period"`
	Benefits      []string      `json:"benefits"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (t MembershipTier) Key() string {
	return t.ID
}

// TierRef is a held tier. Level is captured at subscribe time so that deleting
// or editing the tier later does not revoke what was granted.
type TierRef struct {
	TierID    string `json:"tier_id"`
	CreatorID string `json:"creator_id"`
	Level     int    `json:"level"`
}

// ViewerEntitlement is the snapshot of what a viewer holds. An empty ViewerID is an anonymous viewer.
type ViewerEntitlement struct {
	ViewerID  string              `json:"viewer_id"`
	Tiers     []TierRef           `json:"tiers"`
	Purchases map[string]struct{}
}

// Anonymous returns the entitlement of a signed-out viewer.
func Anonymous() ViewerEntitlement {
	return ViewerEntitlement{}
}

func (v ViewerEntitlement) IsAnonymous() bool {
	return v.ViewerID == ""
}

// EffectiveLevel is the highest level held on creatorID's tiers, 0 when none.
func (v ViewerEntitlement) EffectiveLevel(creatorID string) int {
	level := 0
	for _, t := range v.Tiers {
		if t.CreatorID == creatorID && t.Level > level {
			level = t.Level
		}
	}
	return level
}

func (v ViewerEntitlement) HasPurchased(itemID string) bool {
	if v.Purchases == nil {
		return false
	}
	_, ok := v.Purchases[itemID]
	return ok
}

// WithPurchases returns a copy with the given item ids recorded as purchased.
func (v ViewerEntitlement) WithPurchases(itemIDs ...string) ViewerEntitlement {
	out := v
	out.Purchases = make(map[string]struct{}, len(v.Purchases)+len(itemIDs))
	for id := range v.Purchases {
		out.Purchases[id] = struct{}{}
	}
	for _, id := range itemIDs {
		out.Purchases[id] = struct{}{}
	}
	return out
}

// PurchaseIDs lists purchased item ids, sorted.
func (v ViewerEntitlement) PurchaseIDs() []string {
	ids := make([]string, 0, len(v.Purchases))
	for id := range v.Purchases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type entitlementJSON struct {
	ViewerID  string    `json:"viewer_id"`
	Tiers     []TierRef `json:"tiers"`
	Purchases []string  `json:"purchases"`
}

func (v ViewerEntitlement) MarshalJSON() ([]byte, error) {
	tiers := v.Tiers
	if tiers == nil {
		tiers = []TierRef{}
	}
	return json.Marshal(entitlementJSON{ViewerID: v.ViewerID, Tiers: tiers, Purchases: v.PurchaseIDs()})
}

func (v *ViewerEntitlement) UnmarshalJSON(data []byte) error {
	var raw entitlementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ViewerEntitlement{ViewerID: raw.ViewerID, Tiers: raw.Tiers}
	if len(raw.Purchases) > 0 {
		*v = v.WithPurchases(raw.Purchases...)
	}
	return nil
}

// CreatorSummary is an entry of the creator directory list.
type CreatorSummary struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	AvatarURL     string `json:"avatar_url"`
	FollowerCount int64  `json:"follower_count"`
	IsFollowing   bool   `json:"is_following"`
}

func (c CreatorSummary) Key() string {
	return c.ID
}

// Notification is an entry of a user's notification panel.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

func (n Notification) Key() string {
	return n.ID
}
