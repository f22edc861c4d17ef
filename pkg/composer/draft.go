// Package composer holds the gating configuration of a post being written.
package composer

import (
	"strings"
	"sync"

	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/domain"
)

type Mode string

const (
	ModePublic          Mode = "PUBLIC"
	ModeMembershipGated Mode = "MEMBERSHIP_GATED"
)

// Draft is a post under composition.
//
// The membership gate moves PUBLIC -> MEMBERSHIP_GATED(level) -> PUBLIC and
// its level may change while gated. Allowing individual purchase is
// independent of it, so all four combinations are valid.
type Draft struct {
	mu sync.Mutex

	title string
	text  string

	mode     Mode
	tierID   string
	minLevel int

	purchaseAllowed bool
	price           int
}

func NewDraft() *Draft {
	return &Draft{mode: ModePublic}
}

func (d *Draft) SetContent(title, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
	d.text = text
}

func (d *Draft) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

func (d *Draft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// RequireTier gates the draft behind tier, or moves the level if already gated.
func (d *Draft) RequireTier(tier domain.MembershipTier) error {
	if tier.Level < 1 {
		return apperr.Validation("membership level must be at least 1")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = ModeMembershipGated
	d.tierID = tier.ID
	d.minLevel = tier.Level
	return nil
}

// MakePublic removes the membership gate. A purchase option is kept.
func (d *Draft) MakePublic() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = ModePublic
	d.tierID = ""
	d.minLevel = 0
}

// ToggleMembership flips between public and gated. Gating picks the lowest
// tier of cat; with no tiers it fails.
func (d *Draft) ToggleMembership(cat *catalog.Catalog) error {
	if d.Mode() == ModeMembershipGated {
		d.MakePublic()
		return nil
	}
	lowest, ok := cat.Lowest()
	if !ok {
		return apperr.Validation("create a membership tier first")
	}
	return d.RequireTier(lowest)
}

func (d *Draft) AllowPurchase(price int) error {
	if price <= 0 {
		return apperr.Validation("purchase price must be positive")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purchaseAllowed = true
	d.price = price
	return nil
}

func (d *Draft) DisallowPurchase() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purchaseAllowed = false
	d.price = 0
}

func (d *Draft) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Draft) MinLevel() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.minLevel
}

func (d *Draft) PurchaseAllowed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.purchaseAllowed
}

func (d *Draft) Price() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.price
}

// Gate is what the resolver will evaluate once the post is published.
func (d *Draft) Gate() domain.Gate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gateLocked()
}

func (d *Draft) gateLocked() domain.Gate {
	gated := d.mode == ModeMembershipGated
	switch {
	case gated && d.purchaseAllowed:
		return domain.MembershipOrPurchase(d.minLevel, d.price)
	case gated:
		return domain.Membership(d.minLevel)
	case d.purchaseAllowed:
		return domain.Purchase(d.price)
	default:
		return domain.Public()
	}
}

// SelectedTierID implements catalog.SelectionHolder.
func (d *Draft) SelectedTierID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode != ModeMembershipGated {
		return ""
	}
	return d.tierID
}

// SelectTier implements catalog.SelectionHolder. nil means no restriction.
func (d *Draft) SelectTier(tier *domain.MembershipTier) {
	if tier == nil {
		d.MakePublic()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = ModeMembershipGated
	d.tierID = tier.ID
	d.minLevel = tier.Level
}

// Validate checks the draft before submission. The selected tier must still
// exist in cat with the same level.
func (d *Draft) Validate(cat *catalog.Catalog) error {
	d.mu.Lock()
	title := strings.TrimSpace(d.title)
	mode, tierID, level := d.mode, d.tierID, d.minLevel
	purchase, price := d.purchaseAllowed, d.price
	d.mu.Unlock()

	if title == "" {
		return apperr.Validation("title is required")
	}
	if purchase && price <= 0 {
		return apperr.Validation("purchase price must be positive")
	}
	if mode != ModeMembershipGated {
		return nil
	}
	if level < 1 {
		return apperr.Validation("membership level must be at least 1")
	}
	if cat == nil {
		return nil
	}
	if catalog.IsTemporary(tierID) {
		return apperr.Validation("the selected tier is still being saved")
	}
	tier, ok := cat.Get(tierID)
	if !ok {
		return apperr.NotFound("the selected tier no longer exists")
	}
	if tier.Level != level {
		return apperr.Conflict("the selected tier changed level to %d", tier.Level)
	}
	return nil
}
