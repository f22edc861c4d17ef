// Package catalog keeps a creator's membership tiers in memory with optimistic
// mutations that are later confirmed or rolled back against the server.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"fanclub/pkg/apperr"
	"fanclub/pkg/domain"

	"github.com/google/uuid"
)

const tempPrefix = "tmp-"

// TierDraft is the input of Add.
type TierDraft struct {
	Name          string               `json:"name"`
	Level         int                  `json:"level"`
	Price         int                  `json:"price"`
	BillingPeriod domain.BillingPeriod `json:"billing_period"`
	Benefits      []string             `json:"benefits"`
}

// TierPatch is the input of Update. Nil fields are left unchanged.
type TierPatch struct {
	Name          *string               `json:"name,omitempty"`
	Level         *int                  `json:"level,omitempty"`
	Price         *int                  `json:"price,omitempty"`
	BillingPeriod *domain.BillingPeriod `json:"billing_period,omitempty"`
	Benefits      *[]string             `json:"benefits,omitempty"`
}

// Apply returns tier with the patch applied.
func (p TierPatch) Apply(tier domain.MembershipTier) domain.MembershipTier {
	if p.Name != nil {
		tier.Name = *p.Name
	}
	if p.Level != nil {
		tier.Level = *p.Level
	}
	if p.Price != nil {
		tier.Price = *p.Price
	}
	if p.BillingPeriod != nil {
		tier.BillingPeriod = *p.BillingPeriod
	}
	if p.Benefits != nil {
		tier.Benefits = append([]string(nil), (*p.Benefits)...)
	}
	return tier
}

// SelectionHolder is dependent state that points at a tier, e.g. the minimum
// level selector of a post being composed.
type SelectionHolder interface {
	SelectedTierID() string
	// SelectTier moves the selection; nil means no restriction.
	SelectTier(tier *domain.MembershipTier)
}

type mutationKind int

const (
	mutationAdd mutationKind = iota
	mutationUpdate
	mutationRemove
)

// Mutation identifies a local change awaiting server confirmation.
type Mutation struct {
	ID     string
	TierID string
}

type pending struct {
	kind   mutationKind
	tierID string
	before domain.MembershipTier
	moved  []SelectionHolder
}

// Catalog is one creator's tier list. It is safe for concurrent use.
type Catalog struct {
	creatorID string

	mu      sync.Mutex
	tiers   []domain.MembershipTier
	pending map[string]*pending
	holders []SelectionHolder
}

func New(creatorID string, tiers []domain.MembershipTier) *Catalog {
	c := &Catalog{
		creatorID: creatorID,
		pending:   make(map[string]*pending),
	}
	c.tiers = cloneTiers(tiers)
	sortTiers(c.tiers)
	return c
}

func (c *Catalog) CreatorID() string {
	return c.creatorID
}

// List returns the tiers ordered by level ascending.
func (c *Catalog) List() []domain.MembershipTier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTiers(c.tiers)
}

func (c *Catalog) Get(id string) (domain.MembershipTier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return domain.MembershipTier{}, false
	}
	return cloneTier(c.tiers[i]), true
}

// Lowest returns the tier with the smallest level.
func (c *Catalog) Lowest() (domain.MembershipTier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tiers) == 0 {
		return domain.MembershipTier{}, false
	}
	return cloneTier(c.tiers[0]), true
}

// ByLevel returns the tier at level.
func (c *Catalog) ByLevel(level int) (domain.MembershipTier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tiers {
		if t.Level == level {
			return cloneTier(t), true
		}
	}
	return domain.MembershipTier{}, false
}

// IsTemporary reports whether id was issued locally and not yet confirmed.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// Pending is the number of unconfirmed mutations.
func (c *Catalog) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Watch registers a holder whose selection follows tier edits, removals and
// id reconciliation.
func (c *Catalog) Watch(h SelectionHolder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holders = append(c.holders, h)
}

func (c *Catalog) Unwatch(h SelectionHolder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.holders {
		if existing == h {
			c.holders = append(c.holders[:i], c.holders[i+1:]...)
			return
		}
	}
}

// Add inserts a tier under a temporary id.
func (c *Catalog) Add(d TierDraft) (Mutation, error) {
	tier := domain.MembershipTier{
		ID:            tempPrefix + uuid.New().String(),
		CreatorID:     c.creatorID,
		Name:          strings.TrimSpace(d.Name),
		Level:         d.Level,
		Price:         d.Price,
		BillingPeriod: d.BillingPeriod,
		Benefits:      append([]string(nil), d.Benefits...),
	}
	if tier.BillingPeriod == "" {
		tier.BillingPeriod = domain.BillingMonthly
	}
	if err := Validate(tier); err != nil {
		return Mutation{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLevelLocked(tier.Level, ""); err != nil {
		return Mutation{}, err
	}

	c.tiers = append(c.tiers, tier)
	sortTiers(c.tiers)
	return c.recordLocked(&pending{kind: mutationAdd, tierID: tier.ID}), nil
}

// Update applies patch to tier id. Level changes re-sort the list.
func (c *Catalog) Update(id string, patch TierPatch) (Mutation, error) {
	if IsTemporary(id) {
		return Mutation{}, apperr.Validation("tier is still being saved")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return Mutation{}, apperr.NotFound("tier %s not found", id)
	}
	before := cloneTier(c.tiers[i])
	after := patch.Apply(cloneTier(before))
	after.Name = strings.TrimSpace(after.Name)
	if err := Validate(after); err != nil {
		return Mutation{}, err
	}
	if after.Level != before.Level {
		if err := c.checkLevelLocked(after.Level, id); err != nil {
			return Mutation{}, err
		}
	}

	c.tiers[i] = after
	sortTiers(c.tiers)
	c.refreshLocked(id, id)
	return c.recordLocked(&pending{kind: mutationUpdate, tierID: id, before: before}), nil
}

// Remove deletes tier id. Holders selecting it fall back to the lowest
// remaining tier, or to no restriction when none remain.
func (c *Catalog) Remove(id string) (Mutation, error) {
	if IsTemporary(id) {
		return Mutation{}, apperr.Validation("tier is still being saved")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return Mutation{}, apperr.NotFound("tier %s not found", id)
	}
	before := cloneTier(c.tiers[i])
	c.tiers = append(c.tiers[:i], c.tiers[i+1:]...)
	moved := c.reselectLocked(id)

	return c.recordLocked(&pending{kind: mutationRemove, tierID: id, before: before, moved: moved}), nil
}

// Confirm settles a mutation with the server's answer. For an add, the
// temporary id recorded by the mutation is replaced with the server's id.
func (c *Catalog) Confirm(mutationID string, server *domain.MembershipTier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[mutationID]
	if !ok {
		return apperr.NotFound("mutation %s not found", mutationID)
	}
	delete(c.pending, mutationID)

	if p.kind == mutationRemove || server == nil {
		return nil
	}

	i := c.indexLocked(p.tierID)
	if i < 0 {
		// removed locally after the mutation was issued
		return nil
	}
	confirmed := cloneTier(*server)
	if confirmed.CreatorID == "" {
		confirmed.CreatorID = c.creatorID
	}
	c.tiers[i] = confirmed
	sortTiers(c.tiers)
	c.refreshLocked(p.tierID, confirmed.ID)

	if confirmed.ID != p.tierID {
		for _, other := range c.pending {
			if other.tierID == p.tierID {
				other.tierID = confirmed.ID
			}
		}
	}
	return nil
}

// Rollback reverts a mutation whose server call failed.
func (c *Catalog) Rollback(mutationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[mutationID]
	if !ok {
		return apperr.NotFound("mutation %s not found", mutationID)
	}
	delete(c.pending, mutationID)

	switch p.kind {
	case mutationAdd:
		if i := c.indexLocked(p.tierID); i >= 0 {
			c.tiers = append(c.tiers[:i], c.tiers[i+1:]...)
			c.reselectLocked(p.tierID)
		}
	case mutationUpdate:
		if i := c.indexLocked(p.tierID); i >= 0 {
			c.tiers[i] = p.before
			c.refreshLocked(p.tierID, p.tierID)
		}
	case mutationRemove:
		if c.indexLocked(p.tierID) < 0 {
			c.tiers = append(c.tiers, p.before)
		}
		restored := cloneTier(p.before)
		for _, h := range p.moved {
			h.SelectTier(&restored)
		}
	}
	sortTiers(c.tiers)
	return nil
}

// Replace swaps in a server listing. It is refused while mutations are pending.
func (c *Catalog) Replace(tiers []domain.MembershipTier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) > 0 {
		return apperr.Conflict("tier changes are still being saved")
	}
	c.tiers = cloneTiers(tiers)
	sortTiers(c.tiers)
	for _, h := range c.holders {
		if id := h.SelectedTierID(); id != "" && c.indexLocked(id) < 0 {
			c.reselectLocked(id)
		}
	}
	return nil
}

// Validate checks the fields of a tier that do not depend on its siblings.
func Validate(t domain.MembershipTier) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validation("tier name is required")
	}
	if t.Level < 1 {
		return apperr.Validation("tier level must be at least 1")
	}
	if t.Price < 0 {
		return apperr.Validation("tier price cannot be negative")
	}
	if !t.BillingPeriod.Valid() {
		return apperr.Validation("unknown billing period %q", t.BillingPeriod)
	}
	for _, b := range t.Benefits {
		if strings.TrimSpace(b) == "" {
			return apperr.Validation("benefits cannot be blank")
		}
	}
	return nil
}

// checkLevelLocked rejects a level held by another tier or reserved by a
// pending update/remove that may still be rolled back.
func (c *Catalog) checkLevelLocked(level int, selfID string) error {
	for _, t := range c.tiers {
		if t.Level == level && t.ID != selfID {
			return apperr.Conflict("level %d is already used by tier %q", level, t.Name)
		}
	}
	for _, p := range c.pending {
		if p.kind == mutationAdd || p.tierID == selfID {
			continue
		}
		if p.before.Level == level {
			return apperr.Conflict("level %d is reserved by an unsaved change", level)
		}
	}
	return nil
}

func (c *Catalog) recordLocked(p *pending) Mutation {
	id := uuid.New().String()
	c.pending[id] = p
	return Mutation{ID: id, TierID: p.tierID}
}

// reselectLocked moves holders off tierID and returns the ones it moved.
func (c *Catalog) reselectLocked(tierID string) []SelectionHolder {
	var fallback *domain.MembershipTier
	if len(c.tiers) > 0 {
		lowest := cloneTier(c.tiers[0])
		fallback = &lowest
	}
	var moved []SelectionHolder
	for _, h := range c.holders {
		if h.SelectedTierID() == tierID {
			h.SelectTier(fallback)
			moved = append(moved, h)
		}
	}
	return moved
}

// refreshLocked points holders selecting oldID at the current state of tier newID.
func (c *Catalog) refreshLocked(oldID, newID string) {
	i := c.indexLocked(newID)
	if i < 0 {
		return
	}
	tier := cloneTier(c.tiers[i])
	for _, h := range c.holders {
		if h.SelectedTierID() == oldID {
			h.SelectTier(&tier)
		}
	}
}

func (c *Catalog) indexLocked(id string) int {
	for i, t := range c.tiers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func sortTiers(tiers []domain.MembershipTier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Level < tiers[j].Level
	})
}

func cloneTier(t domain.MembershipTier) domain.MembershipTier {
	t.Benefits = append([]string(nil), t.Benefits...)
	return t
}

func cloneTiers(tiers []domain.MembershipTier) []domain.MembershipTier {
	out := make([]domain.MembershipTier, len(tiers))
	for i, t := range tiers {
		out[i] = cloneTier(t)
	}
	return out
}
