package composer

import (
	"testing"

	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/domain"
	"fanclub/pkg/entitlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creatorCatalog() *catalog.Catalog {
	return catalog.New("c1", []domain.MembershipTier{
		{ID: "t1", CreatorID: "c1", Name: "Supporter", Level: 1, BillingPeriod: domain.BillingMonthly},
		{ID: "t2", CreatorID: "c1", Name: "Fan", Level: 2, BillingPeriod: domain.BillingMonthly},
		{ID: "t3", CreatorID: "c1", Name: "Superfan", Level: 3, BillingPeriod: domain.BillingMonthly},
	})
}

func TestDraft_StartsPublic(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, ModePublic, d.Mode())
	assert.True(t, d.Gate().IsPublic())
	assert.Empty(t, d.SelectedTierID())
}

func TestDraft_GateCombinations(t *testing.T) {
	tier := domain.MembershipTier{ID: "t2", Level: 2}

	tests := []struct {
		name     string
		gated    bool
		purchase bool
		want     domain.Gate
	}{
		{"public", false, false, domain.Public()},
		{"gated", true, false, domain.Membership(2)},
		{"purchase only", false, true, domain.Purchase(500)},
		{"gated or purchase", true, true, domain.MembershipOrPurchase(2, 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			if tt.gated {
				require.NoError(t, d.RequireTier(tier))
			}
			if tt.purchase {
				require.NoError(t, d.AllowPurchase(500))
			}
			assert.Equal(t, tt.want, d.Gate())
		})
	}
}

func TestDraft_ToggleMembership(t *testing.T) {
	cat := creatorCatalog()
	d := NewDraft()

	require.NoError(t, d.ToggleMembership(cat))
	assert.Equal(t, ModeMembershipGated, d.Mode())
	assert.Equal(t, 1, d.MinLevel())

	// level may change while gated
	tier, _ := cat.ByLevel(3)
	require.NoError(t, d.RequireTier(tier))
	assert.Equal(t, 3, d.MinLevel())

	require.NoError(t, d.ToggleMembership(cat))
	assert.Equal(t, ModePublic, d.Mode())
	assert.Zero(t, d.MinLevel())
}

func TestDraft_ToggleWithoutTiers(t *testing.T) {
	d := NewDraft()
	err := d.ToggleMembership(catalog.New("c1", nil))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, ModePublic, d.Mode())
}

func TestDraft_MakePublicKeepsPurchase(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.RequireTier(domain.MembershipTier{ID: "t1", Level: 1}))
	require.NoError(t, d.AllowPurchase(1000))

	d.MakePublic()
	assert.Equal(t, domain.Purchase(1000), d.Gate())

	d.DisallowPurchase()
	assert.True(t, d.Gate().IsPublic())
}

func TestDraft_RejectsBadInput(t *testing.T) {
	d := NewDraft()
	assert.True(t, apperr.IsKind(d.AllowPurchase(0), apperr.KindValidation))
	assert.True(t, apperr.IsKind(d.RequireTier(domain.MembershipTier{ID: "x"}), apperr.KindValidation))
	assert.False(t, d.PurchaseAllowed())
}

func TestDraft_RemovingSelectedTierFallsBack(t *testing.T) {
	cat := creatorCatalog()
	d := NewDraft()
	cat.Watch(d)
	tier, _ := cat.Get("t2")
	require.NoError(t, d.RequireTier(tier))

	_, err := cat.Remove("t2")
	require.NoError(t, err)

	assert.Equal(t, "t1", d.SelectedTierID())
	assert.Equal(t, 1, d.MinLevel())
	assert.Equal(t, ModeMembershipGated, d.Mode())
}

func TestDraft_RemovingAllTiersClearsRestriction(t *testing.T) {
	cat := catalog.New("c1", []domain.MembershipTier{
		{ID: "t1", Name: "Only", Level: 1, BillingPeriod: domain.BillingMonthly},
	})
	d := NewDraft()
	cat.Watch(d)
	require.NoError(t, d.ToggleMembership(cat))
	require.NoError(t, d.AllowPurchase(300))

	_, err := cat.Remove("t1")
	require.NoError(t, err)

	assert.Equal(t, ModePublic, d.Mode())
	assert.Equal(t, domain.Purchase(300), d.Gate())
}

func TestDraft_Validate(t *testing.T) {
	cat := creatorCatalog()

	d := NewDraft()
	assert.True(t, apperr.IsKind(d.Validate(cat), apperr.KindValidation))

	d.SetContent("Behind the scenes", "long text")
	require.NoError(t, d.Validate(cat))

	tier, _ := cat.Get("t3")
	require.NoError(t, d.RequireTier(tier))
	require.NoError(t, d.Validate(cat))

	// another editor removed the tier without this draft watching
	_, err := cat.Remove("t3")
	require.NoError(t, err)
	assert.True(t, apperr.IsKind(d.Validate(cat), apperr.KindNotFound))
}

func TestDraft_ValidateRejectsUnsavedTier(t *testing.T) {
	cat := creatorCatalog()
	m, err := cat.Add(catalog.TierDraft{Name: "New", Level: 4})
	require.NoError(t, err)
	tier, _ := cat.Get(m.TierID)

	d := NewDraft()
	d.SetContent("title", "")
	require.NoError(t, d.RequireTier(tier))
	assert.True(t, apperr.IsKind(d.Validate(cat), apperr.KindValidation))
}

func TestDraft_GateMatchesResolver(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.RequireTier(domain.MembershipTier{ID: "t2", Level: 2}))
	require.NoError(t, d.AllowPurchase(500))

	item := domain.ContentItem{ID: "p1", AuthorID: "c1", Gate: d.Gate(), Body: domain.Body{Text: "hello"}}

	fan := domain.ViewerEntitlement{ViewerID: "v1", Tiers: []domain.TierRef{{TierID: "t2", CreatorID: "c1", Level: 2}}}
	assert.True(t, entitlement.Resolve(item, fan).CanView)

	buyer := domain.ViewerEntitlement{ViewerID: "v2"}.WithPurchases("p1")
	assert.True(t, entitlement.Resolve(item, buyer).CanView)

	stranger := domain.ViewerEntitlement{ViewerID: "v3"}
	decision := entitlement.Resolve(item, stranger)
	assert.False(t, decision.CanView)
	assert.Equal(t, entitlement.ReasonPurchaseRequired, decision.Reason)
}
