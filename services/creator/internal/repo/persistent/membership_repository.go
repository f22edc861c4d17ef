package persistent

import (
	"context"

	"fanclub/pkg/database"
	"fanclub/pkg/domain"
	"fanclub/services/creator/internal/model"

	"gorm.io/gorm"
)

type MembershipRepository interface {
	ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error)
	GetTier(ctx context.Context, id string) (*domain.MembershipTier, error)
	CreateTier(ctx context.Context, tier *domain.MembershipTier) error
	UpdateTier(ctx context.Context, tier *domain.MembershipTier) error
	DeleteTier(ctx context.Context, id string) error
	LevelExists(ctx context.Context, creatorID string, level int) (bool, error)

	Subscribe(ctx context.Context, viewerID string, tier *domain.MembershipTier) (domain.TierRef, error)
	Unsubscribe(ctx context.Context, viewerID, tierID string) error
	SubscriptionsOf(ctx context.Context, viewerID string) ([]domain.TierRef, error)
	PurchasesOf(ctx context.Context, viewerID string) ([]string, error)
	// AudienceOf lists followers and subscribers of a creator, without duplicates.
	AudienceOf(ctx context.Context, creatorID string) ([]string, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error) {
	var rows []model.TierModel
	if err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).Order("level ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	tiers := make([]domain.MembershipTier, len(rows))
	for i := range rows {
		tiers[i] = ToTier(&rows[i])
	}
	return tiers, nil
}

func (r *membershipRepository) GetTier(ctx context.Context, id string) (*domain.MembershipTier, error) {
	var m model.TierModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, database.Translate(err, "tier")
	}
	tier := ToTier(&m)
	return &tier, nil
}

func (r *membershipRepository) CreateTier(ctx context.Context, tier *domain.MembershipTier) error {
	m := ToTierModel(tier)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return database.Translate(err, "tier with this level")
	}
	*tier = ToTier(m)
	return nil
}

func (r *membershipRepository) UpdateTier(ctx context.Context, tier *domain.MembershipTier) error {
	m := ToTierModel(tier)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return database.Translate(err, "tier with this level")
	}
	*tier = ToTier(m)
	return nil
}

// DeleteTier leaves existing subscriptions in place; their level snapshot keeps granting access.
func (r *membershipRepository) DeleteTier(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TierModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.Translate(gorm.ErrRecordNotFound, "tier")
	}
	return nil
}

func (r *membershipRepository) LevelExists(ctx context.Context, creatorID string, level int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TierModel{}).
		Where("creator_id = ? AND level = ?", creatorID, level).
		Count(&count).Error
	return count > 0, err
}

func (r *membershipRepository) Subscribe(ctx context.Context, viewerID string, tier *domain.MembershipTier) (domain.TierRef, error) {
	m := &model.SubscriptionModel{
		ViewerID:  viewerID,
		CreatorID: tier.CreatorID,
		TierID:    tier.ID,
		Level:     tier.Level,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return domain.TierRef{}, database.Translate(err, "subscription")
	}
	return ToTierRef(m), nil
}

func (r *membershipRepository) Unsubscribe(ctx context.Context, viewerID, tierID string) error {
	res := r.db.WithContext(ctx).Where("viewer_id = ? AND tier_id = ?", viewerID, tierID).Delete(&model.SubscriptionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.Translate(gorm.ErrRecordNotFound, "subscription")
	}
	return nil
}

func (r *membershipRepository) SubscriptionsOf(ctx context.Context, viewerID string) ([]domain.TierRef, error) {
	var rows []model.SubscriptionModel
	if err := r.db.WithContext(ctx).Where("viewer_id = ?", viewerID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make([]domain.TierRef, len(rows))
	for i := range rows {
		refs[i] = ToTierRef(&rows[i])
	}
	return refs, nil
}

func (r *membershipRepository) PurchasesOf(ctx context.Context, viewerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.PurchaseModel{}).
		Where("user_id = ?", viewerID).
		Pluck("posting_id", &ids).Error
	return ids, err
}

func (r *membershipRepository) AudienceOf(ctx context.Context, creatorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT follower_id FROM follows WHERE creator_id = ?
		 UNION
		 SELECT viewer_id FROM subscriptions WHERE creator_id = ?`,
		creatorID, creatorID,
	).Scan(&ids).Error
	return ids, err
}
