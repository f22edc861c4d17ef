package usecase

import (
	"context"
	"fmt"

	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/domain"
	"fanclub/pkg/logger"
	"fanclub/pkg/queue"
	"fanclub/services/creator/internal/repo/cache"
	"fanclub/services/creator/internal/repo/persistent"
)

type MembershipUseCase interface {
	ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error)
	CreateTier(ctx context.Context, creatorID string, draft catalog.TierDraft) (domain.MembershipTier, error)
	UpdateTier(ctx context.Context, creatorID, tierID string, patch catalog.TierPatch) (domain.MembershipTier, error)
	DeleteTier(ctx context.Context, creatorID, tierID string) error
	Subscribe(ctx context.Context, viewerID, tierID string) (domain.TierRef, error)
	Unsubscribe(ctx context.Context, viewerID, tierID string) error
	// Entitlements returns the viewer snapshot, limited to one creator's tiers when creatorID is set.
	Entitlements(ctx context.Context, viewerID, creatorID string) (domain.ViewerEntitlement, error)
}

type membershipUseCase struct {
	repo      persistent.MembershipRepository
	publisher queue.Publisher
	ent       *entitlements
	logger    *logger.Logger
}

func NewMembershipUseCase(
	repo persistent.MembershipRepository,
	publisher queue.Publisher,
	entCache cache.EntitlementCache,
	logger *logger.Logger,
) MembershipUseCase {
	return &membershipUseCase{
		repo:      repo,
		publisher: publisher,
		ent:       &entitlements{repo: repo, cache: entCache, logger: logger},
		logger:    logger,
	}
}

func (uc *membershipUseCase) ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error) {
	tiers, err := uc.repo.ListTiers(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

func (uc *membershipUseCase) CreateTier(ctx context.Context, creatorID string, draft catalog.TierDraft) (domain.MembershipTier, error) {
	if draft.BillingPeriod == "" {
		draft.BillingPeriod = domain.BillingMonthly
	}
	tier := domain.MembershipTier{
		CreatorID:     creatorID,
		Name:          draft.Name,
		Level:         draft.Level,
		Price:         draft.Price,
		BillingPeriod: draft.BillingPeriod,
		Benefits:      draft.Benefits,
	}
	if err := catalog.Validate(tier); err != nil {
		return domain.MembershipTier{}, err
	}
	if err := uc.repo.CreateTier(ctx, &tier); err != nil {
		return domain.MembershipTier{}, fmt.Errorf("failed to create tier: %w", err)
	}
	uc.logger.Info("Creator %s added tier %s at level %d", creatorID, tier.ID, tier.Level)
	return tier, nil
}

func (uc *membershipUseCase) ownedTier(ctx context.Context, creatorID, tierID string) (*domain.MembershipTier, error) {
	tier, err := uc.repo.GetTier(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	if tier.CreatorID != creatorID {
		return nil, apperr.Forbidden("you can only manage your own tiers")
	}
	return tier, nil
}

func (uc *membershipUseCase) UpdateTier(ctx context.Context, creatorID, tierID string, patch catalog.TierPatch) (domain.MembershipTier, error) {
	current, err := uc.ownedTier(ctx, creatorID, tierID)
	if err != nil {
		return domain.MembershipTier{}, err
	}
	updated := patch.Apply(*current)
	if err := catalog.Validate(updated); err != nil {
		return domain.MembershipTier{}, err
	}
	if err := uc.repo.UpdateTier(ctx, &updated); err != nil {
		return domain.MembershipTier{}, fmt.Errorf("failed to update tier: %w", err)
	}
	return updated, nil
}

func (uc *membershipUseCase) DeleteTier(ctx context.Context, creatorID, tierID string) error {
	if _, err := uc.ownedTier(ctx, creatorID, tierID); err != nil {
		return err
	}
	if err := uc.repo.DeleteTier(ctx, tierID); err != nil {
		return fmt.Errorf("failed to delete tier: %w", err)
	}
	uc.logger.Info("Creator %s removed tier %s", creatorID, tierID)
	return nil
}

func (uc *membershipUseCase) Subscribe(ctx context.Context, viewerID, tierID string) (domain.TierRef, error) {
	tier, err := uc.repo.GetTier(ctx, tierID)
	if err != nil {
		return domain.TierRef{}, fmt.Errorf("failed to get tier: %w", err)
	}
	if tier.CreatorID == viewerID {
		return domain.TierRef{}, apperr.Validation("you cannot subscribe to your own tier")
	}

	ref, err := uc.repo.Subscribe(ctx, viewerID, tier)
	if err != nil {
		return domain.TierRef{}, fmt.Errorf("failed to subscribe: %w", err)
	}
	uc.ent.invalidate(ctx, viewerID)

	if uc.publisher != nil {
		event := queue.Event{
			Type:       queue.EventNewSubscriber,
			ActorID:    viewerID,
			CreatorID:  tier.CreatorID,
			TierID:     tier.ID,
			Title:      tier.Name,
			Recipients: []string{tier.CreatorID},
			Priority:   8,
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("Failed to publish subscription to %s: %v", tier.ID, err)
		}
	}
	return ref, nil
}

func (uc *membershipUseCase) Unsubscribe(ctx context.Context, viewerID, tierID string) error {
	if err := uc.repo.Unsubscribe(ctx, viewerID, tierID); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	uc.ent.invalidate(ctx, viewerID)
	return nil
}

func (uc *membershipUseCase) Entitlements(ctx context.Context, viewerID, creatorID string) (domain.ViewerEntitlement, error) {
	ent, err := uc.ent.load(ctx, viewerID)
	if err != nil {
		return domain.ViewerEntitlement{}, err
	}
	if creatorID == "" {
		return ent, nil
	}
	filtered := ent
	filtered.Tiers = make([]domain.TierRef, 0, len(ent.Tiers))
	for _, t := range ent.Tiers {
		if t.CreatorID == creatorID {
			filtered.Tiers = append(filtered.Tiers, t)
		}
	}
	return filtered, nil
}
