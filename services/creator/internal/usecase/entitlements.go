package usecase

import (
	"context"
	"fmt"

	"fanclub/pkg/domain"
	"fanclub/pkg/entitlement"
	"fanclub/pkg/logger"
	"fanclub/pkg/metrics"
	"fanclub/services/creator/internal/repo/cache"
	"fanclub/services/creator/internal/repo/persistent"
)

// entitlements loads viewer snapshots through the cache and resolves items against them.
type entitlements struct {
	repo   persistent.MembershipRepository
	cache  cache.EntitlementCache
	logger *logger.Logger
}

func (e *entitlements) load(ctx context.Context, viewerID string) (domain.ViewerEntitlement, error) {
	if viewerID == "" {
		return domain.Anonymous(), nil
	}

	cached, err := e.cache.Get(ctx, viewerID)
	if err != nil {
		e.logger.Warn("Entitlement cache read failed for %s: %v", viewerID, err)
	}
	if cached != nil {
		return *cached, nil
	}

	version, err := e.cache.Version(ctx, viewerID)
	cacheable := err == nil
	if err != nil {
		e.logger.Warn("Entitlement version read failed for %s: %v", viewerID, err)
	}

	tiers, err := e.repo.SubscriptionsOf(ctx, viewerID)
	if err != nil {
		return domain.ViewerEntitlement{}, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	purchases, err := e.repo.PurchasesOf(ctx, viewerID)
	if err != nil {
		return domain.ViewerEntitlement{}, fmt.Errorf("failed to load purchases: %w", err)
	}

	ent := domain.ViewerEntitlement{ViewerID: viewerID, Tiers: tiers}.WithPurchases(purchases...)
	if cacheable {
		if err := e.cache.Set(ctx, ent, version); err != nil {
			e.logger.Warn("Entitlement cache write failed for %s: %v", viewerID, err)
		}
	}
	return ent, nil
}

func (e *entitlements) invalidate(ctx context.Context, viewerID string) {
	if err := e.cache.Invalidate(ctx, viewerID); err != nil {
		e.logger.Warn("Entitlement cache invalidation failed for %s: %v", viewerID, err)
	}
}

// view resolves and redacts one item, counting the decision.
func (e *entitlements) view(item domain.ContentItem, viewer domain.ViewerEntitlement) entitlement.View {
	d := entitlement.Resolve(item, viewer)
	metrics.EntitlementDecisions.WithLabelValues(string(d.Reason)).Inc()
	return entitlement.Redact(item, d)
}
