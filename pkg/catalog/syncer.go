package catalog

import (
	"context"
	"fmt"

	"fanclub/pkg/domain"
	"fanclub/pkg/logger"
)

// TierAPI is the server side of a catalog.
type TierAPI interface {
	ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error)
	CreateTier(ctx context.Context, draft TierDraft) (domain.MembershipTier, error)
	UpdateTier(ctx context.Context, id string, patch TierPatch) (domain.MembershipTier, error)
	DeleteTier(ctx context.Context, id string) error
}

// Syncer applies catalog changes locally first and then settles them with the
// server. A failed call rolls the local change back and returns the error.
type Syncer struct {
	catalog *Catalog
	api     TierAPI
	logger  *logger.Logger
}

func NewSyncer(catalog *Catalog, api TierAPI, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Syncer{catalog: catalog, api: api, logger: log}
}

func (s *Syncer) Catalog() *Catalog {
	return s.catalog
}

// Load replaces the local list with the server's.
func (s *Syncer) Load(ctx context.Context) error {
	tiers, err := s.api.ListTiers(ctx, s.catalog.CreatorID())
	if err != nil {
		return fmt.Errorf("failed to load tiers: %w", err)
	}
	return s.catalog.Replace(tiers)
}

func (s *Syncer) Add(ctx context.Context, draft TierDraft) (domain.MembershipTier, error) {
	m, err := s.catalog.Add(draft)
	if err != nil {
		return domain.MembershipTier{}, err
	}
	tier, err := s.api.CreateTier(ctx, draft)
	if err != nil {
		s.rollback(m, "add")
		return domain.MembershipTier{}, fmt.Errorf("failed to create tier: %w", err)
	}
	if err := s.catalog.Confirm(m.ID, &tier); err != nil {
		return domain.MembershipTier{}, err
	}
	return tier, nil
}

func (s *Syncer) Update(ctx context.Context, id string, patch TierPatch) (domain.MembershipTier, error) {
	m, err := s.catalog.Update(id, patch)
	if err != nil {
		return domain.MembershipTier{}, err
	}
	tier, err := s.api.UpdateTier(ctx, id, patch)
	if err != nil {
		s.rollback(m, "update")
		return domain.MembershipTier{}, fmt.Errorf("failed to update tier: %w", err)
	}
	if err := s.catalog.Confirm(m.ID, &tier); err != nil {
		return domain.MembershipTier{}, err
	}
	return tier, nil
}

func (s *Syncer) Remove(ctx context.Context, id string) error {
	m, err := s.catalog.Remove(id)
	if err != nil {
		return err
	}
	if err := s.api.DeleteTier(ctx, id); err != nil {
		s.rollback(m, "remove")
		return fmt.Errorf("failed to delete tier: %w", err)
	}
	return s.catalog.Confirm(m.ID, nil)
}

func (s *Syncer) rollback(m Mutation, op string) {
	if err := s.catalog.Rollback(m.ID); err != nil {
		s.logger.Error("Failed to roll back tier %s of %s: %v", op, m.TierID, err)
		return
	}
	s.logger.Warn("Rolled back tier %s of %s", op, m.TierID)
}
