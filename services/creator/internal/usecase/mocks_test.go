package usecase

import (
	"context"
	"io"
	"sync"

	"fanclub/pkg/cursor"
	"fanclub/pkg/domain"
	"fanclub/pkg/queue"
	"fanclub/services/creator/internal/entity"

	"github.com/stretchr/testify/mock"
)

type MockPostingRepository struct {
	mock.Mock
}

func (m *MockPostingRepository) Create(ctx context.Context, item *domain.ContentItem) error {
	args := m.Called(item)
	if args.Error(0) == nil && item.ID == "" {
		item.ID = "p-new"
	}
	return args.Error(0)
}

func (m *MockPostingRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentItem), args.Error(1)
}

func (m *MockPostingRepository) List(ctx context.Context, q entity.PostingQuery) ([]domain.ContentItem, error) {
	args := m.Called(q)
	return args.Get(0).([]domain.ContentItem), args.Error(1)
}

func (m *MockPostingRepository) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockPostingRepository) IncrementViews(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockPostingRepository) AddLike(ctx context.Context, userID, postingID string) (int64, error) {
	args := m.Called(userID, postingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostingRepository) RemoveLike(ctx context.Context, userID, postingID string) (int64, error) {
	args := m.Called(userID, postingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostingRepository) LikedAmong(ctx context.Context, userID string, postingIDs []string) (map[string]bool, error) {
	args := m.Called(userID, postingIDs)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockPostingRepository) CreatePurchase(ctx context.Context, userID, postingID string, price int) error {
	return m.Called(userID, postingID, price).Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) ListTiers(ctx context.Context, creatorID string) ([]domain.MembershipTier, error) {
	args := m.Called(creatorID)
	return args.Get(0).([]domain.MembershipTier), args.Error(1)
}

func (m *MockMembershipRepository) GetTier(ctx context.Context, id string) (*domain.MembershipTier, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipTier), args.Error(1)
}

func (m *MockMembershipRepository) CreateTier(ctx context.Context, tier *domain.MembershipTier) error {
	args := m.Called(tier)
	if args.Error(0) == nil {
		tier.ID = "t-new"
	}
	return args.Error(0)
}

func (m *MockMembershipRepository) UpdateTier(ctx context.Context, tier *domain.MembershipTier) error {
	return m.Called(tier).Error(0)
}

func (m *MockMembershipRepository) DeleteTier(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockMembershipRepository) LevelExists(ctx context.Context, creatorID string, level int) (bool, error) {
	args := m.Called(creatorID, level)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) Subscribe(ctx context.Context, viewerID string, tier *domain.MembershipTier) (domain.TierRef, error) {
	args := m.Called(viewerID, tier.ID)
	return args.Get(0).(domain.TierRef), args.Error(1)
}

func (m *MockMembershipRepository) Unsubscribe(ctx context.Context, viewerID, tierID string) error {
	return m.Called(viewerID, tierID).Error(0)
}

func (m *MockMembershipRepository) SubscriptionsOf(ctx context.Context, viewerID string) ([]domain.TierRef, error) {
	args := m.Called(viewerID)
	return args.Get(0).([]domain.TierRef), args.Error(1)
}

func (m *MockMembershipRepository) PurchasesOf(ctx context.Context, viewerID string) ([]string, error) {
	args := m.Called(viewerID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMembershipRepository) AudienceOf(ctx context.Context, creatorID string) ([]string, error) {
	args := m.Called(creatorID)
	return args.Get(0).([]string), args.Error(1)
}

type MockCreatorRepository struct {
	mock.Mock
}

func (m *MockCreatorRepository) List(ctx context.Context, viewerID string, after *cursor.Position, limit int) ([]entity.CreatorRow, error) {
	args := m.Called(viewerID, after, limit)
	return args.Get(0).([]entity.CreatorRow), args.Error(1)
}

func (m *MockCreatorRepository) Get(ctx context.Context, id string) (*domain.CreatorSummary, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatorSummary), args.Error(1)
}

func (m *MockCreatorRepository) Follow(ctx context.Context, followerID, creatorID string) error {
	return m.Called(followerID, creatorID).Error(0)
}

func (m *MockCreatorRepository) Unfollow(ctx context.Context, followerID, creatorID string) error {
	return m.Called(followerID, creatorID).Error(0)
}

func (m *MockCreatorRepository) FollowerCount(ctx context.Context, creatorID string) (int64, error) {
	args := m.Called(creatorID)
	return args.Get(0).(int64), args.Error(1)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *fakePublisher) Publish(_ context.Context, event queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Events() []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Event(nil), p.events...)
}

type fakeStorage struct {
	uploaded []string
	deleted  []string
}

func (s *fakeStorage) Upload(_ context.Context, key string, _ io.ReadSeeker, _ string) (string, error) {
	s.uploaded = append(s.uploaded, key)
	return "http://minio:9000/fanclub-content/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}
