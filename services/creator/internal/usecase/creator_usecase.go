package usecase

import (
	"context"
	"fmt"

	"fanclub/pkg/apperr"
	"fanclub/pkg/cursor"
	"fanclub/pkg/domain"
	"fanclub/pkg/feed"
	"fanclub/pkg/logger"
	"fanclub/pkg/queue"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/repo/persistent"
)

type CreatorUseCase interface {
	ListCreators(ctx context.Context, viewerID, after string, limit int) (feed.Page[domain.CreatorSummary], error)
	Follow(ctx context.Context, userID, creatorID string) (entity.FollowState, error)
	Unfollow(ctx context.Context, userID, creatorID string) (entity.FollowState, error)
}

type creatorUseCase struct {
	repo      persistent.CreatorRepository
	publisher queue.Publisher
	logger    *logger.Logger
}

func NewCreatorUseCase(repo persistent.CreatorRepository, publisher queue.Publisher, logger *logger.Logger) CreatorUseCase {
	return &creatorUseCase{repo: repo, publisher: publisher, logger: logger}
}

func (uc *creatorUseCase) ListCreators(ctx context.Context, viewerID, after string, limit int) (feed.Page[domain.CreatorSummary], error) {
	pos, err := cursor.Decode(after)
	if err != nil {
		return feed.Page[domain.CreatorSummary]{}, err
	}
	rows, err := uc.repo.List(ctx, viewerID, pos, limit)
	if err != nil {
		return feed.Page[domain.CreatorSummary]{}, fmt.Errorf("failed to list creators: %w", err)
	}

	page := feed.Page[domain.CreatorSummary]{Items: make([]domain.CreatorSummary, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next := cursor.Encode(cursor.Position{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
		page.HasMore = true
	}
	for _, row := range rows {
		page.Items = append(page.Items, row.CreatorSummary)
	}
	return page, nil
}

func (uc *creatorUseCase) Follow(ctx context.Context, userID, creatorID string) (entity.FollowState, error) {
	if userID == creatorID {
		return entity.FollowState{}, apperr.Validation("you cannot follow yourself")
	}
	if _, err := uc.repo.Get(ctx, creatorID); err != nil {
		return entity.FollowState{}, fmt.Errorf("failed to get creator: %w", err)
	}
	if err := uc.repo.Follow(ctx, userID, creatorID); err != nil {
		return entity.FollowState{}, fmt.Errorf("failed to follow: %w", err)
	}

	if uc.publisher != nil {
		event := queue.Event{
			Type:       queue.EventNewFollower,
			ActorID:    userID,
			CreatorID:  creatorID,
			Recipients: []string{creatorID},
			Priority:   3,
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("Failed to publish follow of %s: %v", creatorID, err)
		}
	}
	return uc.state(ctx, creatorID, true)
}

func (uc *creatorUseCase) Unfollow(ctx context.Context, userID, creatorID string) (entity.FollowState, error) {
	if err := uc.repo.Unfollow(ctx, userID, creatorID); err != nil {
		return entity.FollowState{}, fmt.Errorf("failed to unfollow: %w", err)
	}
	return uc.state(ctx, creatorID, false)
}

func (uc *creatorUseCase) state(ctx context.Context, creatorID string, following bool) (entity.FollowState, error) {
	count, err := uc.repo.FollowerCount(ctx, creatorID)
	if err != nil {
		return entity.FollowState{}, fmt.Errorf("failed to count followers: %w", err)
	}
	return entity.FollowState{CreatorID: creatorID, Following: following, FollowerCount: count}, nil
}
