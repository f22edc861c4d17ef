package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fanclub/pkg/apperr"
	"fanclub/pkg/cursor"
	"fanclub/pkg/domain"
	"fanclub/pkg/entitlement"
	"fanclub/pkg/feed"
	"fanclub/pkg/logger"
	"fanclub/pkg/queue"
	"fanclub/pkg/s3"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/repo/cache"
	"fanclub/services/creator/internal/repo/persistent"

	"github.com/google/uuid"
)

const maxImagesPerPosting = 10

type PostingUseCase interface {
	ListPostings(ctx context.Context, viewerID, creatorID, filter, after string, limit int) (feed.Page[entitlement.View], error)
	GetPosting(ctx context.Context, viewerID, postingID string) (entitlement.View, error)
	CreatePosting(ctx context.Context, creatorID string, in entity.NewPosting) (entitlement.View, error)
	DeletePosting(ctx context.Context, userID, postingID string) error
	Like(ctx context.Context, userID, postingID string) (entity.LikeState, error)
	Unlike(ctx context.Context, userID, postingID string) (entity.LikeState, error)
	RecordView(ctx context.Context, viewerKey, postingID string) error
	Purchase(ctx context.Context, userID, postingID string) (entitlement.View, error)
}

type postingUseCase struct {
	postingRepo    persistent.PostingRepository
	membershipRepo persistent.MembershipRepository
	storage        s3.Storage
	bucket         string
	publisher      queue.Publisher
	cache          cache.EntitlementCache
	ent            *entitlements
	logger         *logger.Logger
}

func NewPostingUseCase(
	postingRepo persistent.PostingRepository,
	membershipRepo persistent.MembershipRepository,
	storage s3.Storage,
	bucket string,
	publisher queue.Publisher,
	entCache cache.EntitlementCache,
	logger *logger.Logger,
) PostingUseCase {
	return &postingUseCase{
		postingRepo:    postingRepo,
		membershipRepo: membershipRepo,
		storage:        storage,
		bucket:         bucket,
		publisher:      publisher,
		cache:          entCache,
		ent:            &entitlements{repo: membershipRepo, cache: entCache, logger: logger},
		logger:         logger,
	}
}

func (uc *postingUseCase) ListPostings(ctx context.Context, viewerID, creatorID, filter, after string, limit int) (feed.Page[entitlement.View], error) {
	if filter == "" {
		filter = entity.FilterAll
	}
	if !entity.ValidFilter(filter) {
		return feed.Page[entitlement.View]{}, apperr.Validation("unknown filter %q", filter)
	}
	pos, err := cursor.Decode(after)
	if err != nil {
		return feed.Page[entitlement.View]{}, err
	}

	items, err := uc.postingRepo.List(ctx, entity.PostingQuery{CreatorID: creatorID, Filter: filter, After: pos, Limit: limit})
	if err != nil {
		return feed.Page[entitlement.View]{}, fmt.Errorf("failed to list postings: %w", err)
	}

	page := feed.Page[entitlement.View]{Items: []entitlement.View{}}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next := cursor.Encode(cursor.Position{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
		page.HasMore = true
	}

	viewer, err := uc.ent.load(ctx, viewerID)
	if err != nil {
		return feed.Page[entitlement.View]{}, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	liked, err := uc.postingRepo.LikedAmong(ctx, viewerID, ids)
	if err != nil {
		uc.logger.Warn("Failed to load likes for %s: %v", viewerID, err)
		liked = map[string]bool{}
	}

	for _, item := range items {
		v := uc.ent.view(item, viewer)
		v.IsLiked = liked[item.ID]
		page.Items = append(page.Items, v)
	}
	return page, nil
}

func (uc *postingUseCase) GetPosting(ctx context.Context, viewerID, postingID string) (entitlement.View, error) {
	item, err := uc.postingRepo.GetByID(ctx, postingID)
	if err != nil {
		return entitlement.View{}, fmt.Errorf("failed to get posting: %w", err)
	}
	return uc.viewOf(ctx, viewerID, *item)
}

func (uc *postingUseCase) viewOf(ctx context.Context, viewerID string, item domain.ContentItem) (entitlement.View, error) {
	viewer, err := uc.ent.load(ctx, viewerID)
	if err != nil {
		return entitlement.View{}, err
	}
	v := uc.ent.view(item, viewer)
	if viewerID != "" {
		liked, err := uc.postingRepo.LikedAmong(ctx, viewerID, []string{item.ID})
		if err == nil {
			v.IsLiked = liked[item.ID]
		}
	}
	return v, nil
}

func (uc *postingUseCase) CreatePosting(ctx context.Context, creatorID string, in entity.NewPosting) (entitlement.View, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return entitlement.View{}, apperr.Validation("title is required")
	}
	if len(in.Images) > maxImagesPerPosting {
		return entitlement.View{}, apperr.Validation("maximum %d images allowed per posting", maxImagesPerPosting)
	}
	if in.Price != nil && *in.Price <= 0 {
		return entitlement.View{}, apperr.Validation("price must be positive")
	}
	if in.MinLevel != nil {
		if *in.MinLevel < 1 {
			return entitlement.View{}, apperr.Validation("membership level must be at least 1")
		}
		exists, err := uc.membershipRepo.LevelExists(ctx, creatorID, *in.MinLevel)
		if err != nil {
			return entitlement.View{}, fmt.Errorf("failed to check tier level: %w", err)
		}
		if !exists {
			return entitlement.View{}, apperr.Validation("no membership tier with level %d", *in.MinLevel)
		}
	}

	imageURLs, err := uc.upload(ctx, creatorID, in.Images)
	if err != nil {
		return entitlement.View{}, err
	}

	item := &domain.ContentItem{
		AuthorID: creatorID,
		Title:    title,
		Gate:     domain.GateFromColumns(in.MinLevel, in.Price),
		Body:     domain.Body{Text: in.Text, ImageURLs: imageURLs},
	}
	if err := uc.postingRepo.Create(ctx, item); err != nil {
		uc.removeObjects(ctx, imageURLs)
		return entitlement.View{}, fmt.Errorf("failed to create posting: %w", err)
	}

	uc.logger.Info("Creator %s published posting %s (%s)", creatorID, item.ID, item.Gate.Tier())
	uc.publishNewPost(ctx, item)

	return uc.ent.view(*item, domain.ViewerEntitlement{ViewerID: creatorID}), nil
}

func (uc *postingUseCase) upload(ctx context.Context, creatorID string, files []entity.MediaFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if uc.storage == nil {
		return nil, apperr.Internal("media storage is not configured")
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("postings/%s/%s%s", creatorID, uuid.New().String(), strings.ToLower(filepath.Ext(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		url, err := uc.storage.Upload(ctx, key, f.Body, contentType)
		if err != nil {
			uc.removeObjects(ctx, urls)
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// removeObjects is best effort; orphaned objects are only a storage cost.
func (uc *postingUseCase) removeObjects(ctx context.Context, urls []string) {
	if uc.storage == nil {
		return
	}
	for _, u := range urls {
		key, ok := s3.KeyFromURL(u, uc.bucket)
		if !ok {
			continue
		}
		if err := uc.storage.Delete(ctx, key); err != nil {
			uc.logger.Warn("Failed to delete object %s: %v", key, err)
		}
	}
}

func (uc *postingUseCase) publishNewPost(ctx context.Context, item *domain.ContentItem) {
	if uc.publisher == nil {
		return
	}
	audience, err := uc.membershipRepo.AudienceOf(ctx, item.AuthorID)
	if err != nil {
		uc.logger.Error("Failed to resolve audience of %s: %v", item.AuthorID, err)
		return
	}
	if len(audience) == 0 {
		return
	}
	event := queue.Event{
		Type:       queue.EventNewPost,
		ActorID:    item.AuthorID,
		CreatorID:  item.AuthorID,
		PostingID:  item.ID,
		Title:      item.Title,
		Recipients: audience,
		Priority:   5,
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("Failed to publish new post %s: %v", item.ID, err)
	}
}

func (uc *postingUseCase) DeletePosting(ctx context.Context, userID, postingID string) error {
	item, err := uc.postingRepo.GetByID(ctx, postingID)
	if err != nil {
		return fmt.Errorf("failed to get posting: %w", err)
	}
	if item.AuthorID != userID {
		return apperr.Forbidden("you can only delete your own postings")
	}
	if err := uc.postingRepo.Delete(ctx, postingID); err != nil {
		return fmt.Errorf("failed to delete posting: %w", err)
	}
	uc.removeObjects(ctx, item.Body.ImageURLs)
	return nil
}

// viewable loads a posting and requires the user to be able to see it.
func (uc *postingUseCase) viewable(ctx context.Context, userID, postingID string) (*domain.ContentItem, error) {
	item, err := uc.postingRepo.GetByID(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	viewer, err := uc.ent.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !entitlement.Resolve(*item, viewer).CanView {
		return nil, apperr.Forbidden("this posting is locked")
	}
	return item, nil
}

func (uc *postingUseCase) Like(ctx context.Context, userID, postingID string) (entity.LikeState, error) {
	item, err := uc.viewable(ctx, userID, postingID)
	if err != nil {
		return entity.LikeState{}, err
	}
	count, err := uc.postingRepo.AddLike(ctx, userID, postingID)
	if err != nil {
		return entity.LikeState{}, fmt.Errorf("failed to like posting: %w", err)
	}

	if uc.publisher != nil && item.AuthorID != userID {
		event := queue.Event{
			Type:       queue.EventNewLike,
			ActorID:    userID,
			CreatorID:  item.AuthorID,
			PostingID:  item.ID,
			Title:      item.Title,
			Recipients: []string{item.AuthorID},
			Priority:   1,
		}
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("Failed to publish like on %s: %v", postingID, err)
		}
	}
	return entity.LikeState{PostingID: postingID, Liked: true, LikeCount: count}, nil
}

func (uc *postingUseCase) Unlike(ctx context.Context, userID, postingID string) (entity.LikeState, error) {
	if _, err := uc.postingRepo.GetByID(ctx, postingID); err != nil {
		return entity.LikeState{}, fmt.Errorf("failed to get posting: %w", err)
	}
	count, err := uc.postingRepo.RemoveLike(ctx, userID, postingID)
	if err != nil {
		return entity.LikeState{}, fmt.Errorf("failed to unlike posting: %w", err)
	}
	return entity.LikeState{PostingID: postingID, Liked: false, LikeCount: count}, nil
}

// RecordView counts a view once per viewer per hour. viewerKey is the user id or, for
// anonymous viewers, the client address.
func (uc *postingUseCase) RecordView(ctx context.Context, viewerKey, postingID string) error {
	first, err := uc.cache.FirstView(ctx, postingID, viewerKey)
	if err != nil {
		uc.logger.Warn("View dedupe failed for %s: %v", postingID, err)
		first = true
	}
	if !first {
		return nil
	}
	if err := uc.postingRepo.IncrementViews(ctx, postingID); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

func (uc *postingUseCase) Purchase(ctx context.Context, userID, postingID string) (entitlement.View, error) {
	item, err := uc.postingRepo.GetByID(ctx, postingID)
	if err != nil {
		return entitlement.View{}, fmt.Errorf("failed to get posting: %w", err)
	}
	if item.Gate.Purchase == nil {
		return entitlement.View{}, apperr.Validation("this posting cannot be purchased")
	}
	if item.AuthorID == userID {
		return entitlement.View{}, apperr.Validation("you cannot purchase your own posting")
	}

	if err := uc.postingRepo.CreatePurchase(ctx, userID, postingID, item.Gate.Price()); err != nil {
		return entitlement.View{}, fmt.Errorf("failed to purchase posting: %w", err)
	}
	uc.ent.invalidate(ctx, userID)
	uc.logger.Info("User %s purchased posting %s for %d", userID, postingID, item.Gate.Price())

	return uc.viewOf(ctx, userID, *item)
}
