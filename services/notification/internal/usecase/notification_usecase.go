package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/cursor"
	"fanclub/pkg/domain"
	"fanclub/pkg/feed"
	"fanclub/pkg/logger"
	"fanclub/pkg/metrics"
	"fanclub/pkg/queue"
	"fanclub/services/notification/internal/entity"
	"fanclub/services/notification/internal/repo/cache"
	"fanclub/services/notification/internal/repo/persistent"
)

type NotificationUseCase interface {
	// HandleEvent stores one notification per recipient and pushes the new unread counts.
	HandleEvent(ctx context.Context, event queue.Event) error
	List(ctx context.Context, userID, after string, limit int) (feed.Page[domain.Notification], error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, upTo string) (int64, error)
	Muted(ctx context.Context, userID, creatorID string) (entity.MuteState, error)
	SetMuted(ctx context.Context, userID, creatorID string, muted bool) (entity.MuteState, error)
}

type notificationUseCase struct {
	userRepo persistent.UserRepository
	inbox    cache.Inbox
	logger   *logger.Logger
}

func NewNotificationUseCase(userRepo persistent.UserRepository, inbox cache.Inbox, logger *logger.Logger) NotificationUseCase {
	return &notificationUseCase{userRepo: userRepo, inbox: inbox, logger: logger}
}

func (uc *notificationUseCase) HandleEvent(ctx context.Context, event queue.Event) error {
	if len(event.Recipients) == 0 {
		uc.logger.Debug("Event %s has no recipients", event.Type)
		return nil
	}

	actor := uc.actorName(ctx, event)
	title, message, ok := describe(event, actor)
	if !ok {
		return fmt.Errorf("unknown notification type: %s", event.Type)
	}

	createdAt := event.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	data := eventData(event)

	var (
		stored  int
		lastErr error
	)
	for _, userID := range event.Recipients {
		if userID == event.ActorID {
			continue
		}
		if event.Type == queue.EventNewPost {
			muted, err := uc.inbox.Muted(ctx, userID, event.CreatorID)
			if err != nil {
				uc.logger.Warn("Failed to check notification settings for %s: %v (assuming enabled)", userID, err)
			} else if muted {
				continue
			}
		}

		n := &domain.Notification{
			UserID:    userID,
			Type:      event.Type,
			Title:     title,
			Message:   message,
			Data:      data,
			CreatedAt: createdAt,
		}
		unread, err := uc.inbox.Append(ctx, n)
		if err != nil {
			uc.logger.Error("Failed to store notification for %s: %v", userID, err)
			lastErr = err
			continue
		}
		stored++
		metrics.NotificationsStored.Inc()

		if err := uc.inbox.Publish(ctx, userID, entity.Push{UnreadCount: unread, Notification: n}); err != nil {
			uc.logger.Warn("Failed to push notification to %s: %v", userID, err)
		}
	}

	// A partial failure is not retried: redelivery would duplicate what was stored.
	if stored == 0 && lastErr != nil {
		return lastErr
	}
	uc.logger.Info("Stored %d %s notifications", stored, event.Type)
	return nil
}

func (uc *notificationUseCase) actorName(ctx context.Context, event queue.Event) string {
	if event.ActorName != "" {
		return event.ActorName
	}
	if event.ActorID == "" {
		return "Someone"
	}
	names, err := uc.userRepo.Usernames(ctx, []string{event.ActorID})
	if err != nil {
		uc.logger.Warn("Failed to get username of %s: %v", event.ActorID, err)
	}
	if name := names[event.ActorID]; name != "" {
		return name
	}
	return "Someone"
}

func describe(event queue.Event, actor string) (title, message string, ok bool) {
	switch event.Type {
	case queue.EventNewPost:
		return "New post", fmt.Sprintf("%s published %q", actor, event.Title), true
	case queue.EventNewLike:
		return "New like", fmt.Sprintf("%s liked %q", actor, event.Title), true
	case queue.EventNewSubscriber:
		return "New member", fmt.Sprintf("%s joined %s", actor, event.Title), true
	case queue.EventNewFollower:
		return "New follower", fmt.Sprintf("%s started following you", actor), true
	}
	return "", "", false
}

func eventData(event queue.Event) map[string]interface{} {
	data := map[string]interface{}{}
	for k, v := range map[string]string{
		"actor_id":   event.ActorID,
		"creator_id": event.CreatorID,
		"posting_id": event.PostingID,
		"tier_id":    event.TierID,
	} {
		if v != "" {
			data[k] = v
		}
	}
	return data
}

func (uc *notificationUseCase) List(ctx context.Context, userID, after string, limit int) (feed.Page[domain.Notification], error) {
	before, _, err := cursor.DecodeSeq(after)
	if err != nil {
		return feed.Page[domain.Notification]{}, err
	}

	items, err := uc.inbox.List(ctx, userID, before, limit+1)
	if err != nil {
		return feed.Page[domain.Notification]{}, err
	}

	page := feed.Page[domain.Notification]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last, err := strconv.ParseInt(page.Items[limit-1].ID, 10, 64)
		if err != nil {
			return feed.Page[domain.Notification]{}, fmt.Errorf("corrupt notification id %q: %w", page.Items[limit-1].ID, err)
		}
		next := cursor.EncodeSeq(last)
		page.NextCursor = &next
		page.HasMore = true
	}
	return page, nil
}

func (uc *notificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.inbox.UnreadCount(ctx, userID)
}

func (uc *notificationUseCase) MarkRead(ctx context.Context, userID, upTo string) (int64, error) {
	var seq int64
	if upTo != "" {
		n, err := strconv.ParseInt(upTo, 10, 64)
		if err != nil || n <= 0 {
			return 0, apperr.Validation("invalid notification id %q", upTo)
		}
		seq = n
	}

	unread, err := uc.inbox.MarkRead(ctx, userID, seq)
	if err != nil {
		return 0, err
	}
	if err := uc.inbox.Publish(ctx, userID, entity.Push{UnreadCount: unread}); err != nil {
		uc.logger.Warn("Failed to push unread count to %s: %v", userID, err)
	}
	return unread, nil
}

func (uc *notificationUseCase) Muted(ctx context.Context, userID, creatorID string) (entity.MuteState, error) {
	muted, err := uc.inbox.Muted(ctx, userID, creatorID)
	if err != nil {
		return entity.MuteState{}, err
	}
	return entity.MuteState{CreatorID: creatorID, Muted: muted}, nil
}

func (uc *notificationUseCase) SetMuted(ctx context.Context, userID, creatorID string, muted bool) (entity.MuteState, error) {
	if creatorID == "" {
		return entity.MuteState{}, apperr.Validation("creator ID is required")
	}
	if err := uc.inbox.SetMuted(ctx, userID, creatorID, muted); err != nil {
		return entity.MuteState{}, fmt.Errorf("failed to update notification settings: %w", err)
	}
	uc.logger.Info("User %s set muted=%t for creator %s", userID, muted, creatorID)
	return entity.MuteState{CreatorID: creatorID, Muted: muted}, nil
}
