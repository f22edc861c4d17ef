package persistent

import (
	"fanclub/pkg/domain"
	"fanclub/services/creator/internal/model"
)

func ToContentItem(m *model.PostingModel) domain.ContentItem {
	return domain.ContentItem{
		ID:       m.ID,
		AuthorID: m.CreatorID,
		Title:    m.Title,
		Gate:     domain.GateFromColumns(m.MinLevel, m.Price),
		Counters: domain.Counters{
			Views:    m.ViewCount,
			Likes:    m.LikeCount,
			Comments: m.CommentCount,
		},
		Body: domain.Body{
			Text:      m.Text,
			ImageURLs: []string(m.ImageURLs),
			VideoURLs: []string(m.VideoURLs),
		},
		CreatedAt: m.CreatedAt,
	}
}

func ToPostingModel(item *domain.ContentItem) *model.PostingModel {
	minLevel, price := item.Gate.Columns()
	return &model.PostingModel{
		ID:           item.ID,
		CreatorID:    item.AuthorID,
		Title:        item.Title,
		Text:         item.Body.Text,
		ImageURLs:    nonNil(item.Body.ImageURLs),
		VideoURLs:    nonNil(item.Body.VideoURLs),
		MinLevel:     minLevel,
		Price:        price,
		ViewCount:    item.Counters.Views,
		LikeCount:    item.Counters.Likes,
		CommentCount: item.Counters.Comments,
		CreatedAt:    item.CreatedAt,
	}
}

func ToTier(m *model.TierModel) domain.MembershipTier {
	return domain.MembershipTier{
		ID:            m.ID,
		CreatorID:     m.CreatorID,
		Name:          m.Name,
		Level:         m.Level,
		Price:         m.Price,
		BillingPeriod: domain.BillingPeriod(m.BillingPeriod),
		Benefits:      nonNil([]string(m.Benefits)),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToTierModel(t *domain.MembershipTier) *model.TierModel {
	return &model.TierModel{
		ID:            t.ID,
		CreatorID:     t.CreatorID,
		Name:          t.Name,
		Level:         t.Level,
		Price:         t.Price,
		BillingPeriod: string(t.BillingPeriod),
		Benefits:      nonNil(t.Benefits),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func ToTierRef(m *model.SubscriptionModel) domain.TierRef {
	return domain.TierRef{TierID: m.TierID, CreatorID: m.CreatorID, Level: m.Level}
}

// jsonb columns are NOT NULL; store [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
