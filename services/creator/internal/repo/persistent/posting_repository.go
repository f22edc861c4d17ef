package persistent

import (
	"context"

	"fanclub/pkg/database"
	"fanclub/pkg/domain"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/model"

	"gorm.io/gorm"
)

type PostingRepository interface {
	Create(ctx context.Context, item *domain.ContentItem) error
	GetByID(ctx context.Context, id string) (*domain.ContentItem, error)
	// List returns up to q.Limit+1 rows so the caller can tell whether another page exists.
	List(ctx context.Context, q entity.PostingQuery) ([]domain.ContentItem, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	AddLike(ctx context.Context, userID, postingID string) (int64, error)
	RemoveLike(ctx context.Context, userID, postingID string) (int64, error)
	LikedAmong(ctx context.Context, userID string, postingIDs []string) (map[string]bool, error)
	CreatePurchase(ctx context.Context, userID, postingID string, price int) error
}

type postingRepository struct {
	db *gorm.DB
}

func NewPostingRepository(db *gorm.DB) PostingRepository {
	return &postingRepository{db: db}
}

func (r *postingRepository) Create(ctx context.Context, item *domain.ContentItem) error {
	m := ToPostingModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return database.Translate(err, "posting")
	}
	*item = ToContentItem(m)
	return nil
}

func (r *postingRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	var m model.PostingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, database.Translate(err, "posting")
	}
	item := ToContentItem(&m)
	return &item, nil
}

func (r *postingRepository) List(ctx context.Context, q entity.PostingQuery) ([]domain.ContentItem, error) {
	db := r.db.WithContext(ctx).Model(&model.PostingModel{})
	if q.CreatorID != "" {
		db = db.Where("creator_id = ?", q.CreatorID)
	}
	switch q.Filter {
	case entity.FilterMembership:
		db = db.Where("min_level IS NOT NULL")
	case entity.FilterPurchase:
		db = db.Where("price IS NOT NULL")
	}
	if q.After != nil {
		db = db.Where("(created_at, id) < (?, ?)", q.After.CreatedAt, q.After.ID)
	}

	var rows []model.PostingModel
	if err := db.Order("created_at DESC, id DESC").Limit(q.Limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]domain.ContentItem, len(rows))
	for i := range rows {
		items[i] = ToContentItem(&rows[i])
	}
	return items, nil
}

func (r *postingRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PostingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.Translate(gorm.ErrRecordNotFound, "posting")
	}
	return nil
}

func (r *postingRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.PostingModel{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// AddLike is idempotent and returns the like count after the call.
func (r *postingRepository) AddLike(ctx context.Context, userID, postingID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(model.LikeModel{UserID: userID, PostingID: postingID}).
			FirstOrCreate(&model.LikeModel{UserID: userID, PostingID: postingID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&model.PostingModel{}).Where("id = ?", postingID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.PostingModel{}).Where("id = ?", postingID).
			Select("like_count").Scan(&count).Error
	})
	return count, err
}

func (r *postingRepository) RemoveLike(ctx context.Context, userID, postingID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND posting_id = ?", userID, postingID).Delete(&model.LikeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&model.PostingModel{}).Where("id = ? AND like_count > 0", postingID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.PostingModel{}).Where("id = ?", postingID).
			Select("like_count").Scan(&count).Error
	})
	return count, err
}

func (r *postingRepository) LikedAmong(ctx context.Context, userID string, postingIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postingIDs))
	if userID == "" || len(postingIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.LikeModel{}).
		Where("user_id = ? AND posting_id IN ?", userID, postingIDs).
		Pluck("posting_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *postingRepository) CreatePurchase(ctx context.Context, userID, postingID string, price int) error {
	err := r.db.WithContext(ctx).Create(&model.PurchaseModel{UserID: userID, PostingID: postingID, Price: price}).Error
	return database.Translate(err, "purchase")
}
