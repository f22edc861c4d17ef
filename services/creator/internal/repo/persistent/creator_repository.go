package persistent

import (
	"context"

	"fanclub/pkg/cursor"
	"fanclub/pkg/database"
	"fanclub/pkg/domain"
	"fanclub/services/creator/internal/entity"
	"fanclub/services/creator/internal/model"

	"gorm.io/gorm"
)

const roleCreator = "creator"

type CreatorRepository interface {
	// List returns up to limit+1 creators, newest first, after the given position.
	List(ctx context.Context, viewerID string, after *cursor.Position, limit int) ([]entity.CreatorRow, error)
	Get(ctx context.Context, id string) (*domain.CreatorSummary, error)
	Follow(ctx context.Context, followerID, creatorID string) error
	Unfollow(ctx context.Context, followerID, creatorID string) error
	FollowerCount(ctx context.Context, creatorID string) (int64, error)
}

type creatorRepository struct {
	db *gorm.DB
}

func NewCreatorRepository(db *gorm.DB) CreatorRepository {
	return &creatorRepository{db: db}
}

type creatorRow struct {
	model.CreatorModel
	FollowerCount int64
	IsFollowing   bool
}

func (r *creatorRepository) selectCreators(ctx context.Context, viewerID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.CreatorModel{}).
		Select(`users.id, users.username, users.avatar_url, users.role, users.created_at,
			(SELECT COUNT(*) FROM follows f WHERE f.creator_id = users.id) AS follower_count,
			EXISTS (SELECT 1 FROM follows f WHERE f.creator_id = users.id AND f.follower_id = ?) AS is_following`,
			viewerID).
		Where("users.role = ?", roleCreator)
}

func (r *creatorRepository) List(ctx context.Context, viewerID string, after *cursor.Position, limit int) ([]entity.CreatorRow, error) {
	db := r.selectCreators(ctx, viewerID)
	if after != nil {
		db = db.Where("(users.created_at, users.id) < (?, ?)", after.CreatedAt, after.ID)
	}

	var rows []creatorRow
	if err := db.Order("users.created_at DESC, users.id DESC").Limit(limit + 1).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.CreatorRow, len(rows))
	for i, row := range rows {
		out[i] = entity.CreatorRow{
			CreatorSummary: domain.CreatorSummary{
				ID:            row.ID,
				Username:      row.Username,
				AvatarURL:     row.AvatarURL,
				FollowerCount: row.FollowerCount,
				IsFollowing:   row.IsFollowing,
			},
			CreatedAt: row.CreatedAt,
		}
	}
	return out, nil
}

func (r *creatorRepository) Get(ctx context.Context, id string) (*domain.CreatorSummary, error) {
	var m model.CreatorModel
	if err := r.db.WithContext(ctx).Where("id = ? AND role = ?", id, roleCreator).First(&m).Error; err != nil {
		return nil, database.Translate(err, "creator")
	}
	return &domain.CreatorSummary{ID: m.ID, Username: m.Username, AvatarURL: m.AvatarURL}, nil
}

// Follow is idempotent.
func (r *creatorRepository) Follow(ctx context.Context, followerID, creatorID string) error {
	err := r.db.WithContext(ctx).
		Where(model.FollowModel{FollowerID: followerID, CreatorID: creatorID}).
		FirstOrCreate(&model.FollowModel{FollowerID: followerID, CreatorID: creatorID}).Error
	return database.Translate(err, "follow")
}

func (r *creatorRepository) Unfollow(ctx context.Context, followerID, creatorID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND creator_id = ?", followerID, creatorID).
		Delete(&model.FollowModel{}).Error
}

func (r *creatorRepository) FollowerCount(ctx context.Context, creatorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FollowModel{}).Where("creator_id = ?", creatorID).Count(&count).Error
	return count, err
}
