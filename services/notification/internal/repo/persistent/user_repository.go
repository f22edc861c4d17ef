package persistent

import (
	"context"

	"fanclub/services/notification/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	// Usernames maps user ids to usernames. Unknown ids are absent from the result.
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []model.UserModel
	if err := r.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Username
	}
	return names, nil
}
