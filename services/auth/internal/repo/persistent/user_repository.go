package persistent

import (
	"context"

	"fanclub/pkg/database"
	"fanclub/services/auth/internal/entity"
	"fanclub/services/auth/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	CountFollowers(ctx context.Context, creatorID string) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := ToUserModel(user)
	if userModel.ID == "" {
		userModel.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return database.Translate(err, "user")
	}
	*user = *ToUserEntity(userModel)
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&userModel).Error; err != nil {
		return nil, database.Translate(err, "user")
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error; err != nil {
		return nil, database.Translate(err, "user")
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserModel{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return database.Translate(r.db.WithContext(ctx).Save(ToUserModel(user)).Error, "user")
}

func (r *userRepository) CountFollowers(ctx context.Context, creatorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FollowModel{}).Where("creator_id = ?", creatorID).Count(&count).Error
	return count, err
}
