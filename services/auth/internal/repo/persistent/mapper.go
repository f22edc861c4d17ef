package persistent

import (
	"fanclub/services/auth/internal/entity"
	"fanclub/services/auth/internal/model"
)

func ToUserEntity(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:        m.ID,
		Email:     m.Email,
		Username:  m.Username,
		Password:  m.PasswordHash,
		AvatarURL: m.AvatarURL,
		Bio:       m.Bio,
		Role:      entity.UserRole(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *model.UserModel {
	if e == nil {
		return nil
	}

	return &model.UserModel{
		ID:           e.ID,
		Email:        e.Email,
		Username:     e.Username,
		PasswordHash: e.Password,
		AvatarURL:    e.AvatarURL,
		Bio:          e.Bio,
		Role:         string(e.Role),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
