package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/jwt"
	"fanclub/pkg/logger"
	"fanclub/pkg/s3"
	"fanclub/services/auth/internal/entity"
	"fanclub/services/auth/internal/repo/persistent"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionRevoker forgets a session token before it expires.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type AuthUseCase interface {
	Register(ctx context.Context, email, username, password string, role entity.UserRole) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	UploadAvatar(ctx context.Context, userID string, body io.ReadSeeker, ext, contentType string) (*entity.User, error)
	SessionTTL() time.Duration
}

type authUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	storage    s3.Storage
	revoker    SessionRevoker
	logger     *logger.Logger
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	jwtService *jwt.Service,
	storage s3.Storage,
	revoker SessionRevoker,
	logger *logger.Logger,
) AuthUseCase {
	return &authUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		storage:    storage,
		revoker:    revoker,
		logger:     logger,
	}
}

func (uc *authUseCase) SessionTTL() time.Duration {
	return uc.jwtService.TTL()
}

func (uc *authUseCase) Register(ctx context.Context, email, username, password string, role entity.UserRole) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if role == "" {
		role = entity.RoleViewer
	}
	if !role.Valid() {
		return nil, "", apperr.Validation("unknown role %q", role)
	}

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", apperr.Conflict("user with this email already exists")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	taken, err := uc.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, "", apperr.Conflict("username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, "", apperr.Internal("failed to process registration")
	}

	user := &entity.User{
		Email:    email,
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := uc.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", apperr.Internal("failed to generate token")
	}

	uc.logger.Info("Registered %s %s", user.Role, user.ID)
	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, "", apperr.AuthRequired("invalid credentials")
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperr.AuthRequired("invalid credentials")
	}

	token, err := uc.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", apperr.Internal("failed to generate token")
	}

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Logout(ctx context.Context, token string) error {
	if token == "" || uc.revoker == nil {
		return nil
	}
	if err := uc.revoker.Revoke(ctx, token, uc.jwtService.TTL()); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

func (uc *authUseCase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role == entity.RoleCreator {
		count, err := uc.userRepo.CountFollowers(ctx, userID)
		if err != nil {
			uc.logger.Warn("Failed to count followers of %s: %v", userID, err)
		}
		user.FollowerCount = count
	}
	user.Password = ""
	return user, nil
}

func (uc *authUseCase) UploadAvatar(ctx context.Context, userID string, body io.ReadSeeker, ext, contentType string) (*entity.User, error) {
	if uc.storage == nil {
		return nil, apperr.Internal("media storage is not configured")
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), ext)
	avatarURL, err := uc.storage.Upload(ctx, key, body, contentType)
	if err != nil {
		uc.logger.Error("Failed to upload avatar: %v", err)
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	user.AvatarURL = avatarURL
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}
