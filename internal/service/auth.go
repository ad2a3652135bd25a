package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/minsu-kang/taskhub-api/internal/model"
	"github.com/minsu-kang/taskhub-api/internal/repository"
	"github.com/minsu-kang/taskhub-api/internal/storage"
)

const minPasswordLength = 6

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

// AuthService handles registration, login, and profile management.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	avatars  storage.AvatarStore
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, avatars storage.AvatarStore) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		avatars:  avatars,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput is the payload returned by register and login: the user's
// public identity plus a fresh bearer token.
type AuthOutput struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type UpdateProfileInput struct {
	Name *string
	// Avatar is an optional replacement image; ContentType must be set when
	// Avatar is non-nil.
	Avatar      io.Reader
	ContentType string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthOutput, error) {
	if input.Name == "" {
		return AuthOutput{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Email == "" {
		return AuthOutput{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return AuthOutput{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthOutput{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return AuthOutput{}, ErrEmailTaken
		}
		return AuthOutput{}, fmt.Errorf("failed to create user: %w", err)
	}

	return s.withToken(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthOutput, error) {
	if input.Email == "" || input.Password == "" {
		return AuthOutput{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthOutput{}, ErrInvalidCredentials
		}
		return AuthOutput{}, fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return AuthOutput{}, ErrInvalidCredentials
	}

	return s.withToken(user)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (model.User, error) {
	if input.Name == nil && input.Avatar == nil {
		return model.User{}, fmt.Errorf("%w: at least one of name or avatar is required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return model.User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		user.Name = *input.Name
	}

	oldAvatarKey := user.AvatarKey
	if input.Avatar != nil {
		if s.avatars == nil {
			return model.User{}, fmt.Errorf("%w: avatar storage is not configured", ErrInvalidInput)
		}
		url, key, err := s.avatars.Upload(ctx, input.ContentType, input.Avatar)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to upload avatar: %w", err)
		}
		user.AvatarURL = url
		user.AvatarKey = key
	}

	updated, err := s.userRepo.UpdateProfile(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	// Old avatar removal is best-effort; the record already points elsewhere.
	if input.Avatar != nil && oldAvatarKey != "" {
		if err := s.avatars.Delete(ctx, oldAvatarKey); err != nil {
			slog.WarnContext(ctx, "failed to delete old avatar", "key", oldAvatarKey, "error", err)
		}
	}

	return updated, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return fmt.Errorf("%w: current and new password are required", ErrInvalidInput)
	}
	if len(input.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)) != nil {
		return ErrInvalidCredentials
	}
	if input.NewPassword == input.CurrentPassword {
		return fmt.Errorf("%w: new password must differ from current password", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *AuthService) withToken(user model.User) (AuthOutput, error) {
	// No issuer configured (dev mode): callers authenticate via header.
	if s.tokens == nil {
		return AuthOutput{User: user}, nil
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthOutput{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return AuthOutput{User: user, Token: token}, nil
}
