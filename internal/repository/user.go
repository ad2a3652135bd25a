package repository

import (
	"context"
	"errors"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, userID string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, user model.User) (model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
