package repository

import (
	"context"
	"errors"

	"devai-server/internal/domain"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken indicates a Create collided with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates a Create collided with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository defines persistence operations for User entities.
// Uniqueness of email and username is enforced by the store itself;
// Create reports a violation as ErrEmailTaken or ErrUsernameTaken.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
