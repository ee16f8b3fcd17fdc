package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"devai-server/internal/domain"
	"devai-server/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for unknown email and wrong password
	// alike, so login errors cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	// ErrMissingFields indicates a registration with an absent field.
	ErrMissingFields = errors.New("Please provide all required fields")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("Please provide a valid email address")
	// ErrPasswordTooShort indicates a password below the minimum length.
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters long")
	// ErrEmailTaken and ErrUsernameTaken surface store-level uniqueness
	// violations; the email conflict wins when both fields collide.
	ErrEmailTaken    = errors.New("Email already registered")
	ErrUsernameTaken = errors.New("Username already taken")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	// no pre-check: the store's UNIQUE constraints arbitrate concurrent
	// registrations and report which field collided
	if _, err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
