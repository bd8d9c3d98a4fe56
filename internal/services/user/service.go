// Package user provides CRUD operations for users, including email
// normalization and password hashing.
package user

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Repository is the storage contract for users.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail returns the user with the given normalized email, or nil
	// when there is none.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, params UpdateParams) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// CreateParams carries the fields accepted when creating a user.
type CreateParams struct {
	Email    string
	Name     string
	Password string
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Email    *string
	Name     *string
	Password *string
}

// Service implements user CRUD on top of a Repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("user-service")}
}

// NormalizeEmail lowercases and trims an email address. All stored emails
// are normalized, and uniqueness is defined over the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new user. The duplicate-email pre-check is an
// optimization for a friendly error; the unique index on users.email remains
// the authoritative guard against concurrent inserts.
func (s *Service) CreateUser(ctx context.Context, params CreateParams) (*domain.User, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, domain.Validation("Email and password are required")
	}

	email := NormalizeEmail(params.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict(domain.CodeDuplicateEmail, "User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Internal(domain.CodeUnknown, "failed to hash password")
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:    email,
		Name:     params.Name,
		Password: string(hash),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", created.ID))
	return created, nil
}

// GetUsers returns all users.
func (s *Service) GetUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// GetUserByID returns one user.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateUser applies a partial update, re-normalizing the email and
// re-hashing the password when present.
func (s *Service) UpdateUser(ctx context.Context, id string, params UpdateParams) (*domain.User, error) {
	if params.Email != nil {
		email := NormalizeEmail(*params.Email)
		if email == "" {
			return nil, domain.Validation("email must not be empty")
		}
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, domain.Conflict(domain.CodeDuplicateEmail, "User with this email already exists")
		}
		params.Email = &email
	}
	if params.Password != nil {
		if *params.Password == "" {
			return nil, domain.Validation("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.Internal(domain.CodeUnknown, "failed to hash password")
		}
		hashed := string(hash)
		params.Password = &hashed
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.String("user_id", id))
	return updated, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}
