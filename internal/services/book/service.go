// Package book provides CRUD operations for books.
package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Repository is the storage contract for books.
type Repository interface {
	Create(ctx context.Context, b *domain.Book) (*domain.Book, error)
	List(ctx context.Context) ([]*domain.Book, error)
	Get(ctx context.Context, id string) (*domain.Book, error)
	Update(ctx context.Context, id string, params UpdateParams) (*domain.Book, error)
	Delete(ctx context.Context, id string) error
}

// CreateParams carries the fields accepted when creating a book. Published
// and Stock default to zero.
type CreateParams struct {
	Title     string
	Author    string
	Published int
	Genre     string
	Stock     int
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Title     *string
	Author    *string
	Published *int
	Genre     *string
	Stock     *int
}

// Service implements book CRUD on top of a Repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("book-service")}
}

// CreateBook stores a new book.
func (s *Service) CreateBook(ctx context.Context, params CreateParams) (*domain.Book, error) {
	if params.Published < 0 {
		return nil, domain.Validation("published must be a non-negative year")
	}
	if params.Stock < 0 {
		return nil, domain.Validation("stock must be non-negative")
	}

	created, err := s.repo.Create(ctx, &domain.Book{
		Title:     params.Title,
		Author:    params.Author,
		Published: params.Published,
		Genre:     params.Genre,
		Stock:     params.Stock,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book created", zap.String("book_id", created.ID), zap.String("title", created.Title))
	return created, nil
}

// GetBooks returns all books.
func (s *Service) GetBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.repo.List(ctx)
}

// GetBookByID returns one book.
func (s *Service) GetBookByID(ctx context.Context, id string) (*domain.Book, error) {
	return s.repo.Get(ctx, id)
}

// UpdateBook applies a partial update.
func (s *Service) UpdateBook(ctx context.Context, id string, params UpdateParams) (*domain.Book, error) {
	if params.Published != nil && *params.Published < 0 {
		return nil, domain.Validation("published must be a non-negative year")
	}
	if params.Stock != nil && *params.Stock < 0 {
		return nil, domain.Validation("stock must be non-negative")
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Book updated", zap.String("book_id", id))
	return updated, nil
}

// DeleteBook removes a book.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Book deleted", zap.String("book_id", id))
	return nil
}
