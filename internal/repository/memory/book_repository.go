package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/book"
)

// Ensure BookRepository implements book.Repository
var _ book.Repository = (*BookRepository)(nil)

// BookRepository is an in-memory implementation of the book repository.
type BookRepository struct {
	store *Store
}

// NewBookRepository creates a new in-memory book repository.
func NewBookRepository(store *Store) *BookRepository {
	return &BookRepository{store: store}
}

// Create stores a new book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (*domain.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt

	r.store.books[b.ID] = cloneBook(b)
	return cloneBook(b), nil
}

// List returns all books ordered by creation time.
func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	books := make([]*domain.Book, 0, len(r.store.books))
	for _, b := range r.store.books {
		books = append(books, cloneBook(b))
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].ID < books[j].ID
		}
		return books[i].CreatedAt.Before(books[j].CreatedAt)
	})
	return books, nil
}

// Get retrieves a book by ID.
func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.books[id]
	if !ok {
		return nil, domain.NotFound("Book not found")
	}
	return cloneBook(b), nil
}

// Update applies a partial update.
func (r *BookRepository) Update(ctx context.Context, id string, params book.UpdateParams) (*domain.Book, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.books[id]
	if !ok {
		return nil, domain.NotFound("Book not found")
	}

	if params.Title != nil {
		b.Title = *params.Title
	}
	if params.Author != nil {
		b.Author = *params.Author
	}
	if params.Published != nil {
		b.Published = *params.Published
	}
	if params.Genre != nil {
		b.Genre = *params.Genre
	}
	if params.Stock != nil {
		b.Stock = *params.Stock
	}
	b.UpdatedAt = now()

	return cloneBook(b), nil
}

// Delete removes a book by ID.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.books[id]; !ok {
		return domain.NotFound("Book not found")
	}
	delete(r.store.books, id)
	return nil
}
