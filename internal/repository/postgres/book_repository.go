package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/book"
)

// Ensure BookRepository implements book.Repository
var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository using PostgreSQL.
type BookRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBookRepository creates a new PostgreSQL book repository.
func NewBookRepository(db *DB, logger *zap.Logger) *BookRepository {
	return &BookRepository{
		db:     db,
		logger: logger.With(zap.String("repository", "book")),
	}
}

const bookColumns = `id, title, author, published, genre, stock, created_at, updated_at`

func scanBook(row pgx.Row) (*domain.Book, error) {
	b := &domain.Book{}
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Published, &b.Genre, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create stores a new book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (*domain.Book, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	query := `
		INSERT INTO books (id, title, author, published, genre, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.pool.QueryRow(ctx, query,
		b.ID, b.Title, b.Author, b.Published, b.Genre, b.Stock,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create book", zap.Error(err), zap.String("title", b.Title))
		return nil, MapError(err)
	}

	return b, nil
}

// List returns all books.
func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, MapError(err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return books, nil
}

// Get retrieves a book by ID.
func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	b, err := scanBook(r.db.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("Book not found")
		}
		return nil, MapError(err)
	}
	return b, nil
}

// Update applies a partial update and returns the updated row.
func (r *BookRepository) Update(ctx context.Context, id string, params book.UpdateParams) (*domain.Book, error) {
	set := "updated_at = now()"
	args := []any{id}
	argNum := 2

	appendSet := func(column string, value any) {
		set += fmt.Sprintf(", %s = $%d", column, argNum)
		args = append(args, value)
		argNum++
	}

	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Author != nil {
		appendSet("author", *params.Author)
	}
	if params.Published != nil {
		appendSet("published", *params.Published)
	}
	if params.Genre != nil {
		appendSet("genre", *params.Genre)
	}
	if params.Stock != nil {
		appendSet("stock", *params.Stock)
	}

	query := `UPDATE books SET ` + set + ` WHERE id = $1 RETURNING ` + bookColumns

	b, err := scanBook(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("Book not found")
		}
		r.logger.Error("Failed to update book", zap.Error(err), zap.String("book_id", id))
		return nil, MapError(err)
	}
	return b, nil
}

// Delete removes a book by ID.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Book not found")
	}
	return nil
}
