package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
)

// Ensure BorrowRepository implements borrow.Repository
var _ borrow.Repository = (*BorrowRepository)(nil)

// BorrowRepository implements borrow.Repository using PostgreSQL.
type BorrowRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBorrowRepository creates a new PostgreSQL borrow repository.
func NewBorrowRepository(db *DB, logger *zap.Logger) *BorrowRepository {
	return &BorrowRepository{
		db:     db,
		logger: logger.With(zap.String("repository", "borrow")),
	}
}

// detailQuery joins the loan with its user and book. LEFT JOINs because a
// loan may outlive either side; the joined objects are nil in that case.
const detailQuery = `
	SELECT b.id, b.user_id, b.book_id, b.borrow_date, b.return_date,
	       u.id, u.email, u.name, u.created_at, u.updated_at,
	       bk.id, bk.title, bk.author, bk.published, bk.genre, bk.stock, bk.created_at, bk.updated_at
	FROM borrows b
	LEFT JOIN users u ON u.id = b.user_id
	LEFT JOIN books bk ON bk.id = b.book_id
`

func scanBorrowDetail(row pgx.Row) (*domain.BorrowDetail, error) {
	d := &domain.BorrowDetail{}

	var (
		userID, userEmail, userName            *string
		userCreatedAt, userUpdatedAt           *time.Time
		bookID, bookTitle, bookAuthor, bookGenre *string
		bookPublished, bookStock               *int
		bookCreatedAt, bookUpdatedAt           *time.Time
	)

	err := row.Scan(
		&d.ID, &d.UserID, &d.BookID, &d.BorrowDate, &d.ReturnDate,
		&userID, &userEmail, &userName, &userCreatedAt, &userUpdatedAt,
		&bookID, &bookTitle, &bookAuthor, &bookPublished, &bookGenre, &bookStock, &bookCreatedAt, &bookUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		d.User = &domain.User{
			ID:        *userID,
			Email:     *userEmail,
			Name:      *userName,
			CreatedAt: *userCreatedAt,
			UpdatedAt: *userUpdatedAt,
		}
	}
	if bookID != nil {
		d.Book = &domain.Book{
			ID:        *bookID,
			Title:     *bookTitle,
			Author:    *bookAuthor,
			Published: *bookPublished,
			Genre:     *bookGenre,
			Stock:     *bookStock,
			CreatedAt: *bookCreatedAt,
			UpdatedAt: *bookUpdatedAt,
		}
	}
	return d, nil
}

// List returns all loans joined with their user and book.
func (r *BorrowRepository) List(ctx context.Context) ([]*domain.BorrowDetail, error) {
	rows, err := r.db.pool.Query(ctx, detailQuery+` ORDER BY b.borrow_date, b.id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var details []*domain.BorrowDetail
	for rows.Next() {
		d, err := scanBorrowDetail(rows)
		if err != nil {
			return nil, MapError(err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return details, nil
}

// GetDetail returns one loan joined with its user and book.
func (r *BorrowRepository) GetDetail(ctx context.Context, id string) (*domain.BorrowDetail, error) {
	d, err := scanBorrowDetail(r.db.pool.QueryRow(ctx, detailQuery+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("Borrow not found")
		}
		return nil, MapError(err)
	}
	return d, nil
}

// InTx runs fn against a transactional store bound to a single database
// transaction. fn receives the transaction-scoped context so every query in
// the unit of work is bounded by the transaction timeout.
func (r *BorrowRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error) error {
	return r.db.RunInTx(ctx, TxOptions{}, func(txCtx context.Context, tx pgx.Tx, afterCommit func(func() error)) error {
		return fn(txCtx, &txStore{q: tx}, afterCommit)
	})
}

// txStore implements borrow.Store over a single transaction.
type txStore struct {
	q Querier
}

const borrowColumns = `id, user_id, book_id, borrow_date, return_date`

func scanBorrow(row pgx.Row) (*domain.Borrow, error) {
	b := &domain.Borrow{}
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &b.ReturnDate)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookForUpdate loads the book and takes a row lock, serializing
// concurrent stock adjustments for the rest of the transaction.
func (s *txStore) GetBookForUpdate(ctx context.Context, id string) (*domain.Book, error) {
	b, err := scanBook(s.q.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// FindOpenBorrow returns the open loan for (userID, bookID), or nil.
func (s *txStore) FindOpenBorrow(ctx context.Context, userID, bookID string) (*domain.Borrow, error) {
	b, err := scanBorrow(s.q.QueryRow(ctx,
		`SELECT `+borrowColumns+` FROM borrows
		 WHERE user_id = $1 AND book_id = $2 AND return_date IS NULL
		 LIMIT 1`, userID, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, MapError(err)
	}
	return b, nil
}

// InsertBorrow persists a new loan record.
func (s *txStore) InsertBorrow(ctx context.Context, b *domain.Borrow) (*domain.Borrow, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	_, err := s.q.Exec(ctx,
		`INSERT INTO borrows (id, user_id, book_id, borrow_date, return_date)
		 VALUES ($1, $2, $3, $4, NULL)`,
		b.ID, b.UserID, b.BookID, b.BorrowDate)
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// AdjustBookStock adds delta to the book's stock counter. The CHECK
// constraint on books.stock is the schema-level backstop against negatives.
func (s *txStore) AdjustBookStock(ctx context.Context, bookID string, delta int) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE books SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		bookID, delta)
	if err != nil {
		return MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Book not found")
	}
	return nil
}

// GetBorrow loads a loan by id.
func (s *txStore) GetBorrow(ctx context.Context, id string) (*domain.Borrow, error) {
	b, err := scanBorrow(s.q.QueryRow(ctx,
		`SELECT `+borrowColumns+` FROM borrows WHERE id = $1`, id))
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// MarkReturned stamps the loan's return date.
func (s *txStore) MarkReturned(ctx context.Context, id string, at time.Time) (*domain.Borrow, error) {
	b, err := scanBorrow(s.q.QueryRow(ctx,
		`UPDATE borrows SET return_date = $2 WHERE id = $1 RETURNING `+borrowColumns, id, at))
	if err != nil {
		return nil, MapError(err)
	}
	return b, nil
}

// DeleteBorrow removes the loan row.
func (s *txStore) DeleteBorrow(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM borrows WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("Borrow not found")
	}
	return nil
}
