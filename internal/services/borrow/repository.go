package borrow

import (
	"context"
	"time"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Store is the transactional view of storage handed to a unit of work. Every
// read and write performed through it belongs to the same transaction.
type Store interface {
	// GetBookForUpdate loads a book and locks its row for the remainder of
	// the transaction, serializing concurrent stock adjustments.
	GetBookForUpdate(ctx context.Context, id string) (*domain.Book, error)

	// FindOpenBorrow returns the open loan for (userID, bookID), or nil when
	// there is none.
	FindOpenBorrow(ctx context.Context, userID, bookID string) (*domain.Borrow, error)

	// InsertBorrow persists a new loan record.
	InsertBorrow(ctx context.Context, b *domain.Borrow) (*domain.Borrow, error)

	// AdjustBookStock adds delta to the book's stock counter.
	AdjustBookStock(ctx context.Context, bookID string, delta int) error

	// GetBorrow loads a loan by id.
	GetBorrow(ctx context.Context, id string) (*domain.Borrow, error)

	// MarkReturned stamps the loan's return date.
	MarkReturned(ctx context.Context, id string, at time.Time) (*domain.Borrow, error)

	// DeleteBorrow removes the loan row.
	DeleteBorrow(ctx context.Context, id string) error
}

// Repository is the storage contract for loan records.
type Repository interface {
	// List returns all loans joined with their user and book.
	List(ctx context.Context) ([]*domain.BorrowDetail, error)

	// GetDetail returns one loan joined with its user and book.
	GetDetail(ctx context.Context, id string) (*domain.BorrowDetail, error)

	// InTx runs fn against a transactional Store. Either all writes commit or
	// none do. The context handed to fn carries the transaction deadline and
	// must be used for every Store call. Callbacks registered via afterCommit
	// run only after a successful commit; their failures are reported but
	// never surfaced as the operation's result.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store, afterCommit func(func() error)) error) error
}
