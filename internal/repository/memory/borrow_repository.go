package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
)

// Ensure BorrowRepository implements borrow.Repository
var _ borrow.Repository = (*BorrowRepository)(nil)

// BorrowRepository is an in-memory implementation of the borrow repository.
// Units of work run against cloned tables under the store lock and are
// swapped in only on success, mirroring commit/rollback semantics.
type BorrowRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewBorrowRepository creates a new in-memory borrow repository.
func NewBorrowRepository(store *Store, logger *zap.Logger) *BorrowRepository {
	return &BorrowRepository{store: store, logger: logger}
}

// List returns all loans joined with their user and book.
func (r *BorrowRepository) List(ctx context.Context) ([]*domain.BorrowDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	details := make([]*domain.BorrowDetail, 0, len(r.store.borrows))
	for _, b := range r.store.borrows {
		details = append(details, r.detail(b))
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].BorrowDate.Equal(details[j].BorrowDate) {
			return details[i].ID < details[j].ID
		}
		return details[i].BorrowDate.Before(details[j].BorrowDate)
	})
	return details, nil
}

// GetDetail returns one loan joined with its user and book.
func (r *BorrowRepository) GetDetail(ctx context.Context, id string) (*domain.BorrowDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.borrows[id]
	if !ok {
		return nil, domain.NotFound("Borrow not found")
	}
	return r.detail(b), nil
}

// detail joins a loan with its user and book. Caller holds the store lock.
func (r *BorrowRepository) detail(b *domain.Borrow) *domain.BorrowDetail {
	d := &domain.BorrowDetail{Borrow: *cloneBorrow(b)}
	if u, ok := r.store.users[b.UserID]; ok {
		d.User = cloneUser(u)
	}
	if bk, ok := r.store.books[b.BookID]; ok {
		d.Book = cloneBook(bk)
	}
	return d
}

// InTx runs fn against a transactional view of the store. The whole store is
// locked for the duration, so units of work serialize; changes become visible
// only if fn succeeds.
func (r *BorrowRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error) error {
	var callbacks []func() error

	err := func() error {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()

		view := &txView{
			books:   cloneBooks(r.store.books),
			borrows: cloneBorrows(r.store.borrows),
		}
		register := func(cb func() error) {
			if cb != nil {
				callbacks = append(callbacks, cb)
			}
		}

		if err := r.runFn(ctx, view, register, fn); err != nil {
			callbacks = nil
			return err
		}

		r.store.books = view.books
		r.store.borrows = view.borrows
		return nil
	}()
	if err != nil {
		return err
	}

	for i, cb := range callbacks {
		if err := cb(); err != nil {
			r.logger.Error("After-commit callback failed", zap.Int("index", i), zap.Error(err))
		}
	}
	return nil
}

// runFn invokes fn, converting a panic inside the unit of work into an error
// so the cloned tables are discarded cleanly.
func (r *BorrowRepository) runFn(ctx context.Context, view *txView, register func(func() error), fn func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic inside unit of work", zap.Any("panic", rec))
			err = domain.Internal(domain.CodeDBPanic, "database transaction panicked")
		}
	}()
	return fn(ctx, view, register)
}

// txView implements borrow.Store over cloned tables.
type txView struct {
	books   map[string]*domain.Book
	borrows map[string]*domain.Borrow
}

func (v *txView) GetBookForUpdate(ctx context.Context, id string) (*domain.Book, error) {
	b, ok := v.books[id]
	if !ok {
		return nil, domain.NotFound("Record not found")
	}
	return cloneBook(b), nil
}

func (v *txView) FindOpenBorrow(ctx context.Context, userID, bookID string) (*domain.Borrow, error) {
	for _, b := range v.borrows {
		if b.UserID == userID && b.BookID == bookID && b.ReturnDate == nil {
			return cloneBorrow(b), nil
		}
	}
	return nil, nil
}

func (v *txView) InsertBorrow(ctx context.Context, b *domain.Borrow) (*domain.Borrow, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	v.borrows[b.ID] = cloneBorrow(b)
	return cloneBorrow(b), nil
}

func (v *txView) AdjustBookStock(ctx context.Context, bookID string, delta int) error {
	b, ok := v.books[bookID]
	if !ok {
		return domain.NotFound("Book not found")
	}
	if b.Stock+delta < 0 {
		// Same guard the CHECK constraint provides in PostgreSQL.
		return domain.Validation("Invalid data sent to database")
	}
	b.Stock += delta
	b.UpdatedAt = now()
	return nil
}

func (v *txView) GetBorrow(ctx context.Context, id string) (*domain.Borrow, error) {
	b, ok := v.borrows[id]
	if !ok {
		return nil, domain.NotFound("Record not found")
	}
	return cloneBorrow(b), nil
}

func (v *txView) MarkReturned(ctx context.Context, id string, at time.Time) (*domain.Borrow, error) {
	b, ok := v.borrows[id]
	if !ok {
		return nil, domain.NotFound("Record not found")
	}
	b.ReturnDate = &at
	return cloneBorrow(b), nil
}

func (v *txView) DeleteBorrow(ctx context.Context, id string) error {
	if _, ok := v.borrows[id]; !ok {
		return domain.NotFound("Borrow not found")
	}
	delete(v.borrows, id)
	return nil
}
