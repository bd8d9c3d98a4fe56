// Package borrow implements the lending core: transactional create, return
// and delete of loan records with the stock and open-loan invariants.
package borrow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Service orchestrates loan lifecycle operations. It keeps no state between
// requests; every mutating operation re-reads current state inside exactly
// one transaction.
type Service struct {
	repo       Repository
	publishers []Publisher
	logger     *zap.Logger
}

// NewService creates a new borrow service. Publishers receive lifecycle
// events after each successful commit.
func NewService(repo Repository, logger *zap.Logger, publishers ...Publisher) *Service {
	return &Service{
		repo:       repo,
		publishers: publishers,
		logger:     logger.Named("borrow-service"),
	}
}

// CreateBorrow opens a loan for (userID, bookID). Inside one transaction it
// verifies the book exists, that the user has no open loan on it, and that
// stock remains, then creates the loan and decrements stock together.
func (s *Service) CreateBorrow(ctx context.Context, userID, bookID string) (*domain.Borrow, error) {
	if userID == "" || bookID == "" {
		return nil, domain.Validation("userId and bookId are required")
	}

	logger := s.logger.With(zap.String("user_id", userID), zap.String("book_id", bookID))

	var created *domain.Borrow
	err := s.repo.InTx(ctx, func(txCtx context.Context, tx Store, afterCommit func(func() error)) error {
		book, err := tx.GetBookForUpdate(txCtx, bookID)
		if err != nil {
			if isNotFound(err) {
				return domain.NotFound("Book not found")
			}
			return err
		}

		existing, err := tx.FindOpenBorrow(txCtx, userID, bookID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Conflict(domain.CodeUserAlreadyBorrowed, "User already borrowed this book")
		}

		if book.Stock <= 0 {
			return domain.Conflict(domain.CodeOutOfStock, "Book out of stock")
		}

		created, err = tx.InsertBorrow(txCtx, &domain.Borrow{
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := tx.AdjustBookStock(txCtx, bookID, -1); err != nil {
			return err
		}

		afterCommit(s.publish(ctx, EventCreated, created))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Borrow created", zap.String("borrow_id", created.ID))
	return created, nil
}

// ReturnBorrow closes a loan. Calling it again on an already returned loan is
// idempotent: the stored row is returned unchanged and stock is not touched.
// Stock restoration is skipped silently when the book no longer exists.
func (s *Service) ReturnBorrow(ctx context.Context, id string) (*domain.Borrow, error) {
	var result *domain.Borrow
	err := s.repo.InTx(ctx, func(txCtx context.Context, tx Store, afterCommit func(func() error)) error {
		b, err := tx.GetBorrow(txCtx, id)
		if err != nil {
			if isNotFound(err) {
				return domain.NotFound("Borrow not found")
			}
			return err
		}
		if !b.Open() {
			result = b
			return nil
		}

		result, err = tx.MarkReturned(txCtx, id, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := s.restoreStock(txCtx, tx, b.BookID); err != nil {
			return err
		}

		afterCommit(s.publish(ctx, EventReturned, result))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Borrow returned", zap.String("borrow_id", id))
	return result, nil
}

// DeleteBorrow removes a loan record. An open loan first gives its stock
// back; a returned loan is deleted without touching stock.
func (s *Service) DeleteBorrow(ctx context.Context, id string) error {
	err := s.repo.InTx(ctx, func(txCtx context.Context, tx Store, afterCommit func(func() error)) error {
		b, err := tx.GetBorrow(txCtx, id)
		if err != nil {
			if isNotFound(err) {
				return domain.NotFound("Borrow not found")
			}
			return err
		}

		if b.Open() {
			if err := s.restoreStock(txCtx, tx, b.BookID); err != nil {
				return err
			}
		}
		if err := tx.DeleteBorrow(txCtx, id); err != nil {
			return err
		}

		afterCommit(s.publish(ctx, EventDeleted, b))
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Borrow deleted", zap.String("borrow_id", id))
	return nil
}

// GetBorrows returns all loans joined with their user and book.
func (s *Service) GetBorrows(ctx context.Context) ([]*domain.BorrowDetail, error) {
	return s.repo.List(ctx)
}

// GetBorrowByID returns one loan joined with its user and book.
func (s *Service) GetBorrowByID(ctx context.Context, id string) (*domain.BorrowDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

// restoreStock increments the book's stock by one, locking the row first.
// A missing book is skipped silently: the loan may legitimately outlive it.
func (s *Service) restoreStock(ctx context.Context, tx Store, bookID string) error {
	if _, err := tx.GetBookForUpdate(ctx, bookID); err != nil {
		if isNotFound(err) {
			s.logger.Warn("Book missing during stock restore, skipping", zap.String("book_id", bookID))
			return nil
		}
		return err
	}
	return tx.AdjustBookStock(ctx, bookID, 1)
}

// publish builds the after-commit callback delivering the event to every
// configured publisher. Failures are joined and reported by the unit of work.
func (s *Service) publish(ctx context.Context, eventType string, b *domain.Borrow) func() error {
	if len(s.publishers) == 0 {
		return nil
	}
	event := Event{Type: eventType, Borrow: b, At: time.Now().UTC()}
	return func() error {
		var errs []error
		for _, p := range s.publishers {
			if err := p.Publish(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

func isNotFound(err error) bool {
	appErr, ok := domain.AsAppError(err)
	return ok && appErr.Code == domain.CodeNotFound
}
