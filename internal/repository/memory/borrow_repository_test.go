package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/repository/memory"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
)

func seedBook(t *testing.T, store *memory.Store, stock int) *domain.Book {
	t.Helper()
	b, err := memory.NewBookRepository(store).Create(context.Background(), &domain.Book{
		Title: "Dune",
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return b
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	book := seedBook(t, store, 2)
	ctx := context.Background()

	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		if _, err := tx.InsertBorrow(ctx, &domain.Borrow{
			UserID:     "u1",
			BookID:     book.ID,
			BorrowDate: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.AdjustBookStock(ctx, book.ID, -1)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := memory.NewBookRepository(store).Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.Stock != 1 {
		t.Errorf("stock = %d, want 1", got.Stock)
	}
	details, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(details) != 1 {
		t.Errorf("borrows = %d, want 1", len(details))
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	book := seedBook(t, store, 2)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		if _, err := tx.InsertBorrow(ctx, &domain.Borrow{UserID: "u1", BookID: book.ID}); err != nil {
			return err
		}
		if err := tx.AdjustBookStock(ctx, book.ID, -1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := memory.NewBookRepository(store).Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.Stock != 2 {
		t.Errorf("stock leaked from aborted unit of work: %d", got.Stock)
	}
	details, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(details) != 0 {
		t.Errorf("borrows = %d, want 0", len(details))
	}
}

func TestInTxCallbacksRunAfterCommitInOrder(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	ctx := context.Background()

	var order []int
	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		afterCommit(func() error {
			order = append(order, 1)
			return nil
		})
		afterCommit(func() error {
			order = append(order, 2)
			return errors.New("sink down")
		})
		afterCommit(func() error {
			order = append(order, 3)
			return nil
		})
		return nil
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("callback order = %v, want [1 2 3]", order)
	}
}

func TestInTxCallbacksSkippedOnRollback(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	ctx := context.Background()

	ran := false
	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		afterCommit(func() error {
			ran = true
			return nil
		})
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if ran {
		t.Error("callback ran for rolled-back unit of work")
	}
}

func TestInTxPanicRollsBack(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	book := seedBook(t, store, 2)
	ctx := context.Background()

	ran := false
	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		afterCommit(func() error {
			ran = true
			return nil
		})
		if err := tx.AdjustBookStock(ctx, book.ID, -1); err != nil {
			return err
		}
		panic("boom")
	})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeDBPanic {
		t.Fatalf("err = %v, want DB_PANIC", err)
	}
	if ran {
		t.Error("callback ran for panicked unit of work")
	}

	got, err := memory.NewBookRepository(store).Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.Stock != 2 {
		t.Errorf("stock leaked from panicked unit of work: %d", got.Stock)
	}
}

func TestAdjustBookStockGuardsNegative(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	book := seedBook(t, store, 0)
	ctx := context.Background()

	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		return tx.AdjustBookStock(ctx, book.ID, -1)
	})
	appErr, ok := domain.AsAppError(err)
	if !ok || appErr.Code != domain.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestGetDetailJoinsUserAndBook(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	book := seedBook(t, store, 1)
	ctx := context.Background()

	u, err := memory.NewUserRepository(store).Create(ctx, &domain.User{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	var id string
	err = repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		created, err := tx.InsertBorrow(ctx, &domain.Borrow{
			UserID:     u.ID,
			BookID:     book.ID,
			BorrowDate: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	detail, err := repo.GetDetail(ctx, id)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.User == nil || detail.User.Email != "a@b.com" {
		t.Errorf("user not joined: %+v", detail.User)
	}
	if detail.Book == nil || detail.Book.Title != "Dune" {
		t.Errorf("book not joined: %+v", detail.Book)
	}
}

func TestGetDetailOrphanedBorrow(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewBorrowRepository(store, zap.NewNop())
	ctx := context.Background()

	var id string
	err := repo.InTx(ctx, func(ctx context.Context, tx borrow.Store, afterCommit func(func() error)) error {
		created, err := tx.InsertBorrow(ctx, &domain.Borrow{
			UserID:     "gone-user",
			BookID:     "gone-book",
			BorrowDate: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	detail, err := repo.GetDetail(ctx, id)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.User != nil || detail.Book != nil {
		t.Errorf("expected nil joins for orphaned loan, got user=%v book=%v", detail.User, detail.Book)
	}
}
