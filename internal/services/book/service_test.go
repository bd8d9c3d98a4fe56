package book_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/repository/memory"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/book"
)

func newService(t *testing.T) *book.Service {
	t.Helper()
	return book.NewService(memory.NewBookRepository(memory.NewStore()), zap.NewNop())
}

func wantCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	appErr, ok := domain.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code || appErr.Status != status {
		t.Fatalf("got %s/%d, want %s/%d", appErr.Code, appErr.Status, code, status)
	}
}

func TestCreateBookValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, book.CreateParams{Title: "Dune", Published: -1})
	wantCode(t, err, domain.CodeValidation, 422)

	_, err = svc.CreateBook(ctx, book.CreateParams{Title: "Dune", Stock: -1})
	wantCode(t, err, domain.CodeValidation, 422)
}

func TestBookCRUD(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.CreateBook(ctx, book.CreateParams{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Published: 1965,
		Genre:     "sci-fi",
		Stock:     3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}

	got, err := svc.GetBookByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Dune" || got.Stock != 3 {
		t.Errorf("unexpected book: %+v", got)
	}

	title := "Dune Messiah"
	stock := 5
	updated, err := svc.UpdateBook(ctx, created.ID, book.UpdateParams{Title: &title, Stock: &stock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Dune Messiah" || updated.Stock != 5 {
		t.Errorf("partial update wrong: %+v", updated)
	}
	if updated.Author != "Frank Herbert" {
		t.Errorf("untouched field changed: %q", updated.Author)
	}

	books, err := svc.GetBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len = %d, want 1", len(books))
	}

	if err := svc.DeleteBook(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetBookByID(ctx, created.ID)
	wantCode(t, err, domain.CodeNotFound, 404)
}

func TestUpdateBookValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.CreateBook(ctx, book.CreateParams{Title: "Dune"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := -5
	_, err = svc.UpdateBook(ctx, created.ID, book.UpdateParams{Stock: &bad})
	wantCode(t, err, domain.CodeValidation, 422)

	_, err = svc.UpdateBook(ctx, created.ID, book.UpdateParams{Published: &bad})
	wantCode(t, err, domain.CodeValidation, 422)
}

func TestBookNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.GetBookByID(ctx, "no-such-book")
	wantCode(t, err, domain.CodeNotFound, 404)

	title := "x"
	_, err = svc.UpdateBook(ctx, "no-such-book", book.UpdateParams{Title: &title})
	wantCode(t, err, domain.CodeNotFound, 404)

	err = svc.DeleteBook(ctx, "no-such-book")
	wantCode(t, err, domain.CodeNotFound, 404)
}
