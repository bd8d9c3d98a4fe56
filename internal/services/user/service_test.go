package user_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/repository/memory"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/user"
)

func newService(t *testing.T) *user.Service {
	t.Helper()
	return user.NewService(memory.NewUserRepository(memory.NewStore()), zap.NewNop())
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

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a@b.com", "a@b.com"},
		{"A@B.COM", "a@b.com"},
		{"  A@b.Com  ", "a@b.com"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := user.NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, user.CreateParams{Email: "", Password: "secret"})
	wantCode(t, err, domain.CodeValidation, 422)

	_, err = svc.CreateUser(ctx, user.CreateParams{Email: "a@b.com", Password: ""})
	wantCode(t, err, domain.CodeValidation, 422)

	_, err = svc.CreateUser(ctx, user.CreateParams{Email: "   ", Password: "secret"})
	wantCode(t, err, domain.CodeValidation, 422)
}

func TestCreateUserStoresNormalizedEmailAndHash(t *testing.T) {
	svc := newService(t)

	created, err := svc.CreateUser(context.Background(), user.CreateParams{
		Email:    "  Ziyad@Example.COM ",
		Name:     "Ziyad",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "ziyad@example.com" {
		t.Errorf("email = %q, want normalized", created.Email)
	}
	if created.Password == "hunter22" || created.Password == "" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestCreateUserDuplicateEmailRegardlessOfCase(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, user.CreateParams{Email: "A@B.com", Password: "pw"}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.CreateUser(ctx, user.CreateParams{Email: " a@b.com ", Password: "pw"})
	wantCode(t, err, domain.CodeDuplicateEmail, 409)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, user.CreateParams{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.CreateUser(ctx, user.CreateParams{Email: "c@d.com", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taken := "A@B.COM"
	_, err = svc.UpdateUser(ctx, second.ID, user.UpdateParams{Email: &taken})
	wantCode(t, err, domain.CodeDuplicateEmail, 409)

	// Updating a user to its own email is not a conflict.
	same := first.Email
	if _, err := svc.UpdateUser(ctx, first.ID, user.UpdateParams{Email: &same}); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, user.CreateParams{Email: "a@b.com", Password: "old"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pw := "newpassword"
	updated, err := svc.UpdateUser(ctx, created.ID, user.UpdateParams{Password: &pw})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("newpassword")); err != nil {
		t.Errorf("updated hash does not verify: %v", err)
	}

	empty := ""
	_, err = svc.UpdateUser(ctx, created.ID, user.UpdateParams{Password: &empty})
	wantCode(t, err, domain.CodeValidation, 422)
}

func TestDeleteUserNotFound(t *testing.T) {
	svc := newService(t)
	err := svc.DeleteUser(context.Background(), "no-such-user")
	wantCode(t, err, domain.CodeNotFound, 404)
}

func TestDeleteUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, user.CreateParams{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetUserByID(ctx, created.ID)
	wantCode(t, err, domain.CodeNotFound, 404)
}
