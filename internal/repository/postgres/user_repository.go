package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/user"
)

// Ensure UserRepository implements user.Repository
var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, email, name, password, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create stores a new user. A concurrent insert with the same email loses to
// the unique index and surfaces as DUPLICATE_KEY through the error mapper.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, name, password)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.pool.QueryRow(ctx, query, u.ID, u.Email, u.Name, u.Password).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return nil, MapError(err)
	}

	return u, nil
}

// List returns all users.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, MapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return users, nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("User not found")
		}
		return nil, MapError(err)
	}
	return u, nil
}

// GetByEmail retrieves a user by normalized email, or nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, MapError(err)
	}
	return u, nil
}

// Update applies a partial update and returns the updated row.
func (r *UserRepository) Update(ctx context.Context, id string, params user.UpdateParams) (*domain.User, error) {
	set := "updated_at = now()"
	args := []any{id}
	argNum := 2

	appendSet := func(column string, value any) {
		set += fmt.Sprintf(", %s = $%d", column, argNum)
		args = append(args, value)
		argNum++
	}

	if params.Email != nil {
		appendSet("email", *params.Email)
	}
	if params.Name != nil {
		appendSet("name", *params.Name)
	}
	if params.Password != nil {
		appendSet("password", *params.Password)
	}

	query := `UPDATE users SET ` + set + ` WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("User not found")
		}
		r.logger.Error("Failed to update user", zap.Error(err), zap.String("user_id", id))
		return nil, MapError(err)
	}
	return u, nil
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("User not found")
	}
	return nil
}
