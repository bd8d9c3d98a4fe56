package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/user"
)

// Ensure UserRepository implements user.Repository
var _ user.Repository = (*UserRepository)(nil)

// UserRepository is an in-memory implementation of the user repository.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new in-memory user repository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a new user, enforcing email uniqueness the way the database
// unique index does.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == u.Email {
			return nil, domain.Conflict(domain.CodeDuplicateKey, "Duplicate value for field(s): email")
		}
	}

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	r.store.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.NotFound("User not found")
	}
	return cloneUser(u), nil
}

// GetByEmail retrieves a user by normalized email, or nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// Update applies a partial update.
func (r *UserRepository) Update(ctx context.Context, id string, params user.UpdateParams) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.NotFound("User not found")
	}

	if params.Email != nil {
		for _, existing := range r.store.users {
			if existing.ID != id && existing.Email == *params.Email {
				return nil, domain.Conflict(domain.CodeDuplicateKey, "Duplicate value for field(s): email")
			}
		}
		u.Email = *params.Email
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Password != nil {
		u.Password = *params.Password
	}
	u.UpdatedAt = now()

	return cloneUser(u), nil
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return domain.NotFound("User not found")
	}
	delete(r.store.users, id)
	return nil
}
