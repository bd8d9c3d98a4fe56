// Package memory provides in-memory repository implementations for
// development and testing. Data is not persistent across restarts.
package memory

import (
	"sync"
	"time"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Store holds all in-memory tables behind one mutex so the borrow repository
// can run atomic units of work spanning books and borrows.
type Store struct {
	mu      sync.RWMutex
	books   map[string]*domain.Book
	users   map[string]*domain.User
	borrows map[string]*domain.Borrow
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		books:   make(map[string]*domain.Book),
		users:   make(map[string]*domain.User),
		borrows: make(map[string]*domain.Borrow),
	}
}

func cloneBook(b *domain.Book) *domain.Book {
	c := *b
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneBorrow(b *domain.Borrow) *domain.Borrow {
	c := *b
	if b.ReturnDate != nil {
		t := *b.ReturnDate
		c.ReturnDate = &t
	}
	return &c
}

func cloneBooks(m map[string]*domain.Book) map[string]*domain.Book {
	out := make(map[string]*domain.Book, len(m))
	for k, v := range m {
		out[k] = cloneBook(v)
	}
	return out
}

func cloneBorrows(m map[string]*domain.Borrow) map[string]*domain.Borrow {
	out := make(map[string]*domain.Borrow, len(m))
	for k, v := range m {
		out[k] = cloneBorrow(v)
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}
