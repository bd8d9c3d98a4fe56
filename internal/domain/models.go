// Package domain contains domain models and business logic errors.
package domain

import "time"

// Book is a lendable title with a stock counter.
// Stock is never allowed to go negative: borrowing decrements it inside the
// same transaction that creates the loan, and returning/deleting an open loan
// restores it exactly once.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Published int       `json:"published"`
	Genre     string    `json:"genre"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a registered borrower. Email is stored normalized (lowercased,
// trimmed) and is unique. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Borrow is a loan record. A nil ReturnDate means the loan is still open.
// At most one open borrow may exist per (UserID, BookID) pair.
type Borrow struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	BookID     string     `json:"bookId"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate"`
}

// Open reports whether the loan has not been returned yet.
func (b *Borrow) Open() bool {
	return b.ReturnDate == nil
}

// BorrowDetail is a borrow joined with its user and book for read endpoints.
// User or Book may be nil when the referenced row no longer exists.
type BorrowDetail struct {
	Borrow
	User *User `json:"user"`
	Book *Book `json:"book"`
}
