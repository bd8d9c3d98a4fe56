package borrow

import (
	"context"
	"time"

	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
)

// Borrow lifecycle event types, published after the owning transaction
// commits.
const (
	EventCreated  = "borrow.created"
	EventReturned = "borrow.returned"
	EventDeleted  = "borrow.deleted"
)

// Event describes a committed change to a loan record.
type Event struct {
	Type   string         `json:"type"`
	Borrow *domain.Borrow `json:"borrow"`
	At     time.Time      `json:"at"`
}

// Publisher delivers committed borrow events to an external sink. Publishing
// happens after commit; a failed publish is logged, never surfaced to the
// caller.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
