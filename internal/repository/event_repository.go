package repository

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// EventRepository persists events.
type EventRepository interface {
	// Create inserts a new event. (community_id, nonce) is unique; a
	// duplicate nonce fails with domain.ErrStaleRecord since it means
	// the counter read raced another creation.
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by ID, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// GetForUpdate retrieves an event by ID and locks the row, so
	// capacity and cancellation checks see live state at commit time.
	GetForUpdate(ctx context.Context, id string) (*domain.Event, error)
	// IncrementCounters bumps current_attendees and tickets_issued by
	// one each, inside the caller's transaction.
	IncrementCounters(ctx context.Context, id string) error
	// SetCancelled flips is_cancelled to true. One-way.
	SetCancelled(ctx context.Context, id string) error
	// ListByCommunity lists a community's events, newest first.
	ListByCommunity(ctx context.Context, communityID string, limit, offset int) ([]*domain.Event, error)
}
