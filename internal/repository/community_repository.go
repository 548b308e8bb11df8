package repository

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// CommunityRepository persists communities.
type CommunityRepository interface {
	// Create inserts a new community. The seed is unique across all
	// communities; a duplicate fails with domain.ErrSeedTaken.
	Create(ctx context.Context, community *domain.Community) error
	// GetByID retrieves a community by ID, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Community, error)
	// GetBySeed retrieves a community by its derivation seed, nil when absent.
	GetBySeed(ctx context.Context, seed string) (*domain.Community, error)
	// GetForUpdate retrieves a community by ID and locks the row for
	// the remainder of the transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.Community, error)
	// IncrementEventsCount bumps the event counter by exactly one.
	IncrementEventsCount(ctx context.Context, id string) error
}
