package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

const communityColumns = `id, seed, authority, name, events_count, created_at, updated_at`

// PostgresCommunityRepository implements CommunityRepository using PostgreSQL.
type PostgresCommunityRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCommunityRepository creates a new PostgresCommunityRepository.
func NewPostgresCommunityRepository(pool *pgxpool.Pool) *PostgresCommunityRepository {
	return &PostgresCommunityRepository{pool: pool}
}

func scanCommunity(row pgx.Row) (*domain.Community, error) {
	c := &domain.Community{}
	err := row.Scan(
		&c.ID,
		&c.Seed,
		&c.Authority,
		&c.Name,
		&c.EventsCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a new community.
func (r *PostgresCommunityRepository) Create(ctx context.Context, community *domain.Community) error {
	q := QuerierFrom(ctx, r.pool)

	query := `
		INSERT INTO communities (id, seed, authority, name, events_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.Exec(ctx, query,
		community.ID,
		community.Seed,
		community.Authority,
		community.Name,
		community.EventsCount,
		community.CreatedAt,
		community.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrSeedTaken
		}
		return err
	}
	return nil
}

// GetByID retrieves a community by ID.
func (r *PostgresCommunityRepository) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanCommunity(q.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE id = $1`, id))
}

// GetBySeed retrieves a community by its derivation seed.
func (r *PostgresCommunityRepository) GetBySeed(ctx context.Context, seed string) (*domain.Community, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanCommunity(q.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE seed = $1`, seed))
}

// GetForUpdate retrieves a community and locks its row for the
// remainder of the transaction.
func (r *PostgresCommunityRepository) GetForUpdate(ctx context.Context, id string) (*domain.Community, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanCommunity(q.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE id = $1 FOR UPDATE`, id))
}

// IncrementEventsCount bumps the event counter by exactly one.
func (r *PostgresCommunityRepository) IncrementEventsCount(ctx context.Context, id string) error {
	q := QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE communities
		SET events_count = events_count + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommunityNotFound
	}
	return nil
}
