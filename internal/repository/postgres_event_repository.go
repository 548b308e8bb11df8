package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

const eventColumns = `id, community_id, nonce, name, uri, event_type, organizer,
	policy_kind, COALESCE(policy_collection, '') as policy_collection,
	COALESCE(policy_creator, '') as policy_creator,
	COALESCE(policy_asset, '') as policy_asset, policy_min_amount,
	commitment_fee, reward_per_user, COALESCE(reward_asset, '') as reward_asset,
	event_authorities, authority_must_sign, is_cancelled,
	current_attendees, tickets_issued, created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository.
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var policyKind, eventType string
	err := row.Scan(
		&e.ID,
		&e.CommunityID,
		&e.Nonce,
		&e.Name,
		&e.URI,
		&eventType,
		&e.Organizer,
		&policyKind,
		&e.Policy.Collection,
		&e.Policy.Creator,
		&e.Policy.Asset,
		&e.Policy.MinAmount,
		&e.CommitmentFee,
		&e.RewardPerUser,
		&e.RewardAsset,
		&e.Authorities,
		&e.AuthorityMustSign,
		&e.IsCancelled,
		&e.CurrentAttendees,
		&e.TicketsIssued,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.Type = domain.EventType(eventType)
	e.Policy.Kind = domain.PolicyKind(policyKind)
	return e, nil
}

// Create inserts a new event.
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	q := QuerierFrom(ctx, r.pool)

	query := `
		INSERT INTO events (id, community_id, nonce, name, uri, event_type, organizer,
			policy_kind, policy_collection, policy_creator, policy_asset, policy_min_amount,
			commitment_fee, reward_per_user, reward_asset,
			event_authorities, authority_must_sign, is_cancelled,
			current_attendees, tickets_issued, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	// Empty optional strings become NULL.
	var collection, creator, asset, rewardAsset any
	if event.Policy.Collection != "" {
		collection = event.Policy.Collection
	}
	if event.Policy.Creator != "" {
		creator = event.Policy.Creator
	}
	if event.Policy.Asset != "" {
		asset = event.Policy.Asset
	}
	if event.RewardAsset != "" {
		rewardAsset = event.RewardAsset
	}

	_, err := q.Exec(ctx, query,
		event.ID,
		event.CommunityID,
		event.Nonce,
		event.Name,
		event.URI,
		string(event.Type),
		event.Organizer,
		string(event.Policy.Kind),
		collection,
		creator,
		asset,
		event.Policy.MinAmount,
		event.CommitmentFee,
		event.RewardPerUser,
		rewardAsset,
		event.Authorities,
		event.AuthorityMustSign,
		event.IsCancelled,
		event.CurrentAttendees,
		event.TicketsIssued,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		// Nonce collision means the community counter read raced a
		// committed creation; the caller retries from scratch.
		if IsUniqueViolation(err) {
			return domain.ErrStaleRecord
		}
		return err
	}
	return nil
}

// GetByID retrieves an event by ID.
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanEvent(q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetForUpdate retrieves an event and locks its row so counters and
// flags are checked against live state.
func (r *PostgresEventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanEvent(q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
}

// IncrementCounters bumps the attendee and ticket counters by one each.
func (r *PostgresEventRepository) IncrementCounters(ctx context.Context, id string) error {
	q := QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE events
		SET current_attendees = current_attendees + 1,
			tickets_issued = tickets_issued + 1,
			updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// SetCancelled flips is_cancelled to true. One-way: there is no query
// that clears it.
func (r *PostgresEventRepository) SetCancelled(ctx context.Context, id string) error {
	q := QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE events SET is_cancelled = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// ListByCommunity lists a community's events, newest first.
func (r *PostgresEventRepository) ListByCommunity(ctx context.Context, communityID string, limit, offset int) ([]*domain.Event, error) {
	q := QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE community_id = $1
		ORDER BY nonce DESC
		LIMIT $2 OFFSET $3`, communityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
