package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

const attendeeColumns = `id, event_id, owner, status, created_at, updated_at`

// PostgresAttendeeRepository implements AttendeeRepository using PostgreSQL.
type PostgresAttendeeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAttendeeRepository creates a new PostgresAttendeeRepository.
func NewPostgresAttendeeRepository(pool *pgxpool.Pool) *PostgresAttendeeRepository {
	return &PostgresAttendeeRepository{pool: pool}
}

func scanAttendee(row pgx.Row) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var status string
	err := row.Scan(
		&a.ID,
		&a.EventID,
		&a.Owner,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Status = domain.AttendeeStatus(status)
	return a, nil
}

// Create inserts a new attendee. The unique index on (event_id, owner)
// is the deterministic collision that stops a double registration: of
// two concurrent joins by one identity, exactly one commits.
func (r *PostgresAttendeeRepository) Create(ctx context.Context, attendee *domain.Attendee) error {
	q := QuerierFrom(ctx, r.pool)

	query := `
		INSERT INTO attendees (id, event_id, owner, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query,
		attendee.ID,
		attendee.EventID,
		attendee.Owner,
		string(attendee.Status),
		attendee.CreatedAt,
		attendee.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// GetByID retrieves an attendee by ID.
func (r *PostgresAttendeeRepository) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanAttendee(q.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id))
}

// GetByEventAndOwner retrieves the attendee record for an identity at
// an event.
func (r *PostgresAttendeeRepository) GetByEventAndOwner(ctx context.Context, eventID, owner string) (*domain.Attendee, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanAttendee(q.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE event_id = $1 AND owner = $2`, eventID, owner))
}

// UpdateStatus advances status from exactly `from` to `to`. The guard
// on the stored value makes concurrent transitions race safely: the
// loser updates zero rows and fails instead of silently overwriting.
func (r *PostgresAttendeeRepository) UpdateStatus(ctx context.Context, id string, from, to domain.AttendeeStatus) error {
	q := QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE attendees SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleRecord
	}
	return nil
}

// ListByEvent lists an event's attendees, oldest first.
func (r *PostgresAttendeeRepository) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Attendee, error) {
	q := QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+attendeeColumns+` FROM attendees
		WHERE event_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []*domain.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
