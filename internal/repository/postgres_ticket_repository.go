package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

const ticketColumns = `id, attendee_id, event_id, sequence, fee_paid, frozen, created_at`

// PostgresTicketRepository implements TicketRepository using PostgreSQL.
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository.
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	err := row.Scan(
		&t.ID,
		&t.AttendeeID,
		&t.EventID,
		&t.Sequence,
		&t.FeePaid,
		&t.Frozen,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a new ticket.
func (r *PostgresTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	q := QuerierFrom(ctx, r.pool)

	query := `
		INSERT INTO tickets (id, attendee_id, event_id, sequence, fee_paid, frozen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.Exec(ctx, query,
		ticket.ID,
		ticket.AttendeeID,
		ticket.EventID,
		ticket.Sequence,
		ticket.FeePaid,
		ticket.Frozen,
		ticket.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// GetByID retrieves a ticket by ID.
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanTicket(q.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
}

// GetByAttendee retrieves the ticket paired with an attendee.
func (r *PostgresTicketRepository) GetByAttendee(ctx context.Context, attendeeID string) (*domain.Ticket, error) {
	q := QuerierFrom(ctx, r.pool)
	return scanTicket(q.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE attendee_id = $1`, attendeeID))
}
