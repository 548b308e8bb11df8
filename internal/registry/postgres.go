package registry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/repository"
)

// PostgresEventMetadata implements EventMetadata using PostgreSQL.
type PostgresEventMetadata struct {
	pool *pgxpool.Pool
}

// NewPostgresEventMetadata creates a new PostgresEventMetadata.
func NewPostgresEventMetadata(pool *pgxpool.Pool) *PostgresEventMetadata {
	return &PostgresEventMetadata{pool: pool}
}

// SetAttributes replaces the attribute record for an event.
func (m *PostgresEventMetadata) SetAttributes(ctx context.Context, eventID string, attrs AttributeList) error {
	q := repository.QuerierFrom(ctx, m.pool)

	if _, err := q.Exec(ctx, `DELETE FROM event_attributes WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for i, a := range attrs {
		_, err := q.Exec(ctx, `
			INSERT INTO event_attributes (event_id, position, key, value)
			VALUES ($1, $2, $3, $4)
		`, eventID, i, a.Key, a.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// Attributes returns the attribute record for an event, empty when none
// has been written.
func (m *PostgresEventMetadata) Attributes(ctx context.Context, eventID string) (AttributeList, error) {
	q := repository.QuerierFrom(ctx, m.pool)

	rows, err := q.Query(ctx, `
		SELECT key, value FROM event_attributes
		WHERE event_id = $1
		ORDER BY position
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs AttributeList
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.Key, &a.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// PostgresTicketRegistry implements TicketRegistry using PostgreSQL.
type PostgresTicketRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRegistry creates a new PostgresTicketRegistry.
func NewPostgresTicketRegistry(pool *pgxpool.Pool) *PostgresTicketRegistry {
	return &PostgresTicketRegistry{pool: pool}
}

// SetAttributes replaces the custom attribute record for a ticket.
func (r *PostgresTicketRegistry) SetAttributes(ctx context.Context, ticketID string, attrs AttributeList) error {
	q := repository.QuerierFrom(ctx, r.pool)

	if _, err := q.Exec(ctx, `DELETE FROM ticket_attributes WHERE ticket_id = $1`, ticketID); err != nil {
		return err
	}
	for i, a := range attrs {
		_, err := q.Exec(ctx, `
			INSERT INTO ticket_attributes (ticket_id, position, key, value)
			VALUES ($1, $2, $3, $4)
		`, ticketID, i, a.Key, a.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// Attributes returns the custom attribute record for a ticket.
func (r *PostgresTicketRegistry) Attributes(ctx context.Context, ticketID string) (AttributeList, error) {
	q := repository.QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT key, value FROM ticket_attributes
		WHERE ticket_id = $1
		ORDER BY position
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs AttributeList
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.Key, &a.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// WriteScanRecord writes an authority's verdict. The unique index on
// (ticket_id, authority) makes the record write-once per authority; a
// concurrent duplicate loses to the committed row, never overwrites it.
func (r *PostgresTicketRegistry) WriteScanRecord(ctx context.Context, rec domain.ScanRecord) error {
	q := repository.QuerierFrom(ctx, r.pool)

	scannedAt := rec.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}

	_, err := q.Exec(ctx, `
		INSERT INTO ticket_scans (ticket_id, authority, verdict, scanned_at)
		VALUES ($1, $2, $3, $4)
	`, rec.TicketID, rec.Authority, string(rec.Verdict), scannedAt)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.ErrAlreadyScanned
		}
		return err
	}
	return nil
}

// ScanRecord returns the verdict written by authority, or nil when
// absent.
func (r *PostgresTicketRegistry) ScanRecord(ctx context.Context, ticketID, authority string) (*domain.ScanRecord, error) {
	q := repository.QuerierFrom(ctx, r.pool)

	rec := &domain.ScanRecord{}
	var verdict string
	err := q.QueryRow(ctx, `
		SELECT ticket_id, authority, verdict, scanned_at
		FROM ticket_scans
		WHERE ticket_id = $1 AND authority = $2
	`, ticketID, authority).Scan(&rec.TicketID, &rec.Authority, &verdict, &rec.ScannedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Verdict = domain.ScanVerdict(verdict)
	return rec, nil
}

// Freeze applies the permanent freeze to a ticket.
func (r *PostgresTicketRegistry) Freeze(ctx context.Context, ticketID string) error {
	q := repository.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `UPDATE tickets SET frozen = TRUE WHERE id = $1`, ticketID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

// PostgresCollectibleRegistry implements CollectibleRegistry using
// PostgreSQL.
type PostgresCollectibleRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresCollectibleRegistry creates a new PostgresCollectibleRegistry.
func NewPostgresCollectibleRegistry(pool *pgxpool.Pool) *PostgresCollectibleRegistry {
	return &PostgresCollectibleRegistry{pool: pool}
}

// FetchCollectible returns the registry's view of a collectible, or nil
// when the id is unknown.
func (r *PostgresCollectibleRegistry) FetchCollectible(ctx context.Context, id string) (*Collectible, error) {
	q := repository.QuerierFrom(ctx, r.pool)

	c := &Collectible{}
	err := q.QueryRow(ctx, `
		SELECT id, owner, COALESCE(collection, '') as collection, collection_verified,
			COALESCE(creator, '') as creator, creator_verified
		FROM collectibles
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Owner, &c.Collection, &c.CollectionVerified, &c.Creator, &c.CreatorVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
