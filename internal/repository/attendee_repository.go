package repository

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// AttendeeRepository persists attendees and their tickets.
type AttendeeRepository interface {
	// Create inserts a new attendee. (event_id, owner) is unique; a
	// duplicate registration fails with domain.ErrAlreadyRegistered.
	Create(ctx context.Context, attendee *domain.Attendee) error
	// GetByID retrieves an attendee by ID, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Attendee, error)
	// GetByEventAndOwner retrieves the attendee record for an identity
	// at an event, nil when absent.
	GetByEventAndOwner(ctx context.Context, eventID, owner string) (*domain.Attendee, error)
	// UpdateStatus advances the attendee status from exactly `from` to
	// `to`. If the stored status is no longer `from` (a concurrent
	// transition won) it fails with domain.ErrStaleRecord.
	UpdateStatus(ctx context.Context, id string, from, to domain.AttendeeStatus) error
	// ListByEvent lists an event's attendees, oldest first.
	ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Attendee, error)
}

// TicketRepository persists tickets.
type TicketRepository interface {
	// Create inserts a new ticket bound to an attendee.
	Create(ctx context.Context, ticket *domain.Ticket) error
	// GetByID retrieves a ticket by ID, nil when absent.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByAttendee retrieves the ticket paired with an attendee, nil
	// when absent.
	GetByAttendee(ctx context.Context, attendeeID string) (*domain.Ticket, error)
}
