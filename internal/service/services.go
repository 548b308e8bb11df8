// Package service implements the event lifecycle state machine:
// community and event creation, registration, attendance scanning,
// cancellation and escrow settlement. Every state transition runs as
// one database transaction so either the full set of checks, writes
// and fund movements commits, or none of it does.
package service

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/registry"
)

// CommunityService manages organizer communities.
type CommunityService interface {
	Create(ctx context.Context, authority string, req *dto.CreateCommunityRequest) (*domain.Community, error)
	GetByID(ctx context.Context, id string) (*domain.Community, error)
	GetBySeed(ctx context.Context, seed string) (*domain.Community, error)
}

// EventService manages the event lifecycle up to cancellation.
type EventService interface {
	Create(ctx context.Context, communityID, requester string, req *dto.CreateEventRequest) (*domain.Event, error)
	Cancel(ctx context.Context, eventID, requester string) (*domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, registry.AttributeList, error)
	ListByCommunity(ctx context.Context, communityID string, filter *dto.EventListFilter) ([]*domain.Event, error)
}

// AttendanceService manages registration and attendance scanning.
type AttendanceService interface {
	Join(ctx context.Context, eventID, requester, cosigner string, req *dto.JoinEventRequest) (*domain.Attendee, *domain.Ticket, error)
	Verify(ctx context.Context, attendeeID, authority string) (*domain.Attendee, error)
	Reject(ctx context.Context, attendeeID, authority string) (*domain.Attendee, error)
	GetByID(ctx context.Context, id string) (*domain.Attendee, *domain.Ticket, error)
	ListByEvent(ctx context.Context, eventID string, filter *dto.AttendeeListFilter) ([]*domain.Attendee, error)
}

// ClaimService settles an attendee's escrowed funds.
type ClaimService interface {
	Claim(ctx context.Context, attendeeID, claimer string, req *dto.ClaimTicketRequest) (*domain.Attendee, error)
}
