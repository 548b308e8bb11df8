package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/eligibility"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/telemetry"
)

// attendanceService implements the AttendanceService interface
type attendanceService struct {
	tx            repository.Tx
	communityRepo repository.CommunityRepository
	eventRepo     repository.EventRepository
	attendeeRepo  repository.AttendeeRepository
	ticketRepo    repository.TicketRepository
	metadata      registry.EventMetadata
	tickets       registry.TicketRegistry
	gate          *eligibility.Gate
	accountant    *escrow.Accountant
	publisher     events.Publisher
	clock         Clock
	log           *logger.Logger

	// rejectWhenCancelled lets authorities keep rejecting attendees
	// after an event is cancelled. Verification is always blocked.
	rejectWhenCancelled bool
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	tx repository.Tx,
	communityRepo repository.CommunityRepository,
	eventRepo repository.EventRepository,
	attendeeRepo repository.AttendeeRepository,
	ticketRepo repository.TicketRepository,
	metadata registry.EventMetadata,
	tickets registry.TicketRegistry,
	gate *eligibility.Gate,
	accountant *escrow.Accountant,
	publisher events.Publisher,
	clock Clock,
	log *logger.Logger,
	rejectWhenCancelled bool,
) AttendanceService {
	return &attendanceService{
		tx:                  tx,
		communityRepo:       communityRepo,
		eventRepo:           eventRepo,
		attendeeRepo:        attendeeRepo,
		ticketRepo:          ticketRepo,
		metadata:            metadata,
		tickets:             tickets,
		gate:                gate,
		accountant:          accountant,
		publisher:           publisher,
		clock:               clock,
		log:                 log,
		rejectWhenCancelled: rejectWhenCancelled,
	}
}

// Join registers the requester for an event. Preconditions run in a
// fixed order, first failure wins: co-signature, cancellation,
// registration window, capacity, eligibility. The attendee, its ticket
// and the commitment-fee deposit commit atomically.
func (s *attendanceService) Join(ctx context.Context, eventID, requester, cosigner string, req *dto.JoinEventRequest) (*domain.Attendee, *domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.attendance.join")
	defer span.End()
	span.SetAttributes(telemetry.EventIDAttr(eventID), telemetry.IdentityAttr(requester))

	var (
		attendee *domain.Attendee
		ticket   *domain.Ticket
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return domain.ErrEventNotFound
		}
		community, err := s.communityRepo.GetByID(ctx, event.CommunityID)
		if err != nil {
			return err
		}
		if community == nil {
			return domain.ErrCommunityNotFound
		}

		if event.AuthorityMustSign {
			if cosigner == "" {
				return domain.ErrCosignRequired
			}
			if !community.IsAuthority(cosigner) && !event.IsEventAuthority(cosigner) {
				return domain.ErrInvalidEventAuthority
			}
		}
		if event.IsCancelled {
			return domain.ErrEventCancelled
		}

		bounds, err := s.eventBounds(ctx, event.ID)
		if err != nil {
			return err
		}
		if err := bounds.RegistrationOpenAt(s.clock.Now().Unix()); err != nil {
			return err
		}
		if !bounds.HasCapacity(event.CurrentAttendees) {
			return domain.ErrCapacityReached
		}

		if err := s.gate.Check(ctx, event.Policy, requester, req.Proof()); err != nil {
			return err
		}

		now := s.clock.Now()
		attendee = &domain.Attendee{
			ID:        uuid.New().String(),
			EventID:   event.ID,
			Owner:     requester,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.attendeeRepo.Create(ctx, attendee); err != nil {
			return err
		}

		ticket = &domain.Ticket{
			ID:         uuid.New().String(),
			AttendeeID: attendee.ID,
			EventID:    event.ID,
			Sequence:   event.TicketsIssued + 1,
			FeePaid:    event.CommitmentFee,
			CreatedAt:  now,
		}
		if err := s.ticketRepo.Create(ctx, ticket); err != nil {
			return err
		}
		if len(req.Attributes) > 0 {
			if err := s.tickets.SetAttributes(ctx, ticket.ID, dto.ToAttributeList(req.Attributes)); err != nil {
				return err
			}
		}

		if err := s.accountant.DepositCommitmentFee(ctx, event.ID, requester, event.CommitmentFee); err != nil {
			return err
		}
		return s.eventRepo.IncrementCounters(ctx, event.ID)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, nil, err
	}
	span.SetAttributes(telemetry.AttendeeStatusAttr(string(attendee.Status)))

	s.log.InfoContext(ctx, "attendee joined",
		zap.String("attendee_id", attendee.ID),
		zap.String("event_id", eventID),
		zap.Uint32("sequence", ticket.Sequence))
	s.publisher.Publish(ctx, events.AttendeeJoined, attendee.ID, dto.NewAttendeeResponse(attendee, ticket))

	return attendee, ticket, nil
}

// Verify records the authority's attendance verdict and advances the
// attendee to Verified.
func (s *attendanceService) Verify(ctx context.Context, attendeeID, authority string) (*domain.Attendee, error) {
	attendee, err := s.scan(ctx, attendeeID, authority, domain.ScanVerdictVerified)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.AttendeeVerified, attendee.ID, dto.NewAttendeeResponse(attendee, nil))
	return attendee, nil
}

// Reject records the authority's rejection verdict and advances the
// attendee to Rejected.
func (s *attendanceService) Reject(ctx context.Context, attendeeID, authority string) (*domain.Attendee, error) {
	attendee, err := s.scan(ctx, attendeeID, authority, domain.ScanVerdictRejected)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.AttendeeRejected, attendee.ID, dto.NewAttendeeResponse(attendee, nil))
	return attendee, nil
}

// scan is the shared verify/reject transition. A verified verdict is
// recorded under the community authority's key so any later event-level
// scan collides with it; a rejection stays under the scanning
// authority's own key. The ticket freezes on first scan either way.
func (s *attendanceService) scan(ctx context.Context, attendeeID, authority string, verdict domain.ScanVerdict) (*domain.Attendee, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.attendance.scan")
	defer span.End()
	span.SetAttributes(
		telemetry.IdentityAttr(authority),
		telemetry.ScanVerdictAttr(string(verdict)))

	var attendee *domain.Attendee

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		attendee, err = s.attendeeRepo.GetByID(ctx, attendeeID)
		if err != nil {
			return err
		}
		if attendee == nil {
			return domain.ErrAttendeeNotFound
		}

		event, err := s.eventRepo.GetByID(ctx, attendee.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			return domain.ErrEventNotFound
		}
		community, err := s.communityRepo.GetByID(ctx, event.CommunityID)
		if err != nil {
			return err
		}
		if community == nil {
			return domain.ErrCommunityNotFound
		}

		if !community.IsAuthority(authority) && !event.IsEventAuthority(authority) {
			return domain.ErrInvalidEventAuthority
		}
		if event.IsCancelled {
			if verdict == domain.ScanVerdictVerified || !s.rejectWhenCancelled {
				return domain.ErrEventCancelled
			}
		}
		if err := attendee.ScanError(); err != nil {
			return err
		}

		if verdict == domain.ScanVerdictVerified {
			bounds, err := s.eventBounds(ctx, event.ID)
			if err != nil {
				return err
			}
			if err := bounds.OccurrenceAt(s.clock.Now().Unix()); err != nil {
				return err
			}
		}

		ticket, err := s.ticketRepo.GetByAttendee(ctx, attendee.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrTicketNotFound
		}

		// Duplicate-scan prevention spans the scanning authority and
		// the community authority.
		if err := s.ensureNotScanned(ctx, ticket.ID, authority); err != nil {
			return err
		}
		if community.Authority != authority {
			if err := s.ensureNotScanned(ctx, ticket.ID, community.Authority); err != nil {
				return err
			}
		}

		target := domain.StatusVerified
		recordKey := community.Authority
		if verdict == domain.ScanVerdictRejected {
			target = domain.StatusRejected
			recordKey = authority
		}
		if err := s.attendeeRepo.UpdateStatus(ctx, attendee.ID, domain.StatusPending, target); err != nil {
			return err
		}
		attendee.Status = target

		rec := domain.ScanRecord{
			TicketID:  ticket.ID,
			Authority: recordKey,
			Verdict:   verdict,
			ScannedAt: s.clock.Now(),
		}
		if err := s.tickets.WriteScanRecord(ctx, rec); err != nil {
			return err
		}
		return s.tickets.Freeze(ctx, ticket.ID)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttendeeStatusAttr(string(attendee.Status)))

	s.log.InfoContext(ctx, "attendee scanned",
		zap.String("attendee_id", attendee.ID),
		zap.String("authority", authority),
		zap.String("verdict", string(verdict)))

	return attendee, nil
}

func (s *attendanceService) ensureNotScanned(ctx context.Context, ticketID, authority string) error {
	rec, err := s.tickets.ScanRecord(ctx, ticketID, authority)
	if err != nil {
		return err
	}
	if rec != nil {
		return domain.ErrAlreadyScanned
	}
	return nil
}

func (s *attendanceService) eventBounds(ctx context.Context, eventID string) (domain.EventBounds, error) {
	attrs, err := s.metadata.Attributes(ctx, eventID)
	if err != nil {
		return domain.EventBounds{}, err
	}
	return registry.EventBounds(attrs)
}

// GetByID retrieves an attendee and its paired ticket
func (s *attendanceService) GetByID(ctx context.Context, id string) (*domain.Attendee, *domain.Ticket, error) {
	attendee, err := s.attendeeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if attendee == nil {
		return nil, nil, domain.ErrAttendeeNotFound
	}
	ticket, err := s.ticketRepo.GetByAttendee(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return attendee, ticket, nil
}

// ListByEvent lists an event's attendees, oldest first
func (s *attendanceService) ListByEvent(ctx context.Context, eventID string, filter *dto.AttendeeListFilter) ([]*domain.Attendee, error) {
	filter.SetDefaults()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return s.attendeeRepo.ListByEvent(ctx, eventID, filter.Limit, filter.Offset)
}
