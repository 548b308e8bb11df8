package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/telemetry"
)

// claimService implements the ClaimService interface
type claimService struct {
	tx            repository.Tx
	communityRepo repository.CommunityRepository
	eventRepo     repository.EventRepository
	attendeeRepo  repository.AttendeeRepository
	ticketRepo    repository.TicketRepository
	metadata      registry.EventMetadata
	accountant    *escrow.Accountant
	publisher     events.Publisher
	clock         Clock
	log           *logger.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	tx repository.Tx,
	communityRepo repository.CommunityRepository,
	eventRepo repository.EventRepository,
	attendeeRepo repository.AttendeeRepository,
	ticketRepo repository.TicketRepository,
	metadata registry.EventMetadata,
	accountant *escrow.Accountant,
	publisher events.Publisher,
	clock Clock,
	log *logger.Logger,
) ClaimService {
	return &claimService{
		tx:            tx,
		communityRepo: communityRepo,
		eventRepo:     eventRepo,
		attendeeRepo:  attendeeRepo,
		ticketRepo:    ticketRepo,
		metadata:      metadata,
		accountant:    accountant,
		publisher:     publisher,
		clock:         clock,
		log:           log,
	}
}

// Claim settles an attendee's escrowed funds and advances the attendee
// to Claimed. Who may claim depends on the attendee's status:
//
//   - Verified: the attendee's own identity.
//   - Rejected: the community authority.
//   - Pending: the community authority, and only once the event's
//     occurrence window has ended. If the event was cancelled the
//     attendee is promoted to Verified first, so the owner claims
//     without an attendance verdict.
//   - Claimed: always rejected.
//
// The status update, the reward payout and the fee release commit as
// one transaction.
func (s *claimService) Claim(ctx context.Context, attendeeID, claimer string, req *dto.ClaimTicketRequest) (*domain.Attendee, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.claim.rewards")
	defer span.End()
	span.SetAttributes(telemetry.IdentityAttr(claimer))

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

		if attendee.Status == domain.StatusPending && event.IsCancelled {
			// Cancellation waives the attendance verdict.
			if err := s.attendeeRepo.UpdateStatus(ctx, attendee.ID, domain.StatusPending, domain.StatusVerified); err != nil {
				return err
			}
			attendee.Status = domain.StatusVerified
		}

		switch attendee.Status {
		case domain.StatusClaimed:
			return domain.ErrAlreadyClaimed
		case domain.StatusVerified:
			if claimer != attendee.Owner {
				return domain.ErrInvalidClaimer
			}
		case domain.StatusRejected:
			if !community.IsAuthority(claimer) {
				return domain.ErrInvalidClaimer
			}
		case domain.StatusPending:
			if !community.IsAuthority(claimer) {
				return domain.ErrAttendeePending
			}
			bounds, err := s.bounds(ctx, event.ID)
			if err != nil {
				return err
			}
			if !bounds.EndedAt(s.clock.Now().Unix()) {
				return domain.ErrEventNotEnded
			}
		}

		ticket, err := s.ticketRepo.GetByAttendee(ctx, attendee.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return domain.ErrTicketNotFound
		}

		if err := s.attendeeRepo.UpdateStatus(ctx, attendee.ID, attendee.Status, domain.StatusClaimed); err != nil {
			return err
		}
		attendee.Status = domain.StatusClaimed

		if event.HasRewards() {
			if event.RewardAsset == "" {
				return domain.ErrAccountNotProvided
			}
			rewardAccount := req.RewardAccount
			if rewardAccount == "" {
				rewardAccount = claimer
			}
			if err := s.accountant.PayReward(ctx, event.ID, event.RewardAsset, rewardAccount, event.RewardPerUser); err != nil {
				return err
			}
		}
		return s.accountant.ReleaseCommitmentFee(ctx, event.ID, claimer, ticket.FeePaid)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttendeeStatusAttr(string(attendee.Status)))

	s.log.InfoContext(ctx, "attendee claimed",
		zap.String("attendee_id", attendee.ID),
		zap.String("claimer", claimer))
	s.publisher.Publish(ctx, events.RewardsClaimed, attendee.ID, dto.NewAttendeeResponse(attendee, nil))

	return attendee, nil
}

func (s *claimService) bounds(ctx context.Context, eventID string) (domain.EventBounds, error) {
	attrs, err := s.metadata.Attributes(ctx, eventID)
	if err != nil {
		return domain.EventBounds{}, err
	}
	return registry.EventBounds(attrs)
}
