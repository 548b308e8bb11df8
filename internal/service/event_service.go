package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
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

// eventService implements the EventService interface
type eventService struct {
	tx            repository.Tx
	communityRepo repository.CommunityRepository
	eventRepo     repository.EventRepository
	metadata      registry.EventMetadata
	accountant    *escrow.Accountant
	publisher     events.Publisher
	clock         Clock
	log           *logger.Logger
}

// NewEventService creates a new EventService
func NewEventService(
	tx repository.Tx,
	communityRepo repository.CommunityRepository,
	eventRepo repository.EventRepository,
	metadata registry.EventMetadata,
	accountant *escrow.Accountant,
	publisher events.Publisher,
	clock Clock,
	log *logger.Logger,
) EventService {
	return &eventService{
		tx:            tx,
		communityRepo: communityRepo,
		eventRepo:     eventRepo,
		metadata:      metadata,
		accountant:    accountant,
		publisher:     publisher,
		clock:         clock,
		log:           log,
	}
}

// Create creates a new event under a community. The community's event
// counter, the event row, its attribute record and the reward escrow
// deposit commit as one transaction.
func (s *eventService) Create(ctx context.Context, communityID, requester string, req *dto.CreateEventRequest) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()
	span.SetAttributes(telemetry.CommunityIDAttr(communityID), telemetry.IdentityAttr(requester))

	if valid, msg := req.Validate(); !valid {
		return nil, NewValidationError(msg)
	}

	attrs := dto.ToAttributeList(req.Attributes)
	bounds, err := registry.EventBounds(attrs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if bounds.EventStartsAt != 0 && bounds.EventStartsAt <= uint64(now.Unix()) {
		return nil, domain.ErrInvalidEventStartTime
	}
	if bounds.RegistrationEndsAt != 0 && bounds.EventStartsAt != 0 && bounds.RegistrationEndsAt > bounds.EventStartsAt {
		return nil, domain.ErrInvalidRegistrationEndTime
	}

	// An event with a start time but no registration deadline closes
	// registration at the start; otherwise it would take joins forever.
	if bounds.EventStartsAt != 0 {
		if _, ok := attrs.Get(registry.KeyRegistrationEndsAt); !ok {
			attrs = attrs.Set(registry.KeyRegistrationEndsAt, strconv.FormatUint(bounds.EventStartsAt, 10))
			bounds.RegistrationEndsAt = bounds.EventStartsAt
		}
	}

	var rewardPool uint64
	if req.RewardPerUser > 0 {
		if bounds.Capacity == 0 {
			return nil, domain.ErrUnboundedRewards
		}
		rewardPool, err = domain.CheckedRewardPool(req.RewardPerUser, bounds.Capacity)
		if err != nil {
			return nil, err
		}
	}

	var event *domain.Event
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		community, err := s.communityRepo.GetForUpdate(ctx, communityID)
		if err != nil {
			return err
		}
		if community == nil {
			return domain.ErrCommunityNotFound
		}
		if !community.IsAuthority(requester) {
			return domain.ErrInvalidCommunityAuthority
		}

		event = &domain.Event{
			ID:                uuid.New().String(),
			CommunityID:       community.ID,
			Nonce:             community.NextEventNonce(),
			Name:              req.Name,
			URI:               req.URI,
			Type:              domain.EventType(req.EventType),
			Organizer:         requester,
			Policy:            req.Policy.ToDomain(),
			CommitmentFee:     req.CommitmentFee,
			RewardPerUser:     req.RewardPerUser,
			RewardAsset:       req.RewardAsset,
			Authorities:       req.Authorities,
			AuthorityMustSign: req.AuthorityMustSign,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := s.eventRepo.Create(ctx, event); err != nil {
			return err
		}
		if err := s.communityRepo.IncrementEventsCount(ctx, community.ID); err != nil {
			return err
		}
		if err := s.metadata.SetAttributes(ctx, event.ID, attrs); err != nil {
			return err
		}
		return s.accountant.FundRewardPool(ctx, event.ID, req.RewardAsset, req.RewardSource, rewardPool)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	s.log.InfoContext(ctx, "event created",
		zap.String("event_id", event.ID),
		zap.String("community_id", communityID),
		zap.Uint32("nonce", event.Nonce),
		zap.Uint64("reward_pool", rewardPool))
	s.publisher.Publish(ctx, events.EventCreated, event.ID, dto.NewEventResponse(event, attrs))

	return event, nil
}

// Cancel flips the event's cancellation flag. One-way; funds stay put.
func (s *eventService) Cancel(ctx context.Context, eventID, requester string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.cancel")
	defer span.End()
	span.SetAttributes(telemetry.EventIDAttr(eventID), telemetry.IdentityAttr(requester))

	var event *domain.Event
	var cancelled bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.eventRepo.GetForUpdate(ctx, eventID)
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
		if !community.IsAuthority(requester) {
			return domain.ErrInvalidCommunityAuthority
		}

		if event.IsCancelled {
			return nil
		}
		if err := s.eventRepo.SetCancelled(ctx, event.ID); err != nil {
			return err
		}
		event.IsCancelled = true
		cancelled = true
		return nil
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	// Repeated cancellation is a no-op; the lifecycle record went out
	// with the first one.
	if cancelled {
		s.log.InfoContext(ctx, "event cancelled", zap.String("event_id", event.ID))
		s.publisher.Publish(ctx, events.EventCancelled, event.ID, map[string]string{"event_id": event.ID})
	}

	return event, nil
}

// GetByID retrieves an event and its attribute record
func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, registry.AttributeList, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, domain.ErrEventNotFound
	}
	attrs, err := s.metadata.Attributes(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return event, attrs, nil
}

// ListByCommunity lists a community's events, newest first
func (s *eventService) ListByCommunity(ctx context.Context, communityID string, filter *dto.EventListFilter) ([]*domain.Event, error) {
	filter.SetDefaults()

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, domain.ErrCommunityNotFound
	}
	return s.eventRepo.ListByCommunity(ctx, communityID, filter.Limit, filter.Offset)
}
