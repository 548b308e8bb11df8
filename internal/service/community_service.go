package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/telemetry"
)

// communityService implements the CommunityService interface
type communityService struct {
	communityRepo repository.CommunityRepository
	publisher     events.Publisher
	clock         Clock
	log           *logger.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(communityRepo repository.CommunityRepository, publisher events.Publisher, clock Clock, log *logger.Logger) CommunityService {
	return &communityService{
		communityRepo: communityRepo,
		publisher:     publisher,
		clock:         clock,
		log:           log,
	}
}

// Create registers a new community under the requester's authority.
func (s *communityService) Create(ctx context.Context, authority string, req *dto.CreateCommunityRequest) (*domain.Community, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.community.create")
	defer span.End()
	span.SetAttributes(telemetry.IdentityAttr(authority))

	if valid, msg := req.Validate(); !valid {
		return nil, NewValidationError(msg)
	}

	now := s.clock.Now()
	community := &domain.Community{
		ID:          uuid.New().String(),
		Seed:        req.Seed,
		Authority:   authority,
		Name:        req.Name,
		EventsCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(telemetry.CommunityIDAttr(community.ID))

	s.log.InfoContext(ctx, "community created",
		zap.String("community_id", community.ID),
		zap.String("seed", community.Seed))
	s.publisher.Publish(ctx, events.CommunityCreated, community.ID, dto.NewCommunityResponse(community))

	return community, nil
}

// GetByID retrieves a community by ID
func (s *communityService) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, domain.ErrCommunityNotFound
	}
	return community, nil
}

// GetBySeed retrieves a community by its derivation seed
func (s *communityService) GetBySeed(ctx context.Context, seed string) (*domain.Community, error) {
	community, err := s.communityRepo.GetBySeed(ctx, seed)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, domain.ErrCommunityNotFound
	}
	return community, nil
}
