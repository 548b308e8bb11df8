package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/eligibility"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
)

const (
	communityAuthority = "carol"
	eventAuthority     = "gatekeeper"
	organizerTreasury  = "treasury"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) set(unix int64) { c.now = time.Unix(unix, 0) }

// capturePublisher records lifecycle notification names in order.
type capturePublisher struct {
	names []string
}

func (p *capturePublisher) Publish(_ context.Context, name, _ string, _ any) {
	p.names = append(p.names, name)
}

func (p *capturePublisher) Close() {}

func (p *capturePublisher) count(name string) int {
	n := 0
	for _, got := range p.names {
		if got == name {
			n++
		}
	}
	return n
}

// fixture wires every service over in-memory collaborators.
type fixture struct {
	attendees    *repository.MemoryAttendeeRepository
	ticketRepo   *repository.MemoryTicketRepository
	metadata     *registry.MemoryEventMetadata
	tickets      *registry.MemoryTicketRegistry
	collectibles *registry.MemoryCollectibleRegistry
	ledger       *escrow.MemoryNativeLedger
	assets       *escrow.MemoryAssetTransferService
	clock        *fakeClock
	published    *capturePublisher

	communities CommunityService
	events      EventService
	attendance  AttendanceService
	claims      ClaimService
}

func newFixture(t *testing.T, rejectWhenCancelled bool) *fixture {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", ServiceName: "fosho-test"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	communityRepo := repository.NewMemoryCommunityRepository()
	eventRepo := repository.NewMemoryEventRepository()
	attendeeRepo := repository.NewMemoryAttendeeRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	metadata := registry.NewMemoryEventMetadata()
	tickets := registry.NewMemoryTicketRegistry()
	collectibles := registry.NewMemoryCollectibleRegistry()
	ledger := escrow.NewMemoryNativeLedger()
	assets := escrow.NewMemoryAssetTransferService()

	accountant := escrow.NewAccountant(ledger, assets)
	gate := eligibility.NewGate(collectibles, assets)
	clock := &fakeClock{now: time.Unix(1_000, 0)}
	tx := repository.MemoryTx{}
	pub := &capturePublisher{}

	return &fixture{
		attendees:    attendeeRepo,
		ticketRepo:   ticketRepo,
		metadata:     metadata,
		tickets:      tickets,
		collectibles: collectibles,
		ledger:       ledger,
		assets:       assets,
		clock:        clock,
		published:    pub,
		communities:  NewCommunityService(communityRepo, pub, clock, log),
		events:       NewEventService(tx, communityRepo, eventRepo, metadata, accountant, pub, clock, log),
		attendance: NewAttendanceService(tx, communityRepo, eventRepo, attendeeRepo, ticketRepo,
			metadata, tickets, gate, accountant, pub, clock, log, rejectWhenCancelled),
		claims: NewClaimService(tx, communityRepo, eventRepo, attendeeRepo, ticketRepo,
			metadata, accountant, pub, clock, log),
	}
}

func (f *fixture) community(t *testing.T) *domain.Community {
	t.Helper()
	c, err := f.communities.Create(context.Background(), communityAuthority, &dto.CreateCommunityRequest{
		Seed: "seed-" + strconv.FormatInt(time.Now().UnixNano(), 36),
		Name: "Test Community",
	})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	return c
}

// eventOptions tweaks the default event request used by tests.
type eventOptions struct {
	fee           uint64
	rewardPerUser uint64
	capacity      uint64
	authorities   []string
	mustSign      bool
	policy        *dto.AccessPolicyRequest
	noWindows     bool
}

func (f *fixture) event(t *testing.T, c *domain.Community, opts eventOptions) *domain.Event {
	t.Helper()
	req := &dto.CreateEventRequest{
		Name:              "Launch Party",
		URI:               "https://fosho.app/e/launch",
		EventType:         string(domain.EventTypeInPerson),
		CommitmentFee:     opts.fee,
		RewardPerUser:     opts.rewardPerUser,
		Authorities:       opts.authorities,
		AuthorityMustSign: opts.mustSign,
		Policy:            opts.policy,
	}
	if opts.rewardPerUser > 0 {
		req.RewardAsset = "points"
		req.RewardSource = organizerTreasury
	}
	if !opts.noWindows {
		req.Attributes = []dto.AttributeRequest{
			{Key: registry.KeyRegistrationStartsAt, Value: "500"},
			{Key: registry.KeyRegistrationEndsAt, Value: "1500"},
			{Key: registry.KeyEventStartsAt, Value: "2000"},
			{Key: registry.KeyEventEndsAt, Value: "3000"},
		}
	}
	if opts.capacity > 0 {
		req.Attributes = append(req.Attributes, dto.AttributeRequest{
			Key: registry.KeyCapacity, Value: strconv.FormatUint(opts.capacity, 10),
		})
	}

	e, err := f.events.Create(context.Background(), c.ID, communityAuthority, req)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

func (f *fixture) join(t *testing.T, eventID, owner string) (*domain.Attendee, *domain.Ticket) {
	t.Helper()
	a, ticket, err := f.attendance.Join(context.Background(), eventID, owner, "", &dto.JoinEventRequest{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return a, ticket
}

func TestCreateCommunity(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	c, err := f.communities.Create(ctx, communityAuthority, &dto.CreateCommunityRequest{Seed: "fosho", Name: "Fosho"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Authority != communityAuthority {
		t.Errorf("authority = %q, want %q", c.Authority, communityAuthority)
	}
	if c.EventsCount != 0 {
		t.Errorf("events_count = %d, want 0", c.EventsCount)
	}

	_, err = f.communities.Create(ctx, "someone-else", &dto.CreateCommunityRequest{Seed: "fosho", Name: "Copycat"})
	if !errors.Is(err, domain.ErrSeedTaken) {
		t.Errorf("duplicate seed: got %v, want ErrSeedTaken", err)
	}

	got, err := f.communities.GetBySeed(ctx, "fosho")
	if err != nil || got.ID != c.ID {
		t.Errorf("GetBySeed = %v, %v", got, err)
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t, true)
	c := f.community(t)
	ctx := context.Background()

	e := f.event(t, c, eventOptions{fee: 50})
	if e.Nonce != 1 {
		t.Errorf("nonce = %d, want 1", e.Nonce)
	}

	second := f.event(t, c, eventOptions{})
	if second.Nonce != 2 {
		t.Errorf("second nonce = %d, want 2", second.Nonce)
	}

	_, err := f.events.Create(ctx, c.ID, "mallory", &dto.CreateEventRequest{
		Name: "Hijack", URI: "https://x", EventType: string(domain.EventTypeOther),
	})
	if !errors.Is(err, domain.ErrInvalidCommunityAuthority) {
		t.Errorf("non-authority create: got %v, want ErrInvalidCommunityAuthority", err)
	}
}

func TestCreateEventTimeValidation(t *testing.T) {
	f := newFixture(t, true)
	c := f.community(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		attrs   []dto.AttributeRequest
		wantErr error
	}{
		{
			name:    "event start in the past",
			attrs:   []dto.AttributeRequest{{Key: registry.KeyEventStartsAt, Value: "900"}},
			wantErr: domain.ErrInvalidEventStartTime,
		},
		{
			name: "registration closes after event starts",
			attrs: []dto.AttributeRequest{
				{Key: registry.KeyEventStartsAt, Value: "2000"},
				{Key: registry.KeyRegistrationEndsAt, Value: "2500"},
			},
			wantErr: domain.ErrInvalidRegistrationEndTime,
		},
		{
			name:    "unparseable numeric attribute",
			attrs:   []dto.AttributeRequest{{Key: registry.KeyCapacity, Value: "lots"}},
			wantErr: domain.ErrNumericalOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.Create(ctx, c.ID, communityAuthority, &dto.CreateEventRequest{
				Name: "E", URI: "https://x", EventType: string(domain.EventTypeOther),
				Attributes: tt.attrs,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateEventRewardEscrow(t *testing.T) {
	f := newFixture(t, true)
	c := f.community(t)
	ctx := context.Background()

	t.Run("pool of reward times capacity is escrowed", func(t *testing.T) {
		f.assets.SetHeld(organizerTreasury, "points", 100)
		e := f.event(t, c, eventOptions{rewardPerUser: 10, capacity: 5})

		pool, _ := f.assets.Held(ctx, escrow.RewardAccount(e.ID), "points")
		if pool != 50 {
			t.Errorf("escrowed pool = %d, want 50", pool)
		}
		left, _ := f.assets.Held(ctx, organizerTreasury, "points")
		if left != 50 {
			t.Errorf("treasury left = %d, want 50", left)
		}
	})

	t.Run("insufficient source balance fails creation", func(t *testing.T) {
		f.assets.SetHeld(organizerTreasury, "points", 5)
		_, err := f.events.Create(ctx, c.ID, communityAuthority, &dto.CreateEventRequest{
			Name: "Poor", URI: "https://x", EventType: string(domain.EventTypeOther),
			RewardPerUser: 10, RewardAsset: "points", RewardSource: organizerTreasury,
			Attributes: []dto.AttributeRequest{{Key: registry.KeyCapacity, Value: "5"}},
		})
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("got %v, want ErrInsufficientFunds", err)
		}
	})

	t.Run("rewards without a capacity bound are refused", func(t *testing.T) {
		_, err := f.events.Create(ctx, c.ID, communityAuthority, &dto.CreateEventRequest{
			Name: "Unbounded", URI: "https://x", EventType: string(domain.EventTypeOther),
			RewardPerUser: 10, RewardAsset: "points", RewardSource: organizerTreasury,
		})
		if !errors.Is(err, domain.ErrUnboundedRewards) {
			t.Errorf("got %v, want ErrUnboundedRewards", err)
		}
	})
}

func TestCancelEvent(t *testing.T) {
	f := newFixture(t, true)
	c := f.community(t)
	e := f.event(t, c, eventOptions{})
	ctx := context.Background()

	_, err := f.events.Cancel(ctx, e.ID, "mallory")
	if !errors.Is(err, domain.ErrInvalidCommunityAuthority) {
		t.Fatalf("non-authority cancel: got %v", err)
	}

	cancelled, err := f.events.Cancel(ctx, e.ID, communityAuthority)
	if err != nil || !cancelled.IsCancelled {
		t.Fatalf("cancel: %v, cancelled=%v", err, cancelled)
	}

	// One-way and idempotent; only the first cancellation notifies.
	again, err := f.events.Cancel(ctx, e.ID, communityAuthority)
	if err != nil || !again.IsCancelled {
		t.Fatalf("second cancel: %v", err)
	}
	if got := f.published.count(events.EventCancelled); got != 1 {
		t.Errorf("event.cancelled published %d times, want 1", got)
	}
}

func TestCreateEventDefaultsRegistrationEnd(t *testing.T) {
	f := newFixture(t, true)
	c := f.community(t)
	ctx := context.Background()

	e, err := f.events.Create(ctx, c.ID, communityAuthority, &dto.CreateEventRequest{
		Name: "Start Only", URI: "https://x", EventType: string(domain.EventTypeInPerson),
		Attributes: []dto.AttributeRequest{{Key: registry.KeyEventStartsAt, Value: "2000"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	attrs, err := f.metadata.Attributes(ctx, e.ID)
	if err != nil {
		t.Fatalf("attributes: %v", err)
	}
	if v, ok := attrs.Get(registry.KeyRegistrationEndsAt); !ok || v != "2000" {
		t.Errorf("registration end attribute = %q (present=%v), want 2000", v, ok)
	}

	// With the defaulted deadline, registration closes at the start.
	f.clock.set(5_000)
	_, _, err = f.attendance.Join(ctx, e.ID, "alice", "", &dto.JoinEventRequest{})
	if !errors.Is(err, domain.ErrRegistrationClosed) {
		t.Errorf("join after start: got %v, want ErrRegistrationClosed", err)
	}

	// An explicit deadline is left alone.
	early, err := f.events.Create(ctx, c.ID, communityAuthority, &dto.CreateEventRequest{
		Name: "Early Close", URI: "https://x", EventType: string(domain.EventTypeInPerson),
		Attributes: []dto.AttributeRequest{
			{Key: registry.KeyEventStartsAt, Value: "9000"},
			{Key: registry.KeyRegistrationEndsAt, Value: "7000"},
		},
	})
	if err != nil {
		t.Fatalf("create with explicit deadline: %v", err)
	}
	attrs, err = f.metadata.Attributes(ctx, early.ID)
	if err != nil {
		t.Fatalf("attributes: %v", err)
	}
	if v, _ := attrs.Get(registry.KeyRegistrationEndsAt); v != "7000" {
		t.Errorf("explicit registration end = %q, want 7000", v)
	}
}
