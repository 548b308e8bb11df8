package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// MemoryTx satisfies Tx without a database. The closure runs directly;
// there is no rollback, so it suits tests and single-node development
// where a failed transition ends the operation anyway.
type MemoryTx struct{}

// WithTx executes fn.
func (MemoryTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MemoryCommunityRepository is an in-memory CommunityRepository for
// tests and single-node development.
type MemoryCommunityRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Community
}

// NewMemoryCommunityRepository creates an empty in-memory store.
func NewMemoryCommunityRepository() *MemoryCommunityRepository {
	return &MemoryCommunityRepository{byID: make(map[string]*domain.Community)}
}

func (r *MemoryCommunityRepository) Create(_ context.Context, community *domain.Community) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Seed == community.Seed {
			return domain.ErrSeedTaken
		}
	}
	cp := *community
	r.byID[community.ID] = &cp
	return nil
}

func (r *MemoryCommunityRepository) GetByID(_ context.Context, id string) (*domain.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryCommunityRepository) GetBySeed(_ context.Context, seed string) (*domain.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byID {
		if c.Seed == seed {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryCommunityRepository) GetForUpdate(ctx context.Context, id string) (*domain.Community, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryCommunityRepository) IncrementEventsCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.ErrCommunityNotFound
	}
	c.EventsCount++
	return nil
}

// MemoryEventRepository is an in-memory EventRepository for tests and
// single-node development.
type MemoryEventRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Event
}

// NewMemoryEventRepository creates an empty in-memory store.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{byID: make(map[string]*domain.Event)}
}

func (r *MemoryEventRepository) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if e.CommunityID == event.CommunityID && e.Nonce == event.Nonce {
			return domain.ErrStaleRecord
		}
	}
	cp := *event
	r.byID[event.ID] = &cp
	return nil
}

func (r *MemoryEventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *MemoryEventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryEventRepository) IncrementCounters(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.CurrentAttendees++
	e.TicketsIssued++
	return nil
}

func (r *MemoryEventRepository) SetCancelled(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.IsCancelled = true
	return nil
}

func (r *MemoryEventRepository) ListByCommunity(_ context.Context, communityID string, limit, offset int) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Event
	for _, e := range r.byID {
		if e.CommunityID == communityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nonce > out[j].Nonce })
	return page(out, limit, offset), nil
}

// MemoryAttendeeRepository is an in-memory AttendeeRepository for tests
// and single-node development.
type MemoryAttendeeRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Attendee
}

// NewMemoryAttendeeRepository creates an empty in-memory store.
func NewMemoryAttendeeRepository() *MemoryAttendeeRepository {
	return &MemoryAttendeeRepository{byID: make(map[string]*domain.Attendee)}
}

func (r *MemoryAttendeeRepository) Create(_ context.Context, attendee *domain.Attendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.EventID == attendee.EventID && a.Owner == attendee.Owner {
			return domain.ErrAlreadyRegistered
		}
	}
	cp := *attendee
	r.byID[attendee.ID] = &cp
	return nil
}

func (r *MemoryAttendeeRepository) GetByID(_ context.Context, id string) (*domain.Attendee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryAttendeeRepository) GetByEventAndOwner(_ context.Context, eventID, owner string) (*domain.Attendee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byID {
		if a.EventID == eventID && a.Owner == owner {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryAttendeeRepository) UpdateStatus(_ context.Context, id string, from, to domain.AttendeeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.Status != from {
		return domain.ErrStaleRecord
	}
	a.Status = to
	return nil
}

func (r *MemoryAttendeeRepository) ListByEvent(_ context.Context, eventID string, limit, offset int) ([]*domain.Attendee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Attendee
	for _, a := range r.byID {
		if a.EventID == eventID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// MemoryTicketRepository is an in-memory TicketRepository for tests and
// single-node development.
type MemoryTicketRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Ticket
}

// NewMemoryTicketRepository creates an empty in-memory store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{byID: make(map[string]*domain.Ticket)}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ticket
	r.byID[ticket.ID] = &cp
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTicketRepository) GetByAttendee(_ context.Context, attendeeID string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if t.AttendeeID == attendeeID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
