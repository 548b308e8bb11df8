package registry

import (
	"context"
	"sync"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// MemoryEventMetadata is an in-memory EventMetadata for tests and
// single-node development.
type MemoryEventMetadata struct {
	mu    sync.RWMutex
	attrs map[string]AttributeList
}

// NewMemoryEventMetadata creates an empty in-memory attribute store.
func NewMemoryEventMetadata() *MemoryEventMetadata {
	return &MemoryEventMetadata{attrs: make(map[string]AttributeList)}
}

func (m *MemoryEventMetadata) SetAttributes(_ context.Context, eventID string, attrs AttributeList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(AttributeList, len(attrs))
	copy(cp, attrs)
	m.attrs[eventID] = cp
	return nil
}

func (m *MemoryEventMetadata) Attributes(_ context.Context, eventID string) (AttributeList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.attrs[eventID]
	cp := make(AttributeList, len(stored))
	copy(cp, stored)
	return cp, nil
}

type scanKey struct {
	ticketID  string
	authority string
}

// MemoryTicketRegistry is an in-memory TicketRegistry for tests and
// single-node development.
type MemoryTicketRegistry struct {
	mu     sync.RWMutex
	attrs  map[string]AttributeList
	scans  map[scanKey]domain.ScanRecord
	frozen map[string]bool
}

// NewMemoryTicketRegistry creates an empty in-memory ticket registry.
func NewMemoryTicketRegistry() *MemoryTicketRegistry {
	return &MemoryTicketRegistry{
		attrs:  make(map[string]AttributeList),
		scans:  make(map[scanKey]domain.ScanRecord),
		frozen: make(map[string]bool),
	}
}

func (m *MemoryTicketRegistry) SetAttributes(_ context.Context, ticketID string, attrs AttributeList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(AttributeList, len(attrs))
	copy(cp, attrs)
	m.attrs[ticketID] = cp
	return nil
}

func (m *MemoryTicketRegistry) Attributes(_ context.Context, ticketID string) (AttributeList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.attrs[ticketID]
	cp := make(AttributeList, len(stored))
	copy(cp, stored)
	return cp, nil
}

func (m *MemoryTicketRegistry) WriteScanRecord(_ context.Context, rec domain.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scanKey{rec.TicketID, rec.Authority}
	if _, exists := m.scans[key]; exists {
		return domain.ErrAlreadyScanned
	}
	m.scans[key] = rec
	return nil
}

func (m *MemoryTicketRegistry) ScanRecord(_ context.Context, ticketID, authority string) (*domain.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.scans[scanKey{ticketID, authority}]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (m *MemoryTicketRegistry) Freeze(_ context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frozen[ticketID] = true
	return nil
}

// IsFrozen reports whether the ticket carries the permanent freeze.
func (m *MemoryTicketRegistry) IsFrozen(ticketID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen[ticketID]
}

// MemoryCollectibleRegistry is an in-memory CollectibleRegistry for
// tests and single-node development.
type MemoryCollectibleRegistry struct {
	mu   sync.RWMutex
	byID map[string]Collectible
}

// NewMemoryCollectibleRegistry creates an empty in-memory registry.
func NewMemoryCollectibleRegistry() *MemoryCollectibleRegistry {
	return &MemoryCollectibleRegistry{byID: make(map[string]Collectible)}
}

// Put stores a collectible.
func (m *MemoryCollectibleRegistry) Put(c Collectible) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ID] = c
}

func (m *MemoryCollectibleRegistry) FetchCollectible(_ context.Context, id string) (*Collectible, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := c
	return &cp, nil
}
