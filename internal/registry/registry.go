package registry

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// EventMetadata stores the descriptive attribute record attached to an
// event.
type EventMetadata interface {
	SetAttributes(ctx context.Context, eventID string, attrs AttributeList) error
	Attributes(ctx context.Context, eventID string) (AttributeList, error)
}

// TicketRegistry stores per-ticket registry state: custom attributes,
// the append-only scan record keyed per scanning authority, and the
// permanent freeze.
type TicketRegistry interface {
	SetAttributes(ctx context.Context, ticketID string, attrs AttributeList) error
	Attributes(ctx context.Context, ticketID string) (AttributeList, error)

	// WriteScanRecord records an authority's verdict. It fails with
	// domain.ErrAlreadyScanned when the authority has already written
	// one for this ticket.
	WriteScanRecord(ctx context.Context, rec domain.ScanRecord) error
	// ScanRecord returns the record written by authority, or nil when
	// the authority has not scanned this ticket.
	ScanRecord(ctx context.Context, ticketID, authority string) (*domain.ScanRecord, error)

	// Freeze applies the permanent freeze. Freezing twice is a no-op.
	Freeze(ctx context.Context, ticketID string) error
}

// Collectible is the registry's view of one collectible asset, used as
// eligibility proof material.
type Collectible struct {
	ID                 string `json:"id"`
	Owner              string `json:"owner"`
	Collection         string `json:"collection"`
	CollectionVerified bool   `json:"collection_verified"`
	Creator            string `json:"creator"`
	CreatorVerified    bool   `json:"creator_verified"`
}

// CollectibleRegistry resolves collectibles presented as eligibility
// proof. Implementations return nil for an unknown collectible.
type CollectibleRegistry interface {
	FetchCollectible(ctx context.Context, id string) (*Collectible, error)
}
