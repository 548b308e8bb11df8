package dto

import (
	"time"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/registry"
)

// AccessPolicyRequest carries the access policy of a new event.
type AccessPolicyRequest struct {
	Kind       string `json:"kind" binding:"required"`
	Collection string `json:"collection"`
	Creator    string `json:"creator"`
	Asset      string `json:"asset"`
	MinAmount  uint64 `json:"min_amount"`
}

// ToDomain converts the request policy into its domain form.
func (p *AccessPolicyRequest) ToDomain() domain.AccessPolicy {
	if p == nil {
		return domain.OpenPolicy()
	}
	return domain.AccessPolicy{
		Kind:       domain.PolicyKind(p.Kind),
		Collection: p.Collection,
		Creator:    p.Creator,
		Asset:      p.Asset,
		MinAmount:  p.MinAmount,
	}
}

// AttributeRequest is one key/value pair of a descriptive attribute record.
type AttributeRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// ToAttributeList converts request attributes into a registry list.
func ToAttributeList(attrs []AttributeRequest) registry.AttributeList {
	out := make(registry.AttributeList, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, registry.Attribute{Key: a.Key, Value: a.Value})
	}
	return out
}

// CreateEventRequest represents the request to create an event under a
// community.
type CreateEventRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	URI       string `json:"uri" binding:"required,max=500"`
	EventType string `json:"event_type" binding:"required"`

	Policy *AccessPolicyRequest `json:"access_policy"`

	CommitmentFee uint64 `json:"commitment_fee"`
	RewardPerUser uint64 `json:"reward_per_user"`
	RewardAsset   string `json:"reward_asset"`
	// RewardSource is the organizer account the reward pool is funded
	// from at creation time. Required when reward_per_user > 0.
	RewardSource string `json:"reward_source"`

	Authorities       []string `json:"event_authorities" binding:"max=4"`
	AuthorityMustSign bool     `json:"authority_must_sign"`

	Attributes []AttributeRequest `json:"attributes"`
}

// Validate validates the CreateEventRequest
func (r *CreateEventRequest) Validate() (bool, string) {
	if r.Name == "" {
		return false, "Event name is required"
	}
	if r.URI == "" {
		return false, "Event URI is required"
	}
	if !domain.EventType(r.EventType).IsValid() {
		return false, "Unknown event type"
	}
	if r.Policy != nil && !domain.PolicyKind(r.Policy.Kind).IsValid() {
		return false, "Unknown access policy kind"
	}
	if len(r.Authorities) > domain.MaxEventAuthorities {
		return false, "At most 4 event authorities are allowed"
	}
	if r.RewardPerUser > 0 && r.RewardAsset == "" {
		return false, "Reward asset is required when a per-user reward is set"
	}
	if r.RewardPerUser > 0 && r.RewardSource == "" {
		return false, "Reward source account is required when a per-user reward is set"
	}
	return true, ""
}

// EventResponse represents the response for an event
type EventResponse struct {
	ID                string               `json:"id"`
	CommunityID       string               `json:"community_id"`
	Nonce             uint32               `json:"nonce"`
	Name              string               `json:"name"`
	URI               string               `json:"uri"`
	EventType         string               `json:"event_type"`
	Organizer         string               `json:"organizer"`
	Policy            domain.AccessPolicy  `json:"access_policy"`
	CommitmentFee     uint64               `json:"commitment_fee"`
	RewardPerUser     uint64               `json:"reward_per_user"`
	RewardAsset       string               `json:"reward_asset,omitempty"`
	Authorities       []string             `json:"event_authorities"`
	AuthorityMustSign bool                 `json:"authority_must_sign"`
	IsCancelled       bool                 `json:"is_cancelled"`
	CurrentAttendees  uint32               `json:"current_attendees"`
	TicketsIssued     uint32               `json:"tickets_issued"`
	Attributes        []registry.Attribute `json:"attributes,omitempty"`
	CreatedAt         string               `json:"created_at"`
}

// NewEventResponse maps an event onto its response shape.
func NewEventResponse(e *domain.Event, attrs registry.AttributeList) *EventResponse {
	return &EventResponse{
		ID:                e.ID,
		CommunityID:       e.CommunityID,
		Nonce:             e.Nonce,
		Name:              e.Name,
		URI:               e.URI,
		EventType:         string(e.Type),
		Organizer:         e.Organizer,
		Policy:            e.Policy,
		CommitmentFee:     e.CommitmentFee,
		RewardPerUser:     e.RewardPerUser,
		RewardAsset:       e.RewardAsset,
		Authorities:       e.Authorities,
		AuthorityMustSign: e.AuthorityMustSign,
		IsCancelled:       e.IsCancelled,
		CurrentAttendees:  e.CurrentAttendees,
		TicketsIssued:     e.TicketsIssued,
		Attributes:        attrs,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}

// EventListResponse represents a page of a community's events
type EventListResponse struct {
	Events []*EventResponse `json:"events"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// EventListFilter represents pagination for listing events
type EventListFilter struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *EventListFilter) SetDefaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
