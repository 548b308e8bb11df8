package dto

import (
	"time"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// JoinEventRequest represents the request to register for an event.
// The registrant identity and any co-signing authority come from the
// request's auth context, not the body.
type JoinEventRequest struct {
	// CollectibleID is eligibility proof for collectible-gated events.
	CollectibleID string `json:"collectible_id"`
	// HolderAccount is eligibility proof for balance-gated events.
	HolderAccount string `json:"holder_account"`

	Attributes []AttributeRequest `json:"attributes"`
}

// Proof extracts the eligibility proof material from the request.
func (r *JoinEventRequest) Proof() domain.EligibilityProof {
	return domain.EligibilityProof{
		CollectibleID: r.CollectibleID,
		HolderAccount: r.HolderAccount,
	}
}

// ClaimTicketRequest represents the request to settle an attendee's
// escrowed funds.
type ClaimTicketRequest struct {
	// RewardAccount receives the per-user reward when the event pays
	// one. Defaults to the claimer's identity account.
	RewardAccount string `json:"reward_account"`
}

// AttendeeResponse represents an attendee and its paired ticket
type AttendeeResponse struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Owner     string          `json:"owner"`
	Status    string          `json:"status"`
	Ticket    *TicketResponse `json:"ticket,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// TicketResponse represents a ticket
type TicketResponse struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	Sequence uint32 `json:"sequence"`
	FeePaid  uint64 `json:"fee_paid"`
	Frozen   bool   `json:"frozen"`
}

// NewAttendeeResponse maps an attendee and optional ticket onto the
// response shape.
func NewAttendeeResponse(a *domain.Attendee, t *domain.Ticket) *AttendeeResponse {
	resp := &AttendeeResponse{
		ID:        a.ID,
		EventID:   a.EventID,
		Owner:     a.Owner,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if t != nil {
		resp.Ticket = &TicketResponse{
			ID:       t.ID,
			EventID:  t.EventID,
			Sequence: t.Sequence,
			FeePaid:  t.FeePaid,
			Frozen:   t.Frozen,
		}
	}
	return resp
}

// AttendeeListResponse represents a page of an event's attendees
type AttendeeListResponse struct {
	Attendees []*AttendeeResponse `json:"attendees"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// AttendeeListFilter represents pagination for listing attendees
type AttendeeListFilter struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// SetDefaults sets default values for pagination
func (f *AttendeeListFilter) SetDefaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
