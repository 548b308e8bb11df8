package dto

import (
	"time"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// CreateCommunityRequest represents the request to create a community
type CreateCommunityRequest struct {
	Seed string `json:"seed" binding:"required,min=1,max=32"`
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// Validate validates the CreateCommunityRequest
func (r *CreateCommunityRequest) Validate() (bool, string) {
	if r.Seed == "" {
		return false, "Community seed is required"
	}
	if len(r.Seed) > 32 {
		return false, "Community seed must be at most 32 characters"
	}
	if r.Name == "" {
		return false, "Community name is required"
	}
	return true, ""
}

// CommunityResponse represents the response for a community
type CommunityResponse struct {
	ID          string `json:"id"`
	Seed        string `json:"seed"`
	Authority   string `json:"authority"`
	Name        string `json:"name"`
	EventsCount uint32 `json:"events_count"`
	CreatedAt   string `json:"created_at"`
}

// NewCommunityResponse maps a community onto its response shape.
func NewCommunityResponse(c *domain.Community) *CommunityResponse {
	return &CommunityResponse{
		ID:          c.ID,
		Seed:        c.Seed,
		Authority:   c.Authority,
		Name:        c.Name,
		EventsCount: c.EventsCount,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}
