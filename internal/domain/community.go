package domain

import "time"

// Community is an organizer namespace that owns a sequence of events.
type Community struct {
	ID          string    `json:"id"`
	Seed        string    `json:"seed"`
	Authority   string    `json:"authority"`
	Name        string    `json:"name"`
	EventsCount uint32    `json:"events_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NextEventNonce returns the slot the next created event will occupy.
// EventsCount only ever increases, by exactly one per created event.
func (c *Community) NextEventNonce() uint32 {
	return c.EventsCount + 1
}

// IsAuthority reports whether identity is the community authority.
func (c *Community) IsAuthority(identity string) bool {
	return identity != "" && identity == c.Authority
}
