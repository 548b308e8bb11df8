package domain

import "time"

// AttendeeStatus is the lifecycle state of one registrant for one event.
type AttendeeStatus string

const (
	StatusPending  AttendeeStatus = "pending"
	StatusVerified AttendeeStatus = "verified"
	StatusRejected AttendeeStatus = "rejected"
	StatusClaimed  AttendeeStatus = "claimed"
)

// validTransitions defines allowed status transitions.
// Key is current status, value is list of allowed next statuses.
var validTransitions = map[AttendeeStatus][]AttendeeStatus{
	StatusPending:  {StatusVerified, StatusRejected, StatusClaimed},
	StatusVerified: {StatusClaimed},
	StatusRejected: {StatusClaimed},
	StatusClaimed:  {}, // Terminal state
}

// IsTerminal returns true if the status is terminal.
func (s AttendeeStatus) IsTerminal() bool {
	return s == StatusClaimed
}

// IsValid returns true if the status is a known value.
func (s AttendeeStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if transition to the target status is allowed.
func (s AttendeeStatus) CanTransitionTo(target AttendeeStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// Attendee is one registrant's standing for one event. At most one
// attendee record exists per (event, owner) pair.
type Attendee struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	Owner     string         `json:"owner"`
	Status    AttendeeStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ScanError returns the error explaining why an attendee in this
// status cannot be scanned. A pending attendee returns nil.
func (a *Attendee) ScanError() error {
	switch a.Status {
	case StatusPending:
		return nil
	case StatusClaimed:
		return ErrAlreadyClaimed
	default:
		return ErrAlreadyScanned
	}
}
