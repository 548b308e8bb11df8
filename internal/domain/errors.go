package domain

import "errors"

// ErrorKind classifies domain errors so transports can map them uniformly.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindTiming        ErrorKind = "timing"
	KindCapacity      ErrorKind = "capacity"
	KindEligibility   ErrorKind = "eligibility"
	KindResource      ErrorKind = "resource"
	KindArithmetic    ErrorKind = "arithmetic"
	KindNotFound      ErrorKind = "not_found"
)

// Error is a domain error with a stable code and a kind.
// Instances below are sentinels; compare with errors.Is.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// Authorization
	ErrInvalidCommunityAuthority = &Error{KindAuthorization, "INVALID_COMMUNITY_AUTHORITY", "invalid community authority"}
	ErrInvalidEventAuthority     = &Error{KindAuthorization, "INVALID_EVENT_AUTHORITY", "invalid event authority"}
	ErrCosignRequired            = &Error{KindAuthorization, "COSIGN_REQUIRED", "event authority co-signature is required to join this event"}
	ErrInvalidClaimer            = &Error{KindAuthorization, "INVALID_CLAIMER", "not a valid claimer"}

	// State
	ErrEventCancelled    = &Error{KindState, "EVENT_CANCELLED", "event has been cancelled"}
	ErrAlreadyRegistered = &Error{KindState, "ALREADY_REGISTERED", "identity already registered for this event"}
	ErrAlreadyScanned    = &Error{KindState, "ALREADY_SCANNED", "ticket has already been scanned"}
	ErrAlreadyClaimed    = &Error{KindState, "ALREADY_CLAIMED", "rewards have already been claimed"}
	ErrAttendeePending   = &Error{KindState, "ATTENDEE_PENDING", "rewards cannot be claimed while attendance is pending"}
	ErrSeedTaken         = &Error{KindState, "SEED_TAKEN", "community seed is already in use"}
	ErrStaleRecord       = &Error{KindState, "STALE_RECORD", "record changed concurrently, retry from scratch"}

	// Timing
	ErrRegistrationNotOpen        = &Error{KindTiming, "REGISTRATION_NOT_OPEN", "registration has not opened yet"}
	ErrRegistrationClosed         = &Error{KindTiming, "REGISTRATION_CLOSED", "registration time has expired"}
	ErrEventNotStarted            = &Error{KindTiming, "EVENT_NOT_STARTED", "event has not started yet"}
	ErrEventEnded                 = &Error{KindTiming, "EVENT_ENDED", "event has already ended"}
	ErrEventNotEnded              = &Error{KindTiming, "EVENT_NOT_ENDED", "event has not ended yet"}
	ErrInvalidEventStartTime      = &Error{KindTiming, "INVALID_EVENT_START_TIME", "the event must start in the future"}
	ErrInvalidRegistrationEndTime = &Error{KindTiming, "INVALID_REGISTRATION_END_TIME", "registration end time cannot exceed the event start time"}

	// Capacity
	ErrCapacityReached = &Error{KindCapacity, "MAX_ATTENDEES_REACHED", "the maximum allowed attendees have already joined"}

	// Eligibility
	ErrIneligibleCollectible = &Error{KindEligibility, "INELIGIBLE_COLLECTIBLE", "presented collectible does not satisfy the event access policy"}
	ErrIneligibleBalance     = &Error{KindEligibility, "INELIGIBLE_BALANCE", "held balance does not satisfy the event access policy"}

	// Resource
	ErrAccountNotProvided = &Error{KindResource, "ACCOUNT_NOT_PROVIDED", "a required account for this operation was not provided"}
	ErrInsufficientFunds  = &Error{KindResource, "INSUFFICIENT_FUNDS", "insufficient balance for transfer"}
	ErrUnboundedRewards   = &Error{KindResource, "UNBOUNDED_REWARDS", "reward escrow requires a bounded event capacity"}

	// Arithmetic
	ErrNumericalOverflow = &Error{KindArithmetic, "NUMERICAL_OVERFLOW", "numerical overflow"}

	// Not found
	ErrCommunityNotFound = &Error{KindNotFound, "COMMUNITY_NOT_FOUND", "community not found"}
	ErrEventNotFound     = &Error{KindNotFound, "EVENT_NOT_FOUND", "event not found"}
	ErrAttendeeNotFound  = &Error{KindNotFound, "ATTENDEE_NOT_FOUND", "attendee not found"}
	ErrTicketNotFound    = &Error{KindNotFound, "TICKET_NOT_FOUND", "ticket not found"}
)

// KindOf returns the kind of a domain error, or an empty kind for
// non-domain errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// AsDomain unwraps err to a domain *Error if one is in the chain.
func AsDomain(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
