package domain

import "time"

// EventType categorizes an event for display and filtering.
type EventType string

const (
	EventTypeInPerson        EventType = "in_person"
	EventTypeVirtual         EventType = "virtual"
	EventTypeExhibition      EventType = "exhibition"
	EventTypeConference      EventType = "conference"
	EventTypeConcert         EventType = "concert"
	EventTypeSportingEvent   EventType = "sporting_event"
	EventTypeWorkshop        EventType = "workshop"
	EventTypeWebinar         EventType = "webinar"
	EventTypeNetworkingEvent EventType = "networking_event"
	EventTypeOther           EventType = "other"
)

// IsValid returns true if the event type is a known value.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeInPerson, EventTypeVirtual, EventTypeExhibition,
		EventTypeConference, EventTypeConcert, EventTypeSportingEvent,
		EventTypeWorkshop, EventTypeWebinar, EventTypeNetworkingEvent,
		EventTypeOther:
		return true
	}
	return false
}

// MaxEventAuthorities is the maximum number of designated event
// authorities an event may carry.
const MaxEventAuthorities = 4

// Event is one ticketed occurrence owned by a community.
//
// CurrentAttendees and TicketsIssued are mutated only inside the atomic
// transition that uses them; capacity checks always re-read the live row.
type Event struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	Nonce       uint32    `json:"nonce"`
	Name        string    `json:"name"`
	URI         string    `json:"uri"`
	Type        EventType `json:"event_type"`
	Organizer   string    `json:"organizer"`

	Policy AccessPolicy `json:"access_policy"`

	CommitmentFee uint64 `json:"commitment_fee"`
	RewardPerUser uint64 `json:"reward_per_user"`
	// RewardAsset is empty when the event pays no token rewards.
	RewardAsset string `json:"reward_asset,omitempty"`

	Authorities       []string `json:"event_authorities"`
	AuthorityMustSign bool     `json:"authority_must_sign"`

	IsCancelled      bool   `json:"is_cancelled"`
	CurrentAttendees uint32 `json:"current_attendees"`
	TicketsIssued    uint32 `json:"tickets_issued"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEventAuthority reports whether identity is one of the event's
// designated authorities. The community authority is checked separately.
func (e *Event) IsEventAuthority(identity string) bool {
	if identity == "" {
		return false
	}
	for _, a := range e.Authorities {
		if a == identity {
			return true
		}
	}
	return false
}

// HasRewards returns true if the event pays per-attendee token rewards.
func (e *Event) HasRewards() bool {
	return e.RewardPerUser > 0
}

// EventBounds are the time-bounded facets of an event, read from the
// event's descriptive attribute record. A zero value means the bound is
// unconstrained, never "constraint = 0".
type EventBounds struct {
	Capacity             uint64
	RegistrationStartsAt uint64
	RegistrationEndsAt   uint64
	EventStartsAt        uint64
	EventEndsAt          uint64
}

// RegistrationOpenAt reports whether registration is open at the given
// unix time under these bounds.
func (b EventBounds) RegistrationOpenAt(now int64) error {
	if now < 0 {
		return ErrRegistrationNotOpen
	}
	t := uint64(now)
	if b.RegistrationStartsAt != 0 && t < b.RegistrationStartsAt {
		return ErrRegistrationNotOpen
	}
	if b.RegistrationEndsAt != 0 && t > b.RegistrationEndsAt {
		return ErrRegistrationClosed
	}
	return nil
}

// OccurrenceAt reports whether the event is in progress at the given
// unix time under these bounds.
func (b EventBounds) OccurrenceAt(now int64) error {
	if now < 0 {
		return ErrEventNotStarted
	}
	t := uint64(now)
	if b.EventStartsAt != 0 && t < b.EventStartsAt {
		return ErrEventNotStarted
	}
	if b.EventEndsAt != 0 && t > b.EventEndsAt {
		return ErrEventEnded
	}
	return nil
}

// EndedAt reports whether the event's occurrence window has closed at
// the given unix time. With no end bound the event never "ends", so
// pending clawback by the community authority stays unavailable.
func (b EventBounds) EndedAt(now int64) bool {
	return b.EventEndsAt != 0 && now >= 0 && uint64(now) > b.EventEndsAt
}

// HasCapacity reports whether another attendee fits under the capacity
// bound given the event's live counter.
func (b EventBounds) HasCapacity(currentAttendees uint32) bool {
	return b.Capacity == 0 || uint64(currentAttendees) < b.Capacity
}

// CheckedRewardPool multiplies reward-per-user by capacity, failing on
// overflow rather than wrapping.
func CheckedRewardPool(rewardPerUser, capacity uint64) (uint64, error) {
	if rewardPerUser == 0 || capacity == 0 {
		return 0, nil
	}
	total := rewardPerUser * capacity
	if total/capacity != rewardPerUser {
		return 0, ErrNumericalOverflow
	}
	return total, nil
}
