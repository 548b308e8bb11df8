// Package registry is the narrow interface to the ticket/collectible
// registry: per-record key/value attributes, write-once scan records,
// and the permanent ticket freeze. The registry's internals are opaque
// to the state machine; it only reads and writes through these types.
package registry

import (
	"strconv"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// Attribute is one key/value pair on a registry record.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AttributeList is the ordered attribute set of one record.
type AttributeList []Attribute

// Well-known descriptive attribute keys on an event record. Numeric
// values are unsigned integers; an absent key means "unconstrained",
// never "constraint = 0".
const (
	KeyCapacity             = "Capacity"
	KeyRegistrationStartsAt = "Registration Starts At"
	KeyRegistrationEndsAt   = "Registration Ends At"
	KeyEventStartsAt        = "Event Starts At"
	KeyEventEndsAt          = "Event Ends At"
	KeyLocation             = "Location"
	KeyVirtualLink          = "Virtual Link"
	KeyDescription          = "Description"
)

// Get returns the value for key and whether it is present.
func (l AttributeList) Get(key string) (string, bool) {
	for _, a := range l {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Uint parses the value for key as an unsigned integer. An absent key
// yields the 0 sentinel; an unparseable value is a numerical overflow.
func (l AttributeList) Uint(key string) (uint64, error) {
	v, ok := l.Get(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, domain.ErrNumericalOverflow
	}
	return n, nil
}

// Set returns a copy of the list with key set to value, replacing any
// existing entry.
func (l AttributeList) Set(key, value string) AttributeList {
	out := make(AttributeList, 0, len(l)+1)
	replaced := false
	for _, a := range l {
		if a.Key == key {
			out = append(out, Attribute{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, Attribute{Key: key, Value: value})
	}
	return out
}

// EventBounds reads the time-bounded facets of an event from its
// attribute record.
func EventBounds(l AttributeList) (domain.EventBounds, error) {
	var b domain.EventBounds
	var err error

	if b.Capacity, err = l.Uint(KeyCapacity); err != nil {
		return domain.EventBounds{}, err
	}
	if b.RegistrationStartsAt, err = l.Uint(KeyRegistrationStartsAt); err != nil {
		return domain.EventBounds{}, err
	}
	if b.RegistrationEndsAt, err = l.Uint(KeyRegistrationEndsAt); err != nil {
		return domain.EventBounds{}, err
	}
	if b.EventStartsAt, err = l.Uint(KeyEventStartsAt); err != nil {
		return domain.EventBounds{}, err
	}
	if b.EventEndsAt, err = l.Uint(KeyEventEndsAt); err != nil {
		return domain.EventBounds{}, err
	}
	return b, nil
}
