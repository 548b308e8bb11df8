// Package events publishes lifecycle notifications to Kafka so
// downstream consumers (indexers, notification fan-out) can follow
// community, event and attendee transitions without polling.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/pkg/logger"
)

// Lifecycle event names carried on the wire.
const (
	CommunityCreated = "community.created"
	EventCreated     = "event.created"
	EventCancelled   = "event.cancelled"
	AttendeeJoined   = "attendee.joined"
	AttendeeVerified = "attendee.verified"
	AttendeeRejected = "attendee.rejected"
	RewardsClaimed   = "rewards.claimed"
)

// Envelope is the wire shape of one lifecycle notification.
type Envelope struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Publisher emits lifecycle notifications. Publishing is best-effort
// and must never fail a committed transition.
type Publisher interface {
	Publish(ctx context.Context, name, key string, data any)
	Close()
}

// NopPublisher drops all notifications. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, string, any) {}

// Close does nothing.
func (NopPublisher) Close() {}

func marshalEnvelope(name string, data any, log *logger.Logger) ([]byte, bool) {
	b, err := json.Marshal(Envelope{
		Event:     name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		log.Warn("failed to encode lifecycle event", zap.String("event", name), zap.Error(err))
		return nil, false
	}
	return b, true
}
