// Package notifications delivers moderation events to listening systems,
// over Redis pub/sub for host services and over websockets for connected
// moderator dashboards.
package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/observability"
)

// EventType classifies a moderation event.
type EventType string

// Event types published by the moderation core. The restore and unsuspend
// events are requests to the host system: content restoration and account
// unsuspension live outside this subsystem, so approving such an appeal
// only emits the event and the host must act on it.
const (
	EventQueueItemAdded        EventType = "queue_item_added"
	EventReportSubmitted       EventType = "report_submitted"
	EventReviewCompleted       EventType = "review_completed"
	EventBanIssued             EventType = "ban_issued"
	EventBanLifted             EventType = "ban_lifted"
	EventAppealSubmitted       EventType = "appeal_submitted"
	EventAppealDecided         EventType = "appeal_decided"
	EventContentRestoreRequest EventType = "content_restore_requested"
	EventUserUnsuspendRequest  EventType = "user_unsuspend_requested"
)

// Event is one moderation occurrence worth telling other systems about.
type Event struct {
	Type       EventType      `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher pushes moderation events out of the core. Implementations must
// be safe for concurrent use. Publishing is best-effort from the caller's
// point of view; services log failures but do not fail their operation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// moderationChannel is the Redis channel host systems subscribe to.
const moderationChannel = "moderation:events"

// Notifier publishes moderation events to Redis. A nil Redis client makes
// every publish a no-op, which keeps tests and offline tooling simple.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish serializes the event and sends it to the moderation channel.
func (n *Notifier) Publish(ctx context.Context, event Event) error {
	if n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, moderationChannel, payload).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
		return err
	}
	observability.ModerationEventsTotal.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// Subscribe listens on the moderation channel and invokes onEvent for each
// decoded event until ctx is cancelled. Malformed payloads are skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, moderationChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					observability.GlobalLogger.Warn("dropping malformed moderation event", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

// NopPublisher discards every event. Used where event delivery is not
// wired, for example one-shot CLI tools.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(_ context.Context, _ Event) error { return nil }
