package bridge

import (
	"log/slog"
	"sync"

	"classhub/pkg/types"
)

// TopicSessionUpdates carries session-created/updated/deleted,
// session-status-changed and attendance-changed events to clients that
// hold only a unidirectional push stream.
const TopicSessionUpdates = "session-updates"

const subscriptionBuffer = 16

// Bridge is a process-wide publish/subscribe point independent of room
// membership. It is transport-agnostic: subscribers receive events on a
// channel and adapt them to whatever wire format their transport uses.
type Bridge struct {
	log    *slog.Logger
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
}

// Subscription is one subscriber's registration on a topic. Events arrive
// on C until Cancel is called; after Cancel, C is closed.
type Subscription struct {
	C     <-chan types.Event
	ch    chan types.Event
	topic string
	b     *Bridge
	once  sync.Once
}

// New creates an empty bridge.
func New(log *slog.Logger) *Bridge {
	return &Bridge{
		log:    log,
		topics: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber on the topic. Each subscriber
// receives every event published on the topic until it cancels.
func (b *Bridge) Subscribe(topic string) *Subscription {
	ch := make(chan types.Event, subscriptionBuffer)
	sub := &Subscription{C: ch, ch: ch, topic: topic, b: b}

	b.mu.Lock()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*Subscription]struct{})
	}
	b.topics[topic][sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Cancel removes the subscription and closes its channel. Idempotent:
// cancelling an already-cancelled subscription is a no-op, so teardown on
// an already-closed transport is safe.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		b := s.b
		b.mu.Lock()
		if subs, ok := b.topics[s.topic]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(b.topics, s.topic)
			}
		}
		b.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers the event to every current subscriber of the topic.
// Delivery is non-blocking: a subscriber whose buffer is full has the
// event dropped rather than delaying the publisher or other subscribers.
func (b *Bridge) Publish(topic string, ev types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[topic] {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("dropping event for slow subscriber",
				slog.String("topic", topic), slog.String("event", ev.Name))
		}
	}
}

// SubscriberCount reports the number of active subscriptions on a topic.
func (b *Bridge) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
