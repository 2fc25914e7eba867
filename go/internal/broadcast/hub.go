package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HubConfig holds buffer sizes for the hub.
type HubConfig struct {
	// EventBuffer is the number of events Publish can queue before dropping.
	EventBuffer int
	// SubscriberBuffer is the per-subscriber queue; a subscriber that falls
	// this far behind is evicted.
	SubscriberBuffer int
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() HubConfig {
	return HubConfig{
		EventBuffer:      1000,
		SubscriberBuffer: 256,
	}
}

// Hub fans committed auction events out to subscribers.
//
// Publish never blocks. A single dispatcher goroutine (Start) drains the
// queue, so every subscriber sees events in the order Publish was called.
type Hub struct {
	subscribers map[*Subscription]struct{}
	mu          sync.RWMutex

	config HubConfig
	events chan Event

	sequence  atomic.Uint64
	published atomic.Uint64
	dropped   atomic.Uint64
	evicted   atomic.Uint64
}

// Subscription is one subscriber's ordered stream of encoded events.
type Subscription struct {
	ID string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewHub creates a hub. Call Start to begin dispatching.
func NewHub(config HubConfig) *Hub {
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultHubConfig().EventBuffer
	}
	if config.SubscriberBuffer <= 0 {
		config.SubscriberBuffer = DefaultHubConfig().SubscriberBuffer
	}
	return &Hub{
		subscribers: make(map[*Subscription]struct{}),
		config:      config,
		events:      make(chan Event, config.EventBuffer),
	}
}

// Start dispatches queued events until ctx is cancelled, then closes every subscription.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("broadcast hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info().Msg("broadcast hub shutting down")
			return
		case event := <-h.events:
			h.dispatch(event)
		}
	}
}

// Publish queues event for delivery. It never blocks; when the queue is full
// the event is dropped, logged and counted in Stats.
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event:
		h.published.Add(1)
	default:
		dropped := h.dropped.Add(1)
		log.Warn().
			Str("event_id", event.ID).
			Uint64("dropped_total", dropped).
			Str("event_type", string(event.Type)).
			Msg("broadcast queue full, dropping event")
	}
}

// Subscribe registers a new subscriber. It receives only events dispatched after this call.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		ID:   uuid.New().String(),
		send: make(chan []byte, h.config.SubscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	total := len(h.subscribers)
	h.mu.Unlock()

	log.Debug().
		Str("subscription_id", sub.ID).
		Int("subscribers", total).
		Msg("subscriber registered")
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()

	sub.close()

	if ok {
		log.Debug().Str("subscription_id", sub.ID).Msg("subscriber unregistered")
	}
}

// Sequence returns the sequence number of the last dispatched event.
func (h *Hub) Sequence() uint64 {
	return h.sequence.Load()
}

// Stats returns counters about the hub.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	subscribers := len(h.subscribers)
	h.mu.RUnlock()

	return map[string]interface{}{
		"subscribers": subscribers,
		"published":   h.published.Load(),
		"dropped":     h.dropped.Load(),
		"evicted":     h.evicted.Load(),
		"sequence":    h.sequence.Load(),
	}
}

func (h *Hub) dispatch(event Event) {
	event.Sequence = h.sequence.Add(1)

	// Marshal the event once
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to marshal event for broadcast")
		return
	}

	// Snapshot subscribers so Subscribe/Unsubscribe never wait on delivery
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subscribers))
	for sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !sub.deliver(data) {
			h.evicted.Add(1)
			log.Warn().
				Str("subscription_id", sub.ID).
				Msg("subscriber send buffer full, evicting")
			h.Unsubscribe(sub)
		}
	}

	log.Debug().
		Str("event_type", string(event.Type)).
		Uint64("sequence", event.Sequence).
		Int("subscribers", len(targets)).
		Msg("event broadcasted")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

// C returns the subscriber's stream. It is closed on Unsubscribe or eviction.
func (s *Subscription) C() <-chan []byte {
	return s.send
}

// deliver reports false when the subscriber's buffer is full.
func (s *Subscription) deliver(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
