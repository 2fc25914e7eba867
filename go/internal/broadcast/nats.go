package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds configuration for the NATS relay
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS relay configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "auction.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSRelay publishes events to a NATS subject and feeds everything received
// on that subject into a local Hub, so several server processes share one
// event stream. Core NATS keeps per-publisher order, which preserves commit
// order for a single engine process.
type NATSRelay struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	hub     *Hub
	subject string
}

// ConnectNATS dials the server with the reconnect and logging options used across services.
func ConnectNATS(config NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("auction-server"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NewNATSRelay subscribes to subject and forwards received events into hub.
func NewNATSRelay(nc *nats.Conn, subject string, hub *Hub) (*NATSRelay, error) {
	r := &NATSRelay{
		nc:      nc,
		hub:     hub,
		subject: subject,
	}

	sub, err := nc.Subscribe(subject, r.handleMessage)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	r.sub = sub

	log.Info().Str("subject", subject).Msg("NATS relay subscribed")
	return r, nil
}

// Publish sends event to NATS. If NATS rejects it the event goes straight to
// the local hub so this process's viewers still see it.
func (r *NATSRelay) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to marshal event for NATS")
		r.hub.Publish(event)
		return
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		log.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("subject", r.subject).
			Msg("failed to publish event to NATS, delivering locally")
		r.hub.Publish(event)
	}
}

func (r *NATSRelay) handleMessage(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode relayed event")
		return
	}
	r.hub.Publish(event)
}

// Close drains the subscription.
func (r *NATSRelay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Drain()
}
