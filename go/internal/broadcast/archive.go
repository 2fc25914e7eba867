package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Publisher is anything that accepts committed events without blocking.
type Publisher interface {
	Publish(event Event)
}

type ArchiveConfig struct {
	StreamName      string
	SubjectPrefix   string
	MaxAge          time.Duration // How long to keep messages
	MaxMsgs         int64         // Max number of messages to keep
	Replicas        int
	DuplicateWindow time.Duration // Window for duplicate detection
	PublishTimeout  time.Duration
	Buffer          int
}

func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		StreamName:      "AUCTION_EVENTS",
		SubjectPrefix:   "auction.archive",
		MaxAge:          30 * 24 * time.Hour,
		MaxMsgs:         -1, // No limit
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
		PublishTimeout:  5 * time.Second,
		Buffer:          1000,
	}
}

// streamPublisher is the slice of jetstream.JetStream the archive writes through.
type streamPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Archive forwards events to next and copies them into a JetStream stream,
// giving a durable, replayable record of every committed bid and reversal.
// Publish never blocks; Run does the network writes.
type Archive struct {
	js     streamPublisher
	next   Publisher
	config ArchiveConfig
	queue  chan Event

	archived atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// NewArchive creates the stream if needed and returns an archive in front of next.
func NewArchive(ctx context.Context, nc *nats.Conn, next Publisher, config ArchiveConfig) (*Archive, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	if err := ensureStream(ctx, js, config); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return newArchive(js, next, config), nil
}

func newArchive(js streamPublisher, next Publisher, config ArchiveConfig) *Archive {
	defaults := DefaultArchiveConfig()
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = defaults.SubjectPrefix
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaults.PublishTimeout
	}
	if config.Buffer <= 0 {
		config.Buffer = defaults.Buffer
	}
	return &Archive{
		js:     js,
		next:   next,
		config: config,
		queue:  make(chan Event, config.Buffer),
	}
}

func ensureStream(ctx context.Context, js jetstream.JetStream, config ArchiveConfig) error {
	sc := jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "Committed auction bids and reversals",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      config.MaxAge,
		MaxMsgs:     config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    config.Replicas,
		Duplicates:  config.DuplicateWindow,
	}

	stream, err := js.CreateOrUpdateStream(ctx, sc)
	if err != nil {
		return fmt.Errorf("create or update stream %s: %w", config.StreamName, err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	log.Info().
		Str("stream", info.Config.Name).
		Uint64("messages", info.State.Msgs).
		Msg("JetStream archive ready")
	return nil
}

// Publish hands event to next and queues it for archiving. A full queue
// drops the archive copy only.
func (a *Archive) Publish(event Event) {
	a.next.Publish(event)

	select {
	case a.queue <- event:
	default:
		a.dropped.Add(1)
		log.Warn().Str("event_id", event.ID).Msg("archive queue full, event not archived")
	}
}

// Run writes queued events to JetStream until ctx is cancelled.
func (a *Archive) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			stats := a.Stats()
			log.Info().
				Uint64("archived", stats.Archived).
				Uint64("dropped", stats.Dropped).
				Uint64("failed", stats.Failed).
				Int("queued", stats.Queued).
				Msg("event archive stopped")
			return
		case event := <-a.queue:
			if err := a.write(ctx, event); err != nil {
				a.failed.Add(1)
				log.Error().Err(err).Str("event_id", event.ID).Msg("failed to archive event")
				continue
			}
			a.archived.Add(1)
		}
	}
}

func (a *Archive) write(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.PublishTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s.%s", a.config.SubjectPrefix, event.Type)
	opts := []jetstream.PublishOpt{jetstream.WithMsgID(event.ID)}
	if a.config.StreamName != "" {
		opts = append(opts, jetstream.WithExpectStream(a.config.StreamName))
	}

	ack, err := a.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(event.Type)},
			"Event-ID":   []string{event.ID},
			"Sequence":   []string{strconv.FormatUint(event.Sequence, 10)},
		},
	}, opts...)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID).
		Uint64("stream_sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("archived event")
	return nil
}

// ArchiveStats is a point-in-time view of the archive counters.
type ArchiveStats struct {
	Archived uint64 `json:"archived"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
	Queued   int    `json:"queued"`
}

func (a *Archive) Stats() ArchiveStats {
	return ArchiveStats{
		Archived: a.archived.Load(),
		Dropped:  a.dropped.Load(),
		Failed:   a.failed.Load(),
		Queued:   len(a.queue),
	}
}
