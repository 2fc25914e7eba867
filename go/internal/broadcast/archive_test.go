package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	err  error
}

func (f *fakeStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	return &jetstream.PubAck{Stream: "AUCTION_EVENTS", Sequence: uint64(len(f.msgs))}, nil
}

func (f *fakeStream) published() []*nats.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*nats.Msg(nil), f.msgs...)
}

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Publish(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestArchive_ForwardsAndArchives(t *testing.T) {
	stream := &fakeStream{}
	next := &collector{}
	archive := newArchive(stream, next, DefaultArchiveConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go archive.Run(ctx)

	first, second := testEvent(1), testEvent(2)
	second.Type = EventTypePlayerRemoved
	archive.Publish(first)
	archive.Publish(second)

	require.Eventually(t, func() bool { return len(stream.published()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []Event{first, second}, next.events)

	msgs := stream.published()
	assert.Equal(t, "auction.archive.BID_ACCEPTED", msgs[0].Subject)
	assert.Equal(t, "auction.archive.PLAYER_REMOVED", msgs[1].Subject)
	assert.Equal(t, first.ID, msgs[0].Header.Get("Event-ID"))
	assert.Equal(t, "BID_ACCEPTED", msgs[0].Header.Get("Event-Type"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msgs[1].Data, &decoded))
	assert.Equal(t, second.ID, decoded.ID)
	require.NotNil(t, decoded.PlayerData)
	assert.Equal(t, int64(2), decoded.PlayerData.ID)

	stats := archive.Stats()
	assert.Equal(t, uint64(2), stats.Archived)
	assert.Zero(t, stats.Failed)
}

func TestArchive_FullQueueStillForwards(t *testing.T) {
	next := &collector{}
	config := DefaultArchiveConfig()
	config.Buffer = 1
	archive := newArchive(&fakeStream{}, next, config)

	// Run is not started, so the second event overflows the queue.
	archive.Publish(testEvent(1))
	archive.Publish(testEvent(2))

	assert.Len(t, next.events, 2)
	stats := archive.Stats()
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 1, stats.Queued)
}

func TestArchive_PublishFailureIsCounted(t *testing.T) {
	stream := &fakeStream{err: errors.New("no responders")}
	archive := newArchive(stream, &collector{}, DefaultArchiveConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go archive.Run(ctx)

	archive.Publish(testEvent(1))
	require.Eventually(t, func() bool { return archive.Stats().Failed == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, archive.Stats().Archived)
}
