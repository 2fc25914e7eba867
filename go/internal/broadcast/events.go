package broadcast

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// EventType represents the type of auction event
type EventType string

const (
	EventTypeBidAccepted   EventType = "BID_ACCEPTED"
	EventTypePlayerRemoved EventType = "PLAYER_REMOVED"
	EventTypeSnapshot      EventType = "SNAPSHOT"
	EventTypePong          EventType = "pong"
)

// Event is a committed state change pushed to every subscriber.
// TeamData and PlayerData are the full post-commit views, so applying an
// event twice leaves a client in the same state.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	Sequence   uint64                 `json:"sequence"`
	TeamData   *projection.TeamView   `json:"teamData,omitempty"`
	PlayerData *projection.PlayerView `json:"playerData,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID. Sequence is assigned by the Hub.
func NewEvent(eventType EventType, team projection.TeamView, player projection.PlayerView, ts time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		TeamData:   &team,
		PlayerData: &player,
		Timestamp:  ts,
	}
}

// Snapshot is the full auction state sent to a client when it connects.
type Snapshot struct {
	Teams   []projection.TeamView   `json:"teams"`
	Players []projection.PlayerView `json:"players"`
}

// SnapshotMessage wraps a Snapshot for the wire. Sequence is the last event
// sequence the hub had dispatched when the snapshot was requested.
type SnapshotMessage struct {
	Type      EventType `json:"type"`
	Sequence  uint64    `json:"sequence"`
	Snapshot
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is anything a client may send over the socket.
type ClientMessage struct {
	Type string `json:"type"`
}

type pongMessage struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
