package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stefonoh-ai/road2royalty-fantasy-football/go/internal/draftrace/events"
)

// Message is the envelope for everything sent to WebSocket clients
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MessageType represents the type of a WebSocket message
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeEvent    MessageType = "event"
	MessageTypeError    MessageType = "error"
)

// ClientAction is a command a client may send over its socket
type ClientAction string

const (
	ActionStart  ClientAction = "start"
	ActionRetry  ClientAction = "retry"
	ActionResync ClientAction = "resync"
)

// ClientMessage is what clients send
type ClientMessage struct {
	Action ClientAction `json:"action"`
}

// ErrorPayload is the data of an error message
type ErrorPayload struct {
	Action ClientAction `json:"action,omitempty"`
	Error  string       `json:"error"`
}

// NewMessage marshals data into a message envelope
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", messageType, err)
	}
	return &Message{Type: messageType, Timestamp: now.UTC(), Data: raw}, nil
}

// ParseEventPayload decodes a race event payload into its concrete type
func ParseEventPayload(event events.RaceEvent) (any, error) {
	var target any
	switch event.Type {
	case events.EventTypePhaseChanged:
		target = &events.PhaseChangedPayload{}
	case events.EventTypeRaceStarted:
		target = &events.RaceStartedPayload{}
	case events.EventTypeOrderRevealed, events.EventTypeOrderLocked:
		target = &events.OrderPayload{}
	case events.EventTypeRevealFailed:
		target = &events.RevealFailedPayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
	if err := json.Unmarshal(event.Payload, target); err != nil {
		return nil, err
	}
	return target, nil
}
