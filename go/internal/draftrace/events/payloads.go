package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event payload types published for every race transition

type EventType string

const (
	EventTypePhaseChanged  EventType = "PhaseChanged"
	EventTypeRaceStarted   EventType = "RaceStarted"
	EventTypeOrderRevealed EventType = "OrderRevealed"
	EventTypeOrderLocked   EventType = "OrderLocked"
	EventTypeRevealFailed  EventType = "RevealFailed"
)

// RaceEvent is the envelope carried on the event stream
type RaceEvent struct {
	ID        uuid.UUID       `json:"event_id"`
	Type      EventType       `json:"event_type"`
	SessionID string          `json:"session_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewRaceEvent marshals payload into a new event
func NewRaceEvent(eventType EventType, sessionID string, payload any, now time.Time) (RaceEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return RaceEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return RaceEvent{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: now.UTC(),
		Payload:   data,
	}, nil
}

// PhaseChangedPayload is the payload for a PhaseChanged event
type PhaseChangedPayload struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

// RaceStartedPayload is the payload for a RaceStarted event
type RaceStartedPayload struct {
	SessionID   string    `json:"session_id"`
	Auto        bool      `json:"auto"`
	StartedAt   time.Time `json:"started_at"`
	DurationSec float64   `json:"duration_sec"`
	Contestants int       `json:"contestants"`
}

// OrderPayload is the payload for OrderRevealed and OrderLocked events
type OrderPayload struct {
	Owners []string  `json:"owners"`
	Locked bool      `json:"locked"`
	At     time.Time `json:"at"`
}

// RevealFailedPayload is the payload for a RevealFailed event
type RevealFailedPayload struct {
	SessionID string    `json:"session_id"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}
