package amqp

import (
	"encoding/json"
	"time"

	"finboard/internal/auth"
)

// SessionEvent is published whenever the auth state changes. It carries no
// token or other credentials.
type SessionEvent struct {
	State      string    `json:"state"`
	UserID     string    `json:"userId,omitempty"`
	Generation uint64    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSessionEvent builds an event from a machine snapshot.
func NewSessionEvent(snap auth.Snapshot) *SessionEvent {
	ev := &SessionEvent{
		State:      snap.State.String(),
		Generation: snap.Generation,
		Timestamp:  time.Now(),
	}
	if snap.User != nil {
		ev.UserID = snap.User.ID
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *SessionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SessionEventFromJSON decodes an event published by PublishSessionEvent.
func SessionEventFromJSON(data []byte) (*SessionEvent, error) {
	var ev SessionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
