// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
)

// Message is one frame broadcast to the clients. JobID is empty for
// frames every client should see.
type Message struct {
	JobID string
	Data  []byte
}

// Envelope wraps a call event with the job it belongs to.
type Envelope struct {
	JobID string     `json:"job_id"`
	Event call.Event `json:"event"`
}

// NewEventMessage encodes a job event for broadcast.
func NewEventMessage(jobID string, e call.Event) (Message, error) {
	data, err := json.Marshal(Envelope{JobID: jobID, Event: e})
	if err != nil {
		return Message{}, err
	}
	return Message{JobID: jobID, Data: data}, nil
}
