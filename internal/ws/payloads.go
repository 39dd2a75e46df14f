package ws

import "time"

// Event is the envelope for every server message
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// server → client
type SeededPayload struct {
	Fetched  int   `json:"fetched"`
	Inserted int64 `json:"inserted"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// client → server
type inbound struct {
	Type string `json:"type"`
}
