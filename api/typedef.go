package api

import (
	"encoding/json"
	"time"

	"leafmap/typedef"
)

// WebSocket message types
type MessageType string

const (
	// Outgoing message types (server to client)
	MessageTypeAck            MessageType = "ack"
	MessageTypeElementCreated MessageType = "element_created"
	MessageTypeDelta          MessageType = "delta"
	MessageTypeError          MessageType = "error"
	MessageTypePing           MessageType = "ping"

	// Incoming message types (client to server)
	MessageTypeCreateElement MessageType = "create_element"
)

// WSMessage is the envelope for every message on the session socket.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// AckData acknowledges a new session.
type AckData struct {
	SessionID string `json:"session_id"`
}

// ElementSpec tags the widget's container element.
type ElementSpec struct {
	ID    string `json:"id"`
	Class string `json:"class"`
}

// DeltaData carries a partial map view state to the client runtime. The
// latent component set rides along from the host framework's diff
// delivery; this widget accepts and ignores it.
type DeltaData struct {
	Delta            typedef.Delta `json:"delta"`
	LatentComponents []string      `json:"latent_components,omitempty"`
}
