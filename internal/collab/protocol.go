package collab

import (
	"encoding/json"
	"log/slog"

	"github.com/inkpad/inkpad/internal/operation"
)

type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   string     `json:"selection,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Drawing sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// WelcomePayload tells a new client who it is.
type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ServerSeq   int64  `json:"serverSeq"`
}

// DocSyncRequest asks for operations after Since, or the whole drawing
// when they are no longer in the log.
type DocSyncRequest struct {
	Since int64 `json:"since"`
}

// DocSyncPayload carries either the drawing or the operations missed since
// the requested sequence.
type DocSyncPayload struct {
	Drawing    json.RawMessage    `json:"drawing,omitempty"`
	Operations []operation.Record `json:"operations,omitempty"`
	ServerSeq  int64              `json:"serverSeq"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Message string `json:"message"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation operation.Record `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation operation.Record `json:"operation"`
	UserID    string           `json:"userId"`
	ServerSeq int64            `json:"serverSeq"`
}

// newMessage marshals payload into a message of type typ.
func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal message payload", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}
