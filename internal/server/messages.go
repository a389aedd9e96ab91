package server

import (
	"encoding/json"
)

// Client message types.
const (
	msgCommand = "command"
	msgUndo    = "undo"
	msgRedo    = "redo"
	msgPing    = "ping"
)

// Server message types.
const (
	msgState = "state"
	msgPatch = "patch"
	msgAck   = "ack"
	msgError = "error"
	msgPong  = "pong"
)

// clientMessage is the envelope for client to server WebSocket frames. Data
// holds one command envelope or an array of them for "command" messages.
type clientMessage struct {
	Type string          `json:"type" validate:"required,oneof=command undo redo ping"`
	ID   string          `json:"id" validate:"max=128"`
	Data json.RawMessage `json:"data,omitempty"`
}

// serverMessage is the envelope for server to client WebSocket frames.
type serverMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// patchData carries an RFC 6902 patch from the previous designer state to
// the next one.
type patchData struct {
	Command string          `json:"command"`
	Patch   json.RawMessage `json:"patch"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

type ackData struct {
	Moved *bool `json:"moved,omitempty"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
