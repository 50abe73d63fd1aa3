package websocket

import "github.com/examprep/mcq-backend/internal/quiz"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect  Action = "select"
	ActionAdvance Action = "advance"
	ActionRestart Action = "restart"
	ActionLoad    Action = "load"
	ActionPing    Action = "ping"
)

// RequestPayload is a single client message. Option is used by select,
// Language by load.
type RequestPayload struct {
	Action   Action `json:"action"`
	Option   string `json:"option,omitempty"`
	Language string `json:"language,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse carries the session state after any change.
type SnapshotResponse struct {
	Event    Event         `json:"event"`
	Snapshot quiz.Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
