package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/examprep/mcq-backend/internal/quiz"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, NewError(errMsg))
}

// NewError builds an error event.
func NewError(errMsg string) ErrorResponse {
	return ErrorResponse{Event: EventError, Error: errMsg}
}

// NewSnapshot builds a snapshot event.
func NewSnapshot(snap quiz.Snapshot) SnapshotResponse {
	return SnapshotResponse{Event: EventSnapshot, Snapshot: snap}
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
