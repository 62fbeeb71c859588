package websocket

import "github.com/google/uuid"

type socketMessageType int

const (
	Update socketMessageType = iota
	Welcome
)

// SocketMessage is a single message pushed to connected clients. A
// message with a Target is only delivered to the client with the
// matching UUID, otherwise it is broadcast to every client.
type SocketMessage struct {
	Title  string            `json:"title"`
	Body   map[string]any    `json:"arguments"`
	Type   socketMessageType `json:"type"`
	Target *uuid.UUID        `json:"-"`
}
