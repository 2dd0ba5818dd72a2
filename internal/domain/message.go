package domain

import "time"

// MessageKind tells the conversation engine what kind of update arrived.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindCommand  MessageKind = "command"
	KindPhoto    MessageKind = "photo"
	KindDocument MessageKind = "document"
)

// InboundMessage is one update from the chat platform. It lives only for
// the duration of a single handler invocation and is never persisted.
type InboundMessage struct {
	Kind      MessageKind
	ChatID    string
	SenderID  string
	Text      string
	FileID    string // photo/document file reference on the platform side
	Caption   string
	Timestamp time.Time
}

// OutboundMessage is a reply destined for a specific chat. Delivery is
// fire-and-forget from the handler's perspective.
type OutboundMessage struct {
	ChatID  string
	Content string
}
