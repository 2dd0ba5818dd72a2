// Package bus provides the in-process message bus between the Telegram
// channel and the conversation engine.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"sitebot/internal/domain"
)

const publishTimeout = 5 * time.Second

// InMemoryBus is a Go-channel based message bus. One producer (the
// platform channel) and one consumer (the conversation engine) share it;
// outbound replies are delivered through a registered handler.
type InMemoryBus struct {
	inbound  chan domain.InboundMessage
	outbound func(domain.OutboundMessage)
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// New creates a bus with the given inbound buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &InMemoryBus{
		inbound: make(chan domain.InboundMessage, bufferSize),
		logger:  logger,
	}
}

// Publish enqueues an inbound message. If the buffer is full it waits up
// to publishTimeout before dropping the message.
func (b *InMemoryBus) Publish(msg domain.InboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("publish on closed bus", "chat_id", msg.ChatID)
		return
	}

	select {
	case b.inbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- msg:
		case <-timer.C:
			b.logger.Error("inbound message dropped, bus full",
				"chat_id", msg.ChatID, "sender", msg.SenderID)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.InboundMessage {
	return b.inbound
}

func (b *InMemoryBus) SendOutbound(msg domain.OutboundMessage) {
	b.mu.RLock()
	handler := b.outbound
	b.mu.RUnlock()

	if handler == nil {
		b.logger.Warn("no outbound handler registered", "chat_id", msg.ChatID)
		return
	}
	handler(msg)
}

func (b *InMemoryBus) OnOutbound(handler func(domain.OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbound = handler
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}
