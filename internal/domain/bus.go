package domain

// MessageBus routes messages between the platform channel and the
// conversation engine.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	SendOutbound(msg OutboundMessage)
	OnOutbound(handler func(OutboundMessage))
	Close()
}
