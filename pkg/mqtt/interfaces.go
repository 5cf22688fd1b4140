package mqtt

import "context"

// Client is the broker connection used by the agent; tests substitute fakes
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
}

// MessageHandler is called from the client's delivery goroutine
type MessageHandler func(Message)

// Message is an inbound MQTT message. pahomqtt.Message satisfies it.
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
