package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/saaga0h/jeeves-adaptive/pkg/config"
)

type subscription struct {
	qos     byte
	handler pahomqtt.MessageHandler
}

// mqttClient implements Client over Paho. Sessions are clean, so every
// subscription is replayed after a reconnect.
type mqttClient struct {
	client pahomqtt.Client
	cfg    *config.Config
	logger *slog.Logger

	mu            sync.Mutex
	subscriptions map[string]subscription
}

// NewClient creates a Paho-backed client; Connect dials the broker
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	m := &mqttClient{
		cfg:           cfg,
		logger:        logger,
		subscriptions: make(map[string]subscription),
	}

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%d", cfg.ServiceName, time.Now().Unix())
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.MQTTAddress()).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(30 * time.Second).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(c pahomqtt.Client, err error) {
			logger.Warn("MQTT connection lost", "error", err)
		}).
		SetReconnectingHandler(func(c pahomqtt.Client, opts *pahomqtt.ClientOptions) {
			logger.Info("MQTT reconnecting")
		})

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	m.client = pahomqtt.NewClient(opts)
	return m
}

// onConnect replays subscriptions registered before a reconnect
func (m *mqttClient) onConnect(c pahomqtt.Client) {
	m.mu.Lock()
	subs := make(map[string]subscription, len(m.subscriptions))
	for topic, sub := range m.subscriptions {
		subs[topic] = sub
	}
	m.mu.Unlock()

	m.logger.Info("Connected to MQTT broker", "broker", m.cfg.MQTTAddress(), "subscriptions", len(subs))

	for topic, sub := range subs {
		token := c.Subscribe(topic, sub.qos, sub.handler)
		// wait in the background; paho forbids blocking in the connect handler
		go func(topic string, token pahomqtt.Token) {
			if token.Wait() && token.Error() != nil {
				m.logger.Error("Failed to resubscribe", "topic", topic, "error", token.Error())
			}
		}(topic, token)
	}
}

// Connect dials the broker and waits for the first connection or ctx
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.cfg.MQTTAddress())

	token := m.client.Connect()

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect closes the connection with a short grace period
func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	m.client.Disconnect(250)
}

// Subscribe registers handler for topic and remembers it for reconnects
func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	pahoHandler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg)
	}

	m.mu.Lock()
	m.subscriptions[topic] = subscription{qos: qos, handler: pahoHandler}
	m.mu.Unlock()

	token := m.client.Subscribe(topic, qos, pahoHandler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Subscribed to topic", "topic", topic, "qos", qos)
	return nil
}

// Publish sends payload and waits for the broker acknowledgement
func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	m.logger.Debug("Published message", "topic", topic, "size", len(payload))
	return nil
}

// IsConnected reports whether the broker connection is up
func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}
