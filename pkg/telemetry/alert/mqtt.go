package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"datolab/autoseo/pkg/config"
)

// MQTTClient is the subset of the paho client the sink uses.
type MQTTClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
}

// MQTTSink publishes alerts as JSON to a broker topic. It connects lazily on
// the first alert and reconnects when the connection has dropped.
type MQTTSink struct {
	topic   string
	qos     byte
	timeout time.Duration
	opts    *mqtt.ClientOptions

	clientFactory func(opts *mqtt.ClientOptions) MQTTClient

	mu     sync.Mutex
	client MQTTClient
}

// NewMQTTSink creates an MQTT sink.
func NewMQTTSink(cfg config.MQTTConfig) (*MQTTSink, error) {
	return newMQTTSink(cfg, func(opts *mqtt.ClientOptions) MQTTClient {
		return mqtt.NewClient(opts)
	})
}

func newMQTTSink(cfg config.MQTTConfig, factory func(*mqtt.ClientOptions) MQTTClient) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	qos := config.IntValue(cfg.QoS, config.DefaultMQTTQoS)
	if qos < 0 || qos > 2 {
		return nil, fmt.Errorf("invalid QoS %d", qos)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultMQTTTimeout
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectTimeout(timeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	return &MQTTSink{
		topic:         cfg.Topic,
		qos:           byte(qos),
		timeout:       timeout,
		opts:          opts,
		clientFactory: factory,
	}, nil
}

// Send implements Sink.
func (s *MQTTSink) Send(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	client, err := s.connect()
	if err != nil {
		return err
	}

	token := client.Publish(s.topic, s.qos, false, payload)
	if !waitToken(ctx, token, s.timeout) {
		return fmt.Errorf("publish to %s timed out", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
	return nil
}

func (s *MQTTSink) connect() (MQTTClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.client.IsConnected() {
		return s.client, nil
	}
	if s.client == nil {
		s.client = s.clientFactory(s.opts)
	}

	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt: %w", err)
	}
	return s.client, nil
}

// waitToken waits for token until timeout or ctx is done.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) bool {
	select {
	case <-token.Done():
		return true
	case <-ctx.Done():
		return false
	case <-time.After(timeout):
		return false
	}
}
