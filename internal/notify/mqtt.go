// Package notify publishes status refresh events to an MQTT broker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Config holds broker connection settings.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Connect opens a client to the broker and waits for the connection.
func Connect(cfg Config) (mqtt.Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return client, nil
}

// Publisher is the part of mqtt.Client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// RefreshEvent is the payload published after a refresh run.
type RefreshEvent struct {
	Kind       models.Kind `json:"kind"`
	Scanned    int         `json:"scanned"`
	Changed    int         `json:"changed"`
	ChangedIDs []string    `json:"changedIds"`
	Failed     int         `json:"failed"`
	RanAt      time.Time   `json:"ranAt"`
}

// MQTTNotifier publishes one RefreshEvent per run on <topic>/<kind>.
type MQTTNotifier struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTNotifier creates a notifier publishing at QoS 1 under topic.
func NewMQTTNotifier(client Publisher, topic string) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: topic, qos: 1, timeout: 5 * time.Second}
}

// Topic returns the topic events for kind are published on.
func (n *MQTTNotifier) Topic(kind models.Kind) string {
	return n.topic + "/" + string(kind)
}

// PublishRefresh implements lifecycle.Notifier.
func (n *MQTTNotifier) PublishRefresh(ctx context.Context, s lifecycle.Summary) error {
	payload, err := json.Marshal(RefreshEvent{
		Kind:       s.Kind,
		Scanned:    s.Scanned,
		Changed:    s.Changed,
		ChangedIDs: s.ChangedIDs,
		Failed:     len(s.Errors),
		RanAt:      s.RanAt,
	})
	if err != nil {
		return err
	}

	token := n.client.Publish(n.Topic(s.Kind), n.qos, false, payload)
	timer := time.NewTimer(n.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// PublishRefresh implements lifecycle.Notifier.
func (Nop) PublishRefresh(context.Context, lifecycle.Summary) error { return nil }
