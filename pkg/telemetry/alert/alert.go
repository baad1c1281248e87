// Package alert delivers notifications for error-level activity log entries.
//
// A Sink receives one Alert per error entry. MailSink sends it to the
// administrators over SMTP, WebhookSink posts it as JSON, and MQTTSink
// publishes it to a broker topic. Multi fans an alert out to several sinks.
// FromConfig builds the sink set from configuration.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datolab/autoseo/pkg/config"
)

// Alert is one notification.
type Alert struct {
	// Subject is the one-line summary used as the mail subject.
	Subject string `json:"subject"`

	// Body is the plain text body, the formatted log line plus a pointer to
	// the logs.
	Body string `json:"body"`

	// Level is the log level that raised the alert.
	Level string `json:"level"`

	// Message is the log entry message.
	Message string `json:"message"`

	// Context is the log entry context, already redacted.
	Context map[string]any `json:"context,omitempty"`

	// Time is when the entry was written.
	Time time.Time `json:"time"`
}

// Sink delivers alerts. Implementations must be safe for concurrent use.
type Sink interface {
	// Send delivers a. Delivery is best-effort; callers do not retry.
	Send(ctx context.Context, a Alert) error
}

// Nop discards every alert.
type Nop struct{}

// Send implements Sink.
func (Nop) Send(context.Context, Alert) error { return nil }

// Multi delivers every alert to each sink in order.
type Multi []Sink

// Send implements Sink. Every sink is attempted; the errors are joined.
func (m Multi) Send(ctx context.Context, a Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the enabled sinks. It returns Nop when none is enabled.
func FromConfig(cfg config.AlertsConfig) (Sink, error) {
	var sinks Multi

	if cfg.Mail.Enabled {
		s, err := NewMailSink(cfg.Mail)
		if err != nil {
			return nil, fmt.Errorf("mail alerts: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Webhook.Enabled {
		s, err := NewWebhookSink(cfg.Webhook)
		if err != nil {
			return nil, fmt.Errorf("webhook alerts: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.MQTT.Enabled {
		s, err := NewMQTTSink(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt alerts: %w", err)
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
