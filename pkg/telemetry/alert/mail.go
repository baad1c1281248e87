package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"datolab/autoseo/pkg/config"
)

// mailSender is the part of *mail.Client the sink uses.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailSink sends alerts as plain text mail to the administrators.
type MailSink struct {
	from   string
	to     []string
	sender mailSender
}

// NewMailSink creates an SMTP sink. Authentication is used only when a
// username is configured.
func NewMailSink(cfg config.MailConfig) (*MailSink, error) {
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("sender and at least one recipient are required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &MailSink{
		from:   cfg.From,
		to:     append([]string(nil), cfg.To...),
		sender: client,
	}, nil
}

// Send implements Sink.
func (s *MailSink) Send(ctx context.Context, a Alert) error {
	msg, err := s.message(a)
	if err != nil {
		return err
	}
	if err := s.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}
	return nil
}

// message builds the mail for a.
func (s *MailSink) message(a Alert) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := m.To(s.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(a.Subject)
	m.SetBodyString(mail.TypeTextPlain, a.Body)
	return m, nil
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch strings.ToLower(name) {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
