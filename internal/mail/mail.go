// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package mail delivers directory notifications over SMTP.
package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/samber/oops"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML mail through a single SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer creates an SMTPMailer from cfg.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("from address is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CLIENT_FAILED").
			With("host", cfg.Host).
			Wrap(err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// DisabledMailer rejects every send. It stands in for the SMTP mailer
// when no relay is configured, so reset requests fail with a clear error
// instead of a connection timeout.
type DisabledMailer struct{}

// Send always fails.
func (DisabledMailer) Send(_ context.Context, _, _, _ string) error {
	return oops.Code("MAIL_DISABLED").Errorf("mail delivery is not configured")
}

// Send delivers a single HTML message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "set from").
			Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "set recipient").
			Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "dial and send").
			Wrap(err)
	}
	return nil
}
