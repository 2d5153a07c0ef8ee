// Package mailer delivers password reset links, over SMTP or to the log when no server is configured.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const resetSubject = "Password Reset"

var ErrMissingSender = errors.New("a sender address is required to deliver mail")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender is implemented by every delivery method.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// New returns an SMTP sender, or a log-only one when cfg names no host.
func New(cfg Config, logger logrus.FieldLogger) (Sender, error) {
	if cfg.Host == "" {
		logger.Warning("no SMTP host configured, password reset links will only be logged")
		return Log{Logger: logger}, nil
	}
	if cfg.From == "" {
		return nil, ErrMissingSender
	}
	return &SMTP{cfg: cfg}, nil
}

type SMTP struct {
	cfg Config
}

// SendPasswordReset dials the server for each message; resets are rare and a fresh client needs no locking.
func (s *SMTP) SendPasswordReset(ctx context.Context, to, link string) error {
	var message = mail.NewMsg()
	if err := message.From(s.cfg.From); err != nil {
		return fmt.Errorf("setting sender %q: %w", s.cfg.From, err)
	}
	if err := message.To(to); err != nil {
		return fmt.Errorf("setting recipient %q: %w", to, err)
	}
	message.Subject(resetSubject)
	message.SetBodyString(mail.TypeTextPlain, resetBody(link))

	var options = []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Port != 0 {
		options = append(options, mail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, options...)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	if err = client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("delivering password reset to %q: %w", to, err)
	}
	return nil
}

// Log stands in for a mail server during development.
type Log struct {
	Logger logrus.FieldLogger
}

func (l Log) SendPasswordReset(_ context.Context, to, link string) error {
	l.Logger.WithFields(logrus.Fields{"to": to, "link": link}).Info(resetSubject)
	return nil
}

func resetBody(link string) string {
	return "Click this link to reset your password: " + link
}
