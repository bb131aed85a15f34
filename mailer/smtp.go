// Package mailer delivers edu messages over SMTP, or to a logger during
// development.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-edu"
)

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig holds the relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username
	From string
}

// SMTP sends HTML mail through an authenticated relay. STARTTLS is used
// when the server offers it.
type SMTP struct {
	cfg  SMTPConfig
	send SendFunc
	now  func() time.Time
}

var _ edu.Mailer = (*SMTP)(nil)

// Option customizes the SMTP mailer
type Option func(*SMTP)

// WithSendFunc replaces smtp.SendMail.
func WithSendFunc(fn SendFunc) Option {
	return func(s *SMTP) {
		if fn != nil {
			s.send = fn
		}
	}
}

// WithClock injects a custom clock for the Date header.
func WithClock(clock func() time.Time) Option {
	return func(s *SMTP) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewSMTP returns a mailer for cfg.
func NewSMTP(cfg SMTPConfig, opts ...Option) (*SMTP, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("mailer: smtp host and credentials are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	s := &SMTP{cfg: cfg, send: smtp.SendMail, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Send delivers msg. When ctx ends before the relay answers Send returns
// ctx.Err() and the relay call is left to finish on its own.
func (s *SMTP) Send(ctx context.Context, msg edu.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: recipient is required")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	body := s.build(msg)

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.cfg.From, []string{msg.To}, body)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mailer: send to %s: %w", msg.To, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
		}
		return nil
	}
}

func (s *SMTP) build(msg edu.Message) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + s.cfg.From + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	sb.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.HTML)
	return []byte(sb.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}
