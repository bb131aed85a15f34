package edu

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging surface every component depends on.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger picks the logger for a named component. An explicit logger
// wins, then the provider, then the stdout fallback.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger != nil {
		return provider, logger
	}
	if provider != nil {
		if l := provider.GetLogger(name); l != nil {
			return provider, l
		}
	}
	return provider, defLogger{name: name}
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Email() string
	Name() string
	Role() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetOTPSecret() string
	GetOTPPeriod() int
}

// IdentityProvider verifies credentials against the account store
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (Identity, error)
}

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, msg Message) error

// Send implements Mailer.
func (f MailerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

type defLogger struct {
	name string
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf(d.prefix("ERR")+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf(d.prefix("WRN")+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf(d.prefix("INF")+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf(d.prefix("DBG")+newline(format), args...)
}

func (d defLogger) prefix(level string) string {
	if d.name == "" {
		return "[" + level + "] EDU "
	}
	return "[" + level + "] " + strings.ToUpper(d.name) + " "
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
