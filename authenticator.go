package edu

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginMessage is the login request
type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginMessage) Type() string { return "user.login" }

// Validate checks the payload shape
func (e LoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
	)
}

// Authenticator exchanges credentials for bearer tokens
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	TokenValidator() TokenValidator
}

// TokenValidator validates tokens and extracts claims
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

type statusIdentity interface {
	Status() UserStatus
}

type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokenService TokenService) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{name: "edu.auth"},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenValidator exposes the token verifier for middleware.
func (s *Auther) TokenValidator() TokenValidator {
	return s.tokenService
}

// Login verifies the credentials before the activation status, so a
// correct password on an inactive account reports ErrAccountNotActivated.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	if err := (LoginMessage{Email: email, Password: password}).Validate(); err != nil {
		return "", NewLoginRejection(err)
	}

	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Info("login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	if err := s.ensureIdentityActive(identity); err != nil {
		s.logger.Info("login blocked for inactive account %s", identity.ID())
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("login failed to sign token: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"email": email,
	})

	return token, nil
}

func (s *Auther) ensureIdentityActive(identity Identity) error {
	si, ok := identity.(statusIdentity)
	if !ok {
		return nil
	}
	if si.Status() != UserStatusActive {
		return ErrAccountNotActivated
	}
	return nil
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	return ActorRef{ID: identity.ID(), Type: identity.Role()}
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	recordActivity(ctx, s.activitySink, s.logger, s.now, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	})
}
