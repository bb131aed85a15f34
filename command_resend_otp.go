package edu

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResendOTPMessage asks for a fresh activation code
type ResendOTPMessage struct {
	Email string `json:"email"`
}

func (e ResendOTPMessage) Type() string { return "user.resend_otp" }

// Validate checks the payload shape
func (e ResendOTPMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ResendOTPHandler mails the current code to an INACTIVE account.
type ResendOTPHandler struct {
	repo         RepositoryManager
	otp          *OTPEngine
	otpSecret    string
	mailer       Mailer
	limiter      AttemptLimiter
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
	timeout      time.Duration
}

// ResendOTPOption customizes the handler.
type ResendOTPOption func(*ResendOTPHandler)

// WithResendOTPLimiter caps how often a code can be requested per email.
// Every request counts against the budget.
func WithResendOTPLimiter(limiter AttemptLimiter) ResendOTPOption {
	return func(h *ResendOTPHandler) {
		h.limiter = limiter
	}
}

// WithResendOTPActivitySink sets the activity sink.
func WithResendOTPActivitySink(sink ActivitySink) ResendOTPOption {
	return func(h *ResendOTPHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithResendOTPLogger sets the logger.
func WithResendOTPLogger(logger Logger) ResendOTPOption {
	return func(h *ResendOTPHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewResendOTPHandler(repo RepositoryManager, otp *OTPEngine, otpSecret string, mailer Mailer, opts ...ResendOTPOption) *ResendOTPHandler {
	h := &ResendOTPHandler{
		repo:         repo,
		otp:          otp,
		otpSecret:    otpSecret,
		mailer:       mailer,
		activitySink: noopActivitySink{},
		logger:       defLogger{name: "edu.resend_otp"},
		now:          time.Now,
		timeout:      10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *ResendOTPHandler) Execute(ctx context.Context, event ResendOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during OTP resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendOTPHandler) execute(ctx context.Context, event ResendOTPMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	email := normalizeEmail(event.Email)

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return ErrUnknownEmail
		}
		return NewDownstreamError(err, "could not look up account")
	}

	if user.IsActive() {
		return ErrAlreadyActivated
	}

	if h.limiter != nil {
		key := "resend:" + email
		allowed, err := h.limiter.Allow(ctx, key)
		if err != nil {
			h.logger.Warn("resend OTP limiter check failed: %v", err)
		} else if !allowed {
			return ErrTooManyAttempts
		}
		if err := h.limiter.RecordFailure(ctx, key); err != nil {
			h.logger.Warn("resend OTP limiter record failed: %v", err)
		}
	}

	code := h.otp.Generate(h.otpSecret, email)
	if err := h.mailer.Send(ctx, OTPMessage(email, code)); err != nil {
		h.logger.Error("resend OTP delivery to %s failed: %v", email, err)
		return NewDownstreamError(err, "could not deliver the activation code")
	}

	recordActivity(ctx, h.activitySink, h.logger, h.now, ActivityEvent{
		EventType: ActivityEventOTPResent,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})

	return nil
}
