package edu

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// AttemptLimiter throttles repeated failures for a key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// VerifyOTPMessage is the activation request
type VerifyOTPMessage struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (e VerifyOTPMessage) Type() string { return "user.verify_otp" }

// Validate checks the payload shape
func (e VerifyOTPMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.OTP, validation.Required),
	)
}

// VerifyOTPHandler activates accounts presenting a valid code.
type VerifyOTPHandler struct {
	repo         RepositoryManager
	stateMachine UserStateMachine
	otp          *OTPEngine
	otpSecret    string
	limiter      AttemptLimiter
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
	timeout      time.Duration
}

// VerifyOTPOption customizes the handler.
type VerifyOTPOption func(*VerifyOTPHandler)

// WithVerifyOTPLimiter throttles failed codes per email.
func WithVerifyOTPLimiter(limiter AttemptLimiter) VerifyOTPOption {
	return func(h *VerifyOTPHandler) {
		h.limiter = limiter
	}
}

// WithVerifyOTPStateMachine replaces the state machine used for activation.
func WithVerifyOTPStateMachine(sm UserStateMachine) VerifyOTPOption {
	return func(h *VerifyOTPHandler) {
		if sm != nil {
			h.stateMachine = sm
		}
	}
}

// WithVerifyOTPActivitySink sets the sink for OTP failures.
func WithVerifyOTPActivitySink(sink ActivitySink) VerifyOTPOption {
	return func(h *VerifyOTPHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithVerifyOTPLogger sets the logger.
func WithVerifyOTPLogger(logger Logger) VerifyOTPOption {
	return func(h *VerifyOTPHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewVerifyOTPHandler returns a handler checking codes derived from otpSecret.
func NewVerifyOTPHandler(repo RepositoryManager, otp *OTPEngine, otpSecret string, opts ...VerifyOTPOption) *VerifyOTPHandler {
	h := &VerifyOTPHandler{
		repo:         repo,
		otp:          otp,
		otpSecret:    otpSecret,
		activitySink: noopActivitySink{},
		logger:       defLogger{name: "edu.verify_otp"},
		now:          time.Now,
		timeout:      10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.stateMachine == nil {
		h.stateMachine = NewUserStateMachine(repo.Users(),
			WithStateMachineActivitySink(h.activitySink),
			WithStateMachineLogger(h.logger),
		)
	}
	return h
}

func (h *VerifyOTPHandler) Execute(ctx context.Context, event VerifyOTPMessage) error {
	_, err := h.Verify(ctx, event)
	return err
}

// Verify checks the code and moves the account to ACTIVE. Verifying an
// account that is already ACTIVE succeeds without writing anything.
func (h *VerifyOTPHandler) Verify(ctx context.Context, event VerifyOTPMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during OTP verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyOTPHandler) execute(ctx context.Context, event VerifyOTPMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	email := normalizeEmail(event.Email)

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrUnknownEmail
		}
		return nil, NewDownstreamError(err, "could not look up account")
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, email)
		if err != nil {
			h.logger.Warn("verify OTP limiter check failed: %v", err)
		} else if !allowed {
			return nil, ErrTooManyAttempts
		}
	}

	if !h.otp.Verify(event.OTP, h.otpSecret, email) {
		if h.limiter != nil {
			if err := h.limiter.RecordFailure(ctx, email); err != nil {
				h.logger.Warn("verify OTP limiter record failed: %v", err)
			}
		}
		recordActivity(ctx, h.activitySink, h.logger, h.now, ActivityEvent{
			EventType: ActivityEventOTPFailure,
			Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
			UserID:    user.ID.String(),
		})
		return nil, ErrInvalidOTP
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, email); err != nil {
			h.logger.Warn("verify OTP limiter reset failed: %v", err)
		}
	}

	if user.IsActive() {
		return user, nil
	}

	activated, err := h.stateMachine.Transition(ctx, ActorRef{ID: user.ID.String(), Type: "user"}, user, UserStatusActive,
		WithTransitionReason("otp verified"),
	)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, NewDownstreamError(err, "could not activate account")
	}

	return activated, nil
}
