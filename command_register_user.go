package edu

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage is the registration request
type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the payload shape. Role membership is checked separately
// so it can be reported as ErrInvalidRole.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(1, 100)),
	)
}

// RegisterUserHandler creates INACTIVE accounts and mails their OTP.
// The insert commits before the mail goes out so no connection is held
// while the relay answers. A failed delivery removes the account again.
type RegisterUserHandler struct {
	repo         RepositoryManager
	otp          *OTPEngine
	otpSecret    string
	mailer       Mailer
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
	timeout      time.Duration
	useHashid    bool
}

// RegisterUserOption customizes the handler.
type RegisterUserOption func(*RegisterUserHandler)

// WithRegisterActivitySink sets the sink for user.registered events.
func WithRegisterActivitySink(sink ActivitySink) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.activitySink = normalizeActivitySink(sink)
	}
}

// WithRegisterLogger sets the logger.
func WithRegisterLogger(logger Logger) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRegisterHashidIDs derives account ids from the email hash instead
// of random UUIDs.
func WithRegisterHashidIDs(enabled bool) RegisterUserOption {
	return func(h *RegisterUserHandler) {
		h.useHashid = enabled
	}
}

// NewRegisterUserHandler returns a handler using otp to derive codes from
// otpSecret and mailer to deliver them.
func NewRegisterUserHandler(repo RepositoryManager, otp *OTPEngine, otpSecret string, mailer Mailer, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:         repo,
		otp:          otp,
		otpSecret:    otpSecret,
		mailer:       mailer,
		activitySink: noopActivitySink{},
		logger:       defLogger{name: "edu.register"},
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

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	_, err := h.Register(ctx, event)
	return err
}

// Register validates event, persists the account and sends the OTP.
func (h *RegisterUserHandler) Register(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	role, ok := ParseRole(event.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	user := &User{
		Name:  strings.TrimSpace(event.Name),
		Email: normalizeEmail(event.Email),
		Role:  role,
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		user.PasswordHash = hash

		if event.UseHashid || h.useHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		created, err := h.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			if goerrors.Is(err, ErrDuplicateEmail) {
				return ErrDuplicateEmail
			}
			return NewDownstreamError(err, "could not create user")
		}
		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	code := h.otp.Generate(h.otpSecret, user.Email)
	if err := h.mailer.Send(ctx, OTPMessage(user.Email, code)); err != nil {
		h.logger.Error("register OTP delivery to %s failed: %v", user.Email, err)
		h.discard(ctx, user)
		return nil, NewDownstreamError(err, "could not deliver the activation code")
	}

	recordActivity(ctx, h.activitySink, h.logger, h.now, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		ToStatus:  user.Status,
		Metadata:  map[string]any{"role": string(user.Role)},
	})

	return user, nil
}

// discard removes an account whose activation code never left. It runs
// on its own deadline since ctx may be the one that expired.
func (h *RegisterUserHandler) discard(ctx context.Context, user *User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	if err := h.repo.Users().Delete(ctx, user.ID); err != nil {
		h.logger.Error("could not discard undelivered account %s: %v", user.ID, err)
	}
}
