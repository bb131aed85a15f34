package edu

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// UserTracker is the slice of the credential store used to check logins
type UserTracker interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// MaxLoginAttempts is the maximum number of failed logins allowed
// within CoolDownPeriod
var MaxLoginAttempts = 5

// CoolDownPeriod is the window in which failed logins are counted
var CoolDownPeriod = 24 * time.Hour

// UserProvider verifies credentials against the account store
type UserProvider struct {
	store  UserTracker
	logger Logger
	now    func() time.Time
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	_, logger := ResolveLogger("edu.user_provider", nil, nil)
	return &UserProvider{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	_, u.logger = ResolveLogger("edu.user_provider", nil, l)
	return u
}

// WithLoggerProvider resolves the logger through provider.
func (u *UserProvider) WithLoggerProvider(provider LoggerProvider) *UserProvider {
	_, u.logger = ResolveLogger("edu.user_provider", provider, nil)
	return u
}

// WithClock injects a custom clock (useful for tests).
func (u *UserProvider) WithClock(clock func() time.Time) *UserProvider {
	if clock != nil {
		u.now = clock
	}
	return u
}

// VerifyIdentity finds the account and compares the password. Unknown
// emails, wrong passwords and accounts in cool-down all yield
// ErrInvalidCredentials. The activation status is not checked here.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if IsRecordNotFound(err) || errors.IsNotFound(err) {
			// burn the same time as a real comparison
			_ = ComparePasswordAndHash(password, dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, NewDownstreamError(err, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil && u.now().Sub(*user.LoginAttemptAt) > CoolDownPeriod {
		user.LoginAttempts = 0
	}

	// a locked account answers like an unknown email
	if user.LoginAttempts >= MaxLoginAttempts {
		_ = ComparePasswordAndHash(password, user.PasswordHash)
		u.logger.Warn("login rejected during cool-down for account %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			u.logger.Error("failed to track login attempt: %v", err2)
		}
		return nil, ErrInvalidCredentials
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return newAuthIdentity(user), nil
}

// FindIdentityByEmail returns the identity for email without checking a password.
func (u *UserProvider) FindIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewDownstreamError(err, "failed to retrieve user")
	}
	return newAuthIdentity(user), nil
}

type authIdentity struct {
	id     string
	name   string
	email  string
	role   string
	status UserStatus
}

func newAuthIdentity(user *User) authIdentity {
	user.EnsureStatus()
	return authIdentity{
		id:     user.ID.String(),
		name:   user.Name,
		email:  user.Email,
		role:   string(user.Role),
		status: user.Status,
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

func (a authIdentity) Status() UserStatus {
	return a.status
}

var _ Identity = authIdentity{}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = HashPassword("edu-dummy-password")
	})
	return dummyHash
}
