package edu_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-edu"
	"github.com/goliatone/go-edu/persistence"
)

const testOTPSecret = "totp-test-secret"

func TestMain(m *testing.M) {
	edu.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := persistence.Open(persistence.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.Migrate(context.Background(), db))
	return db
}

func newTestRepo(t *testing.T) (edu.RepositoryManager, *bun.DB) {
	t.Helper()
	db := newTestDB(t)
	return edu.NewRepositoryManager(db), db
}

// seedUser inserts an account with password "secret123".
func seedUser(t *testing.T, repo edu.RepositoryManager, email string, role edu.UserRole, status edu.UserStatus) *edu.User {
	t.Helper()
	ctx := context.Background()

	hash, err := edu.HashPassword("secret123")
	require.NoError(t, err)

	user, err := repo.Users().Register(ctx, &edu.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(t, err)

	if status == edu.UserStatusActive {
		user, err = repo.Users().UpdateStatus(ctx, user.ID, edu.UserStatusActive)
		require.NoError(t, err)
	}
	return user
}

func countUsers(t *testing.T, db *bun.DB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*edu.User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

// MockMailer implements edu.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg edu.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// captureMailer keeps every message it is asked to send.
type captureMailer struct {
	mu   sync.Mutex
	sent []edu.Message
}

func (c *captureMailer) Send(_ context.Context, msg edu.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) last() edu.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return edu.Message{}
	}
	return c.sent[len(c.sent)-1]
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []edu.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event edu.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []edu.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]edu.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// memoryLimiter is an in process AttemptLimiter.
type memoryLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func newMemoryLimiter(max int) *memoryLimiter {
	return &memoryLimiter{max: max, failures: map[string]int{}}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[key] < l.max, nil
}

func (l *memoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key]++
	return nil
}

func (l *memoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	return nil
}

// MockUsers implements edu.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*edu.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*edu.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id string) (*edu.User, error) {
	args := m.Called(ctx, tx, id)
	user, _ := args.Get(0).(*edu.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*edu.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*edu.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*edu.User, error) {
	args := m.Called(ctx, tx, email)
	user, _ := args.Get(0).(*edu.User)
	return user, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *edu.User) (*edu.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*edu.User)
	return out, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *edu.User) (*edu.User, error) {
	args := m.Called(ctx, tx, user)
	out, _ := args.Get(0).(*edu.User)
	return out, args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status edu.UserStatus, opts ...edu.StatusUpdateOption) (*edu.User, error) {
	args := m.Called(ctx, id, status, opts)
	out, _ := args.Get(0).(*edu.User)
	return out, args.Error(1)
}

func (m *MockUsers) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status edu.UserStatus, opts ...edu.StatusUpdateOption) (*edu.User, error) {
	args := m.Called(ctx, tx, id, status, opts)
	out, _ := args.Get(0).(*edu.User)
	return out, args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *edu.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *edu.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *edu.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *edu.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

var _ edu.Users = (*MockUsers)(nil)

func timePtr(t time.Time) *time.Time {
	return &t
}
