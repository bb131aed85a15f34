package edu_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-edu"
)

func TestUsersRegisterForcesInactive(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Users().Register(ctx, &edu.User{
		Name:         "Ada",
		Email:        "  Ada@Example.COM ",
		PasswordHash: "hash",
		Role:         edu.RoleStudent,
		Status:       edu.UserStatusActive,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, edu.UserStatusInactive, user.Status)

	found, err := repo.Users().GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, edu.RoleStudent, found.Role)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.False(t, found.IsActive())
}

func TestUsersRegisterDuplicateEmail(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusInactive)

	_, err := repo.Users().Register(ctx, &edu.User{
		Name:         "Other Ada",
		Email:        "ADA@example.com",
		PasswordHash: "hash",
		Role:         edu.RoleInstructor,
	})
	assert.ErrorIs(t, err, edu.ErrDuplicateEmail)
	assert.Equal(t, 1, countUsers(t, db))
}

func TestUsersGetNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Users().GetByEmail(ctx, "nobody@example.com")
	assert.True(t, edu.IsRecordNotFound(err))

	_, err = repo.Users().GetByID(ctx, uuid.NewString())
	assert.True(t, edu.IsRecordNotFound(err))

	_, err = repo.Users().GetByID(ctx, "not-a-uuid")
	assert.True(t, edu.IsRecordNotFound(err))
}

func TestUsersUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	repo := edu.NewRepositoryManager(db, edu.WithUsersClock(fixedClock(now)))
	ctx := context.Background()

	user := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusInactive)

	updated, err := repo.Users().UpdateStatus(ctx, user.ID, edu.UserStatusActive, edu.WithActivatedAt(&now))
	require.NoError(t, err)
	assert.Equal(t, edu.UserStatusActive, updated.Status)
	require.NotNil(t, updated.ActivatedAt)
	assert.True(t, now.Equal(*updated.ActivatedAt))

	_, err = repo.Users().UpdateStatus(ctx, uuid.New(), edu.UserStatusActive)
	assert.True(t, edu.IsRecordNotFound(err))
}

func TestUsersActivate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusInactive)

	sm := edu.NewUserStateMachine(repo.Users())
	activated, err := sm.Transition(ctx, edu.ActorRef{ID: user.ID.String(), Type: "user"}, user, edu.UserStatusActive)
	require.NoError(t, err)
	assert.True(t, activated.IsActive())
	assert.NotNil(t, activated.ActivatedAt)

	stored, err := repo.Users().GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.IsActive())
}

func TestUsersDeleteFreesEmail(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusInactive)
	require.NoError(t, repo.Users().Delete(ctx, user.ID))

	_, err := repo.Users().GetByID(ctx, user.ID.String())
	assert.True(t, edu.IsRecordNotFound(err))

	again := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusInactive)
	assert.NotEqual(t, user.ID, again.ID)
}

func TestUsersLoginTracking(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, repo, "ada@example.com", edu.RoleStudent, edu.UserStatusActive)

	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, user))
	require.NoError(t, repo.Users().TrackAttemptedLogin(ctx, user))

	stored, err := repo.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LoginAttempts)
	assert.NotNil(t, stored.LoginAttemptAt)

	require.NoError(t, repo.Users().TrackSuccessfulLogin(ctx, stored))

	stored, err = repo.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoginAttempts)
	assert.Nil(t, stored.LoginAttemptAt)
	assert.NotNil(t, stored.LoggedInAt)
}

func TestRepositoryManagerRunInTxRollsBack(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := repo.Users().RegisterTx(ctx, tx, &edu.User{
			Name:         "Ada",
			Email:        "ada@example.com",
			PasswordHash: "hash",
			Role:         edu.RoleStudent,
		})
		require.NoError(t, err)
		return edu.ErrForbidden
	})
	assert.ErrorIs(t, err, edu.ErrForbidden)
	assert.Equal(t, 0, countUsers(t, db))
}

func TestRepositoryManagerValidate(t *testing.T) {
	repo, _ := newTestRepo(t)
	assert.NoError(t, repo.Validate())
	assert.NotPanics(t, repo.MustValidate)
}
