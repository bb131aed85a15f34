package edu_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-edu"
)

func TestUserStateMachineActivationSetsTimestamp(t *testing.T) {
	repo := &MockUsers{}
	sink := &recordingSink{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &edu.User{
		ID:     uuid.New(),
		Status: edu.UserStatusInactive,
	}

	expected := &edu.User{
		ID:          user.ID,
		Status:      edu.UserStatusActive,
		ActivatedAt: &now,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, edu.UserStatusActive, mock.Anything).
		Return(expected, nil).Once()

	sm := edu.NewUserStateMachine(repo,
		edu.WithStateMachineClock(fixedClock(now)),
		edu.WithStateMachineActivitySink(sink),
	)

	result, err := sm.Transition(context.Background(), edu.ActorRef{ID: user.ID.String(), Type: "user"}, user, edu.UserStatusActive,
		edu.WithTransitionReason("otp verified"),
	)
	require.NoError(t, err)
	assert.True(t, result.IsActive())
	require.NotNil(t, result.ActivatedAt)
	assert.Equal(t, now, result.ActivatedAt.UTC())
	repo.AssertExpectations(t)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, edu.ActivityEventUserStatusChanged, event.EventType)
	assert.Equal(t, edu.UserStatusInactive, event.FromStatus)
	assert.Equal(t, edu.UserStatusActive, event.ToStatus)
	assert.Equal(t, "otp verified", event.Metadata["reason"])
	assert.Equal(t, now, event.OccurredAt)
}

func TestUserStateMachineRejectsDeactivation(t *testing.T) {
	repo := &MockUsers{}
	user := &edu.User{
		ID:     uuid.New(),
		Status: edu.UserStatusActive,
	}

	sm := edu.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusInactive)
	require.Error(t, err)
	assert.ErrorIs(t, err, edu.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineSameStatusIsNoop(t *testing.T) {
	repo := &MockUsers{}
	sink := &recordingSink{}
	user := &edu.User{
		ID:     uuid.New(),
		Status: edu.UserStatusActive,
	}

	sm := edu.NewUserStateMachine(repo, edu.WithStateMachineActivitySink(sink))

	result, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusActive)
	require.NoError(t, err)
	assert.Same(t, user, result)
	assert.Empty(t, sink.events)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineEmptyStatusTreatedAsInactive(t *testing.T) {
	repo := &MockUsers{}
	user := &edu.User{ID: uuid.New()}

	repo.On("UpdateStatus", mock.Anything, user.ID, edu.UserStatusActive, mock.Anything).
		Return(&edu.User{ID: user.ID, Status: edu.UserStatusActive}, nil).Once()

	sm := edu.NewUserStateMachine(repo)
	assert.Equal(t, edu.UserStatusInactive, sm.CurrentStatus(user))

	result, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusActive)
	require.NoError(t, err)
	assert.Equal(t, edu.UserStatusActive, result.Status)
}

func TestUserStateMachineBeforeHookAborts(t *testing.T) {
	repo := &MockUsers{}
	user := &edu.User{ID: uuid.New(), Status: edu.UserStatusInactive}
	hookErr := errors.New("blocked")

	sm := edu.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusActive,
		edu.WithBeforeTransitionHook(func(ctx context.Context, tc edu.TransitionContext) error {
			assert.Equal(t, edu.UserStatusInactive, tc.From)
			assert.Equal(t, edu.UserStatusActive, tc.To)
			return hookErr
		}),
	)
	assert.ErrorIs(t, err, hookErr)
	assert.Equal(t, edu.UserStatusInactive, user.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineAfterHookRuns(t *testing.T) {
	repo := &MockUsers{}
	user := &edu.User{ID: uuid.New(), Status: edu.UserStatusInactive}

	repo.On("UpdateStatus", mock.Anything, user.ID, edu.UserStatusActive, mock.Anything).
		Return(&edu.User{ID: user.ID, Status: edu.UserStatusActive}, nil).Once()

	called := false
	sm := edu.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusActive,
		edu.WithAfterTransitionHook(func(ctx context.Context, tc edu.TransitionContext) error {
			called = true
			return nil
		}),
	)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestUserStateMachineStoreFailure(t *testing.T) {
	repo := &MockUsers{}
	user := &edu.User{ID: uuid.New(), Status: edu.UserStatusInactive}
	storeErr := errors.New("disk full")

	repo.On("UpdateStatus", mock.Anything, user.ID, edu.UserStatusActive, mock.Anything).
		Return(nil, storeErr).Once()

	sm := edu.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), edu.ActorRef{}, user, edu.UserStatusActive)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, edu.UserStatusInactive, user.Status)
}

func TestUserStateMachineNilUser(t *testing.T) {
	sm := edu.NewUserStateMachine(&MockUsers{})

	_, err := sm.Transition(context.Background(), edu.ActorRef{}, nil, edu.UserStatusActive)
	assert.ErrorIs(t, err, edu.ErrInvalidTransition)
}
