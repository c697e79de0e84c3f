package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Validationf("amount %s", "-1"), "validation"},
		{NotFoundf("wallet %d", 7), "not_found"},
		{RequireOwner(""), "unauthorized"},
		{fmt.Errorf("save: %w", ErrConflict), "conflict"},
		{fmt.Errorf("%w: disk full", ErrPersistence), "persistence"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, RequireOwner("alice"))
	assert.ErrorIs(t, RequireOwner(""), ErrUnauthorized)
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not save", ErrConflict)
	assert.Equal(t, "could not save: conflict", err.Error())
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("update wallet: %w", ErrConflict)))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("busy"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("bad"), Retryable: false}))
	assert.False(t, IsRetryable(Validationf("bad")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("%w: %w", ErrConflict, context.DeadlineExceeded)))
}
