package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDial = errors.New("dial tcp: connection refused")

func TestAppError_Kinds(t *testing.T) {
	unavailable := NewStoreUnavailableError(errDial)
	parsing := NewParsingError("given state is not recorded in FSM store")
	wrapped := fmt.Errorf("load state: %w", unavailable)

	assert.True(t, IsStoreUnavailable(unavailable))
	assert.True(t, IsStoreUnavailable(wrapped))
	assert.False(t, IsParsing(unavailable))
	assert.ErrorIs(t, unavailable, errDial)

	assert.True(t, IsParsing(parsing))
	assert.False(t, IsStoreUnavailable(parsing))
	assert.Nil(t, parsing.Unwrap())

	assert.False(t, IsStoreUnavailable(errDial))
	assert.False(t, IsParsing(nil))

	assert.True(t, IsAppError(wrapped))
	assert.False(t, IsAppError(errDial))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStoreUnavailableError(errDial)))
	assert.False(t, IsRetryable(NewParsingError("x")))
	assert.False(t, IsRetryable(NewValidationError("x")))
	assert.False(t, IsRetryable(errDial))
}

func TestWithRetry(t *testing.T) {
	t.Run("stops on non retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return NewParsingError("bad shape")
		})

		assert.True(t, IsParsing(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("retries store unavailability", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 2 {
				return NewStoreUnavailableError(errDial)
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return NewStoreUnavailableError(errDial)
		})

		assert.True(t, IsStoreUnavailable(err))
		assert.Equal(t, 1, calls)
	})
}

func TestHandler_Handle(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	msg, retryable := h.Handle(context.Background(), NewStoreUnavailableError(errDial))
	assert.Equal(t, "Temporary problem, please try again later", msg)
	assert.True(t, retryable)

	msg, retryable = h.Handle(context.Background(), errDial)
	assert.Equal(t, defaultUserMessage, msg)
	assert.False(t, retryable)

	msg, retryable = h.Handle(context.Background(), nil)
	assert.Empty(t, msg)
	assert.False(t, retryable)
}
