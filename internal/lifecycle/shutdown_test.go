package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdown_ExecuteOrderAndErrors(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	errClose := errors.New("close failed")

	s.Register("redis", func(context.Context) error {
		order = append(order, "redis")
		return errClose
	})
	s.Register("nil hook", nil)
	s.Register("http", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		order = append(order, "http")
		return nil
	})

	err := s.Execute(context.Background(), time.Second)

	assert.Equal(t, []string{"http", "redis"}, order)
	assert.ErrorIs(t, err, errClose)
	assert.ErrorContains(t, err, "redis: close failed")

	assert.NoError(t, s.Execute(context.Background(), time.Second))
}
