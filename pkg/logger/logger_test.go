package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.With(slog.String("secret_access_key", "bound")).Info("loaded config",
		slog.String("table", "quizbot-fsm"),
		slog.String("Password", "hunter2"),
		slog.Group("dynamodb", slog.String("access_key_id", "AKIA"), slog.String("region", "eu-central-1")),
	)

	out := buf.String()
	assert.Contains(t, out, "table=quizbot-fsm")
	assert.Contains(t, out, "Password=***")
	assert.Contains(t, out, "secret_access_key=***")
	assert.Contains(t, out, "dynamodb.access_key_id=***")
	assert.Contains(t, out, "dynamodb.region=eu-central-1")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "AKIA")
	assert.NotContains(t, out, "bound")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	log, err := New(Config{Level: "error", Format: "text"}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	ctx := context.Background()
	assert.False(t, log.Enabled(ctx, slog.LevelInfo))

	require.NoError(t, log.SetLevel("debug"))
	assert.True(t, log.Enabled(ctx, slog.LevelDebug))

	assert.Error(t, log.SetLevel("nope"))
	assert.True(t, log.Enabled(ctx, slog.LevelDebug))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"}, false)
	assert.Error(t, err)
}

func TestMiddleware_CorrelationID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))
}

func TestCorrelationIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.NotEmpty(t, CorrelationIDFromContext(WithCorrelationID(context.Background(), "")))
}
