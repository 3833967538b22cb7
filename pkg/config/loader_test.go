package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	path := writeConfig(t, `
log:
  level: debug
store:
  backend: dynamodb
  table_name: quizbot-fsm
dynamodb:
  region: eu-central-1
  endpoint: http://localhost:8000
http:
  addr: ":9100"
`)

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendDynamoDB, cfg.Store.Backend)
	assert.Equal(t, "quizbot-fsm", cfg.Store.TableName)
	assert.Equal(t, "eu-central-1", cfg.DynamoDB.Region)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "test", cfg.Sentry.Environment)
	assert.False(t, cfg.Sentry.Enabled())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STORE_TABLE_NAME", "from-env")
	t.Setenv("STORE_BACKEND", "redis")

	path := writeConfig(t, `
store:
  backend: dynamodb
  table_name: from-file
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Store.TableName)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "missing table name",
			body: "store:\n  backend: dynamodb\n",
		},
		{
			name: "unknown backend",
			body: "store:\n  backend: postgres\n  table_name: t\n",
		},
		{
			name: "unknown log level",
			body: "log:\n  level: loud\nstore:\n  table_name: t\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tc.body))
			assert.ErrorContains(t, err, "validate config")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}
