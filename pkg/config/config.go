package config

import (
	"time"

	"github.com/Proton-105/quizbot-fsm/pkg/dynamo"
	"github.com/Proton-105/quizbot-fsm/pkg/logger"
	"github.com/Proton-105/quizbot-fsm/pkg/redis"
)

// Supported FSM store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config holds runtime configuration for the FSM store tooling.
type Config struct {
	AppEnv   string        `mapstructure:"app_env"`
	Log      logger.Config `mapstructure:"log"`
	Store    StoreConfig   `mapstructure:"store"`
	DynamoDB dynamo.Config `mapstructure:"dynamodb"`
	Redis    redis.Config  `mapstructure:"redis"`
	Sentry   SentryConfig  `mapstructure:"sentry"`
	HTTP     HTTPConfig    `mapstructure:"http"`
}

// StoreConfig selects the backend and the table (or Redis key namespace) holding FSM records.
type StoreConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=dynamodb redis"`
	TableName string `mapstructure:"table_name" validate:"required"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn" validate:"omitempty,url"`
	Environment string `mapstructure:"environment"`
}

// Enabled reports whether Sentry reporting is configured.
func (c SentryConfig) Enabled() bool {
	return c.DSN != ""
}

// HTTPConfig configures the operational endpoint serving /metrics and /healthz.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}
