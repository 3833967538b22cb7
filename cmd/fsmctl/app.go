package main

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/viper"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
	"github.com/Proton-105/quizbot-fsm/internal/health"
	"github.com/Proton-105/quizbot-fsm/internal/lifecycle"
	"github.com/Proton-105/quizbot-fsm/internal/state"
	"github.com/Proton-105/quizbot-fsm/pkg/config"
	"github.com/Proton-105/quizbot-fsm/pkg/dynamo"
	"github.com/Proton-105/quizbot-fsm/pkg/logger"
	"github.com/Proton-105/quizbot-fsm/pkg/metrics"
	appredis "github.com/Proton-105/quizbot-fsm/pkg/redis"
)

const sentryFlushTimeout = 2 * time.Second

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	viper    *viper.Viper
	log      *logger.Logger
	store    state.Store
	checker  *health.Checker
	errors   *apperrors.Handler
	shutdown *lifecycle.Shutdown
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.Sentry.Enabled() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	log, err := logger.New(cfg.Log, cfg.Sentry.Enabled())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		viper:    v,
		log:      log,
		checker:  health.NewChecker(log.Logger),
		errors:   apperrors.NewHandler(log.Logger, cfg.Sentry.Enabled()),
		shutdown: lifecycle.NewShutdown(log.Logger),
	}

	a.shutdown.Register("logger", func(context.Context) error { return log.Close() })
	if cfg.Sentry.Enabled() {
		a.shutdown.Register("sentry", func(context.Context) error {
			sentry.Flush(sentryFlushTimeout)
			return nil
		})
	}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.shutdown.Execute(context.Background(), cfg.HTTP.ShutdownTimeout)
		return nil, err
	}

	backend := cfg.Store.Backend
	a.store = state.Observe(store, func(op, outcome string, elapsed time.Duration) {
		metrics.RecordStoreOperation(backend, op, outcome, elapsed)
	})

	log.Debug("fsm store ready",
		"backend", backend,
		"table", cfg.Store.TableName,
		"env", cfg.AppEnv,
	)

	return a, nil
}

func (a *app) openStore(ctx context.Context) (state.Store, error) {
	table := a.cfg.Store.TableName

	switch a.cfg.Store.Backend {
	case config.BackendRedis:
		rdb, err := appredis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
		a.checker.AddCheck("redis", health.NewRedisChecker(rdb))

		return state.NewRedisStore(rdb, table, a.log.Logger), nil
	default:
		client, err := dynamo.New(ctx, a.cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		api := dynamo.NewMetricsClient(client)
		a.checker.AddCheck("dynamodb", health.NewDynamoChecker(api, table))

		return state.NewDynamoStore(api, table, a.log.Logger), nil
	}
}

func (a *app) close() error {
	return a.shutdown.Execute(context.Background(), a.cfg.HTTP.ShutdownTimeout)
}
