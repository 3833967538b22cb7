package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	apperrors "github.com/Proton-105/quizbot-fsm/internal/errors"
	"github.com/Proton-105/quizbot-fsm/internal/health"
	"github.com/Proton-105/quizbot-fsm/internal/state"
	"github.com/Proton-105/quizbot-fsm/pkg/config"
	"github.com/Proton-105/quizbot-fsm/pkg/graceful"
	"github.com/Proton-105/quizbot-fsm/pkg/logger"
)

const noStateMarker = "<none>"

type cli struct {
	configPath string
	retry      bool
	timeout    time.Duration

	// open builds the app; replaced in tests.
	open func(ctx context.Context, configPath string) (*app, error)
	app  *app
}

func run(ctx context.Context, args []string) int {
	c := &cli{open: bootstrap}
	root := c.rootCmd(os.Stdout, os.Stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

func (c *cli) rootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "fsmctl",
		Short:         "Inspect and manage per-chat FSM state of the quiz bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			a, err := c.open(cmd.Context(), c.configPath)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			c.app = a
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ./configs/<APP_ENV>.yaml)")
	flags.BoolVar(&c.retry, "retry", false, "retry store requests that fail with a retryable error")
	flags.DurationVar(&c.timeout, "timeout", 10*time.Second, "deadline for a single command")

	root.AddCommand(
		c.getCmd(),
		c.setCmd(),
		c.resetCmd(),
		c.recordCmd(),
		c.healthCmd(),
		c.serveCmd(),
	)

	return root
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <chat_id>",
		Short:   "Print the current state of a chat",
		Example: "  fsmctl get 42\n  fsmctl get -- -1001234567890",
		Args:    cobra.ExactArgs(1),
		RunE: c.withChat(func(ctx context.Context, cmd *cobra.Command, chatID int64, _ []string) error {
			var (
				current state.State
				found   bool
			)
			err := c.call(ctx, func() error {
				var err error
				current, found, err = c.app.store.GetState(ctx, chatID)
				return err
			})
			if err != nil {
				return err
			}

			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), noStateMarker)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		}),
	}
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <chat_id> <state>",
		Short: "Overwrite the state of a chat, clearing its scores",
		Args:  cobra.ExactArgs(2),
		RunE: c.withChat(func(ctx context.Context, _ *cobra.Command, chatID int64, args []string) error {
			if args[1] == "" {
				return apperrors.NewValidationError("state name must not be empty")
			}
			return c.call(ctx, func() error {
				return c.app.store.SetState(ctx, chatID, state.State(args[1]))
			})
		}),
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <chat_id>",
		Short: "Remove the state record of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: c.withChat(func(ctx context.Context, _ *cobra.Command, chatID int64, _ []string) error {
			return c.call(ctx, func() error {
				return c.app.store.Reset(ctx, chatID)
			})
		}),
	}
}

func (c *cli) recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <chat_id>",
		Short: "Print the full record of a chat as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: c.withChat(func(ctx context.Context, cmd *cobra.Command, chatID int64, _ []string) error {
			var record *state.Record
			err := c.call(ctx, func() error {
				var err error
				record, err = c.app.store.GetRecord(ctx, chatID)
				return err
			})
			if err != nil {
				return err
			}

			if record == nil {
				fmt.Fprintln(cmd.OutOrStdout(), noStateMarker)
				return nil
			}

			out, err := sonic.ConfigStd.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}),
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			results := c.app.checker.Check(ctx)
			for _, name := range health.Names(results) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, results[name])
			}

			if !health.Healthy(results) {
				err := apperrors.NewStoreUnavailableError(errors.New("health check failed"))
				c.report(ctx, cmd, err, false)
				return err
			}
			return nil
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose /metrics and /healthz until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			config.WatchLogLevel(a.viper, a.log.Logger, a.log.SetLevel)

			srv := graceful.NewServer(a.log.Logger, a.cfg.HTTP.Addr, a.checker, a.cfg.HTTP.ShutdownTimeout)
			if err := srv.ListenAndServe(cmd.Context()); err != nil {
				c.report(cmd.Context(), cmd, err, false)
				return err
			}
			return nil
		},
	}
}

type chatFunc func(ctx context.Context, cmd *cobra.Command, chatID int64, args []string) error

// withChat parses the chat id argument, applies the command deadline and a
// correlation id, and reports failures through the error handler.
func (c *cli) withChat(fn chatFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(logger.WithCorrelationID(cmd.Context(), ""), c.timeout)
		defer cancel()

		err := func() error {
			chatID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperrors.NewValidationError(fmt.Sprintf("chat id %q is not a 64-bit integer", args[0]))
			}
			return fn(ctx, cmd, chatID, args)
		}()
		if err != nil {
			c.report(ctx, cmd, err, true)
		}
		return err
	}
}

// report passes err to the error handler and prints the resulting message to
// stderr. Errors that carry no user message are printed as is.
func (c *cli) report(ctx context.Context, cmd *cobra.Command, err error, retryHint bool) {
	msg, retryable := c.app.errors.Handle(ctx, err)
	if !apperrors.IsAppError(err) {
		msg = err.Error()
	}
	if retryHint && retryable && !c.retry {
		msg += " (use --retry to retry automatically)"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}

func (c *cli) call(ctx context.Context, fn func() error) error {
	if c.retry {
		return apperrors.WithRetry(ctx, fn)
	}
	return fn()
}
