package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"postura/internal/bootstrap"
	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/usecase/execution"
	"postura/internal/usecase/registry"
	"postura/internal/usecase/review"
	"postura/internal/usecase/scheduler"
	"postura/internal/usecase/scoring"
)

// services bundles everything a command may need, populated from the fx
// container in one shot.
type services struct {
	fx.In

	App       *bootstrap.App
	Registry  *registry.Service
	Execution *execution.Service
	Review    *review.Service
	Scoring   *scoring.Service
	Scheduler *scheduler.Service
}

func withApp(run func(cmd *cobra.Command, svc services) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var svc services
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&svc),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if err := run(cmd, svc); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}
