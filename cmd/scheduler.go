package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Advance due-check schedule bookkeeping",
}

var schedulerPollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one scheduler pass over due checks",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		touched, err := svc.Scheduler.PollDueChecks(ctx, time.Now().UTC())
		if err != nil {
			logging.Error(ctx, "scheduler poll failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "scheduler poll")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "advanced %d due check(s)\n", touched); err != nil {
			return errs.Wrap(err, "write poll output")
		}
		return nil
	}),
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll continuously until interrupted",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		interval := svc.App.Config.Scheduler.PollInterval
		if flagInterval, _ := cmd.Flags().GetDuration("interval"); flagInterval > 0 {
			interval = flagInterval
		}

		logging.Info(ctx, "scheduler loop starting", slog.Duration("interval", interval))
		if err := svc.Scheduler.RunLoop(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			return errs.Wrap(err, "scheduler loop")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerPollCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerRunCmd.Flags().Duration("interval", 0, "Poll interval override (default from config)")
}
