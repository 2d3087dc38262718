package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/usecase/registry"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Manage the control catalog and inspect posture scores",
}

var controlCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a control",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		riskTier, _ := cmd.Flags().GetString("risk-tier")

		control, err := svc.Registry.CreateControl(ctx, registry.CreateControlInput{
			Name:        name,
			Description: description,
			RiskTier:    riskTier,
		})
		if err != nil {
			logging.Error(ctx, "create control failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create control")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created control: %s risk_tier=%s\n", control.ID, control.RiskTier); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var controlListCmd = &cobra.Command{
	Use:   "list",
	Short: "List controls",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		controls, err := svc.Registry.ListControls(ctx)
		if err != nil {
			logging.Error(ctx, "list controls failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list controls")
		}

		out := cmd.OutOrStdout()
		if len(controls) == 0 {
			if _, err := fmt.Fprintln(out, "no controls"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		table := newTable(out, []string{"ID", "NAME", "RISK TIER", "CREATED"})
		for _, c := range controls {
			table.Append(c.ID, c.Name, c.RiskTier, formatTime(&c.CreatedAt))
		}
		if err := table.Render(); err != nil {
			return errs.Wrap(err, "render controls table")
		}
		return nil
	}),
}

var controlScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show windowed posture score history for a control",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		controlID, _ := cmd.Flags().GetString("id")
		granularity, _ := cmd.Flags().GetString("granularity")
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := svc.Scoring.GetControlScoreHistory(ctx, controlID, granularity, limit)
		if err != nil {
			logging.Error(ctx, "score history failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "score history")
		}

		out := cmd.OutOrStdout()
		if len(history.History) == 0 {
			if _, err := fmt.Fprintf(out, "no score history for control %s\n", controlID); err != nil {
				return errs.Wrap(err, "write score output")
			}
			return nil
		}

		table := newTable(out, []string{"WINDOW START", "SCORE", "CLASSIFICATION", "SAMPLES"})
		for _, score := range history.History {
			table.Append(
				formatTime(&score.WindowStart),
				strconv.FormatFloat(score.Score, 'f', 4, 64),
				score.Classification,
				strconv.Itoa(score.SampleSize),
			)
		}
		if err := table.Render(); err != nil {
			return errs.Wrap(err, "render score table")
		}

		if history.Summary.AverageScore != nil {
			fmt.Fprintf(
				out,
				"\naverage=%s latest=%s\n",
				strconv.FormatFloat(*history.Summary.AverageScore, 'f', 4, 64),
				history.Summary.LatestClassification,
			)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.AddCommand(controlCreateCmd)
	controlCmd.AddCommand(controlListCmd)
	controlCmd.AddCommand(controlScoreCmd)

	controlCreateCmd.Flags().String("name", "", "Control name")
	controlCreateCmd.Flags().String("description", "", "Control description")
	controlCreateCmd.Flags().String("risk-tier", "", "Risk tier (LOW|MEDIUM|HIGH)")
	_ = controlCreateCmd.MarkFlagRequired("name")

	controlScoreCmd.Flags().String("id", "", "Control id")
	controlScoreCmd.Flags().String("granularity", "daily", "Bucket granularity (daily|weekly|monthly)")
	controlScoreCmd.Flags().Int("limit", 0, "Number of windows (default 30, max 365)")
	_ = controlScoreCmd.MarkFlagRequired("id")
}
