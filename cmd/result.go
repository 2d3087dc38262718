package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/usecase/execution"
	"postura/internal/usecase/review"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Record and publish check run results",
}

var resultRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a run outcome for an active check",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		checkID, _ := cmd.Flags().GetString("check")
		status, _ := cmd.Flags().GetString("status")
		severity, _ := cmd.Flags().GetString("severity")
		notes, _ := cmd.Flags().GetString("notes")
		controlID, _ := cmd.Flags().GetString("control")
		requiresReview, _ := cmd.Flags().GetBool("requires-review")
		priority, _ := cmd.Flags().GetString("priority")
		assignedTo, _ := cmd.Flags().GetString("assignee")
		actor, _ := cmd.Flags().GetString("actor")

		run, err := svc.Execution.RunCheck(ctx, checkID, execution.RunCheckInput{
			Status:         status,
			Severity:       severity,
			Notes:          notes,
			ControlID:      controlID,
			RequiresReview: requiresReview,
			Priority:       priority,
			AssignedTo:     assignedTo,
			Actor:          actor,
		})
		if err != nil {
			logging.Error(ctx, "record result failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record result")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"recorded result: %s status=%s review_queued=%t next_run_at=%s\n",
			run.Result.ID,
			run.Result.Status,
			run.ReviewQueued,
			formatTime(&run.NextRunAt),
		); err != nil {
			return errs.Wrap(err, "write record output")
		}
		return nil
	}),
}

var resultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded results",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		checkID, _ := cmd.Flags().GetString("check")
		controlID, _ := cmd.Flags().GetString("control")
		status, _ := cmd.Flags().GetString("status")
		publication, _ := cmd.Flags().GetString("publication")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		listing, err := svc.Execution.ListResults(ctx, execution.ListResultsInput{
			CheckID:          checkID,
			ControlID:        controlID,
			Status:           status,
			PublicationState: publication,
			Limit:            limit,
			Offset:           offset,
		})
		if err != nil {
			logging.Error(ctx, "list results failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list results")
		}

		out := cmd.OutOrStdout()
		if len(listing.Items) == 0 {
			if _, err := fmt.Fprintln(out, "no results"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		table := newTable(out, []string{"ID", "CHECK", "CONTROL", "STATUS", "SEVERITY", "PUBLICATION", "EXECUTED"})
		for _, item := range listing.Items {
			table.Append(
				item.ID,
				item.CheckID,
				formatOptString(item.ControlID),
				item.Status,
				item.Severity,
				item.PublicationState,
				formatTime(&item.ExecutedAt),
			)
		}
		if err := table.Render(); err != nil {
			return errs.Wrap(err, "render results table")
		}

		fmt.Fprintf(out, "\ntotal=%d limit=%d offset=%d\n", listing.Total, listing.Limit, listing.Offset)
		return nil
	}),
}

var resultPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a result so scoring can see it",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		resultID, _ := cmd.Flags().GetString("id")
		severity, _ := cmd.Flags().GetString("severity")
		notes, _ := cmd.Flags().GetString("notes")
		actor, _ := cmd.Flags().GetString("actor")

		published, err := svc.Review.PublishResult(ctx, resultID, review.PublishResultInput{
			Severity: severity,
			Notes:    notes,
			Actor:    actor,
		})
		if err != nil {
			logging.Error(ctx, "publish result failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "publish result")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"published result: %s status=%s published_at=%s\n",
			published.ID,
			published.Status,
			formatTime(published.PublishedAt),
		); err != nil {
			return errs.Wrap(err, "write publish output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.AddCommand(resultRecordCmd)
	resultCmd.AddCommand(resultListCmd)
	resultCmd.AddCommand(resultPublishCmd)

	resultRecordCmd.Flags().String("check", "", "Check id")
	resultRecordCmd.Flags().String("status", "", "Run status (PASS|FAIL|WARNING|ERROR|PENDING_REVIEW)")
	resultRecordCmd.Flags().String("severity", "", "Severity override")
	resultRecordCmd.Flags().String("notes", "", "Run notes")
	resultRecordCmd.Flags().String("control", "", "Explicit control id for the result")
	resultRecordCmd.Flags().Bool("requires-review", false, "Force the result into the review queue")
	resultRecordCmd.Flags().String("priority", "", "Review task priority (LOW|MEDIUM|HIGH|URGENT)")
	resultRecordCmd.Flags().String("assignee", "", "Review task assignee")
	resultRecordCmd.Flags().String("actor", "", "Actor recorded on the run")
	_ = resultRecordCmd.MarkFlagRequired("check")

	resultListCmd.Flags().String("check", "", "Filter by check id")
	resultListCmd.Flags().String("control", "", "Filter by control id")
	resultListCmd.Flags().String("status", "", "Filter by run status")
	resultListCmd.Flags().String("publication", "", "Filter by publication state (UNPUBLISHED|VALIDATED|PUBLISHED)")
	resultListCmd.Flags().Int("limit", 0, "Page size (default 25, max 100)")
	resultListCmd.Flags().Int("offset", 0, "Page offset")

	resultPublishCmd.Flags().String("id", "", "Result id")
	resultPublishCmd.Flags().String("severity", "", "Severity override applied while publishing")
	resultPublishCmd.Flags().String("notes", "", "Replacement notes")
	resultPublishCmd.Flags().String("actor", "", "Actor recorded on the publication")
	_ = resultPublishCmd.MarkFlagRequired("id")
}
