package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/usecase/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the human review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review queue items",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		state, _ := cmd.Flags().GetString("state")
		priority, _ := cmd.Flags().GetString("priority")
		assignedTo, _ := cmd.Flags().GetString("assignee")
		checkID, _ := cmd.Flags().GetString("check")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		listing, err := svc.Review.ListReviewQueue(ctx, review.ListQueueInput{
			State:      state,
			Priority:   priority,
			AssignedTo: assignedTo,
			CheckID:    checkID,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			logging.Error(ctx, "list review queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list review queue")
		}

		out := cmd.OutOrStdout()
		if len(listing.Items) == 0 {
			if _, err := fmt.Fprintln(out, "review queue is empty"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		table := newTable(out, []string{"ID", "CHECK", "RESULT", "STATE", "PRIORITY", "ASSIGNEE", "DUE"})
		for _, item := range listing.Items {
			table.Append(
				item.ID,
				item.CheckID,
				item.ResultID,
				item.State,
				item.Priority,
				formatOptString(item.AssignedTo),
				formatTime(item.DueAt),
			)
		}
		if err := table.Render(); err != nil {
			return errs.Wrap(err, "render queue table")
		}

		fmt.Fprintf(out, "\ntotal=%d limit=%d offset=%d\n", listing.Total, listing.Limit, listing.Offset)
		return nil
	}),
}

var reviewClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim a review task",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		itemID, _ := cmd.Flags().GetString("id")
		assignee, _ := cmd.Flags().GetString("assignee")

		item, err := svc.Review.ClaimReviewTask(ctx, itemID, assignee)
		if err != nil {
			logging.Error(ctx, "claim review task failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "claim review task")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"claimed review task: %s state=%s assignee=%s\n",
			item.ID,
			item.State,
			formatOptString(item.AssignedTo),
		); err != nil {
			return errs.Wrap(err, "write claim output")
		}
		return nil
	}),
}

var reviewCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete a review task with a decision",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		itemID, _ := cmd.Flags().GetString("id")
		status, _ := cmd.Flags().GetString("status")
		severity, _ := cmd.Flags().GetString("severity")
		notes, _ := cmd.Flags().GetString("notes")
		reviewer, _ := cmd.Flags().GetString("reviewer")
		publish, _ := cmd.Flags().GetBool("publish")

		completed, err := svc.Review.CompleteReviewTask(ctx, itemID, review.ReviewDecisionInput{
			Status:   status,
			Severity: severity,
			Notes:    notes,
			Reviewer: reviewer,
			Publish:  publish,
		})
		if err != nil {
			logging.Error(ctx, "complete review task failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complete review task")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"completed review task: %s result=%s status=%s publication=%s\n",
			completed.Item.ID,
			completed.Result.ID,
			completed.Result.Status,
			completed.Result.PublicationState,
		); err != nil {
			return errs.Wrap(err, "write complete output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewClaimCmd)
	reviewCmd.AddCommand(reviewCompleteCmd)

	reviewListCmd.Flags().String("state", "", "Filter by state (OPEN|IN_PROGRESS|COMPLETED)")
	reviewListCmd.Flags().String("priority", "", "Filter by priority")
	reviewListCmd.Flags().String("assignee", "", "Filter by assignee")
	reviewListCmd.Flags().String("check", "", "Filter by check id")
	reviewListCmd.Flags().Int("limit", 0, "Page size (default 25, max 100)")
	reviewListCmd.Flags().Int("offset", 0, "Page offset")

	reviewClaimCmd.Flags().String("id", "", "Review task id")
	reviewClaimCmd.Flags().String("assignee", "", "Claim owner")
	_ = reviewClaimCmd.MarkFlagRequired("id")
	_ = reviewClaimCmd.MarkFlagRequired("assignee")

	reviewCompleteCmd.Flags().String("id", "", "Review task id")
	reviewCompleteCmd.Flags().String("status", "", "Final run status decided by the reviewer")
	reviewCompleteCmd.Flags().String("severity", "", "Severity override")
	reviewCompleteCmd.Flags().String("notes", "", "Reviewer notes")
	reviewCompleteCmd.Flags().String("reviewer", "", "Reviewer identity")
	reviewCompleteCmd.Flags().Bool("publish", false, "Publish the result immediately after completion")
	_ = reviewCompleteCmd.MarkFlagRequired("id")
	_ = reviewCompleteCmd.MarkFlagRequired("reviewer")
}
