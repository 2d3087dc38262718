package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"postura/internal/bootstrap/logging"
	"postura/internal/errs"
	"postura/internal/usecase/registry"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Manage check definitions and their lifecycle",
}

var checkCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a check definition in DRAFT",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		checkType, _ := cmd.Flags().GetString("type")
		severity, _ := cmd.Flags().GetString("severity")
		frequency, _ := cmd.Flags().GetString("frequency")
		probeID, _ := cmd.Flags().GetString("probe")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		actor, _ := cmd.Flags().GetString("actor")
		linkSpecs, _ := cmd.Flags().GetStringSlice("control")

		links, err := parseControlLinks(linkSpecs)
		if err != nil {
			return err
		}

		detail, err := svc.Registry.CreateCheck(ctx, registry.CreateCheckInput{
			Name:        name,
			Description: description,
			Type:        checkType,
			Severity:    severity,
			Frequency:   frequency,
			ProbeID:     probeID,
			Tags:        tags,
			Links:       links,
			Actor:       actor,
		})
		if err != nil {
			logging.Error(ctx, "create check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create check")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created check: %s version=%d status=%s\n", detail.ID, detail.Version, detail.Status); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var checkUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Patch a check definition or move it through its lifecycle",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		actor, _ := cmd.Flags().GetString("actor")
		bump, _ := cmd.Flags().GetBool("bump-version")

		input := registry.UpdateCheckInput{
			BumpVersion: bump,
			Actor:       actor,
		}
		if cmd.Flags().Changed("name") {
			value, _ := cmd.Flags().GetString("name")
			input.Name = &value
		}
		if cmd.Flags().Changed("description") {
			value, _ := cmd.Flags().GetString("description")
			input.Description = &value
		}
		if cmd.Flags().Changed("status") {
			value, _ := cmd.Flags().GetString("status")
			input.Status = &value
		}
		if cmd.Flags().Changed("severity") {
			value, _ := cmd.Flags().GetString("severity")
			input.Severity = &value
		}
		if cmd.Flags().Changed("frequency") {
			value, _ := cmd.Flags().GetString("frequency")
			input.Frequency = &value
		}
		if cmd.Flags().Changed("probe") {
			value, _ := cmd.Flags().GetString("probe")
			input.ProbeID = &value
		}
		if cmd.Flags().Changed("tag") {
			tags, _ := cmd.Flags().GetStringSlice("tag")
			input.Tags = tags
		}
		if cmd.Flags().Changed("control") {
			linkSpecs, _ := cmd.Flags().GetStringSlice("control")
			links, err := parseControlLinks(linkSpecs)
			if err != nil {
				return err
			}
			input.Links = &links
		}

		detail, err := svc.Registry.UpdateCheck(ctx, id, input)
		if err != nil {
			logging.Error(ctx, "update check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update check")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "updated check: %s version=%d status=%s\n", detail.ID, detail.Version, detail.Status); err != nil {
			return errs.Wrap(err, "write update output")
		}
		return nil
	}),
}

var checkActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Activate a check that passed validation",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		actor, _ := cmd.Flags().GetString("actor")

		detail, err := svc.Registry.ActivateCheck(ctx, id, actor)
		if err != nil {
			logging.Error(ctx, "activate check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "activate check")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"activated check: %s version=%d next_run_at=%s\n",
			detail.ID,
			detail.Version,
			formatTime(detail.NextRunAt),
		); err != nil {
			return errs.Wrap(err, "write activate output")
		}
		return nil
	}),
}

var checkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a check definition, its control links, and version timeline",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		detail, err := svc.Registry.GetCheck(ctx, id)
		if err != nil {
			logging.Error(ctx, "show check failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show check")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID: %s\n", detail.ID)
		fmt.Fprintf(out, "Name: %s\n", detail.Name)
		fmt.Fprintf(out, "Status: %s\n", detail.Status)
		fmt.Fprintf(out, "Type: %s\n", detail.Type)
		fmt.Fprintf(out, "Severity: %s\n", detail.SeverityDefault)
		fmt.Fprintf(out, "Frequency: %s\n", detail.Frequency)
		fmt.Fprintf(out, "Version: %d\n", detail.Version)
		if detail.ProbeID != "" {
			fmt.Fprintf(out, "Probe: %s\n", detail.ProbeID)
		}
		if len(detail.Tags) > 0 {
			fmt.Fprintf(out, "Tags: %s\n", strings.Join(detail.Tags, ","))
		}
		fmt.Fprintf(out, "LastRunAt: %s\n", formatTime(detail.LastRunAt))
		fmt.Fprintf(out, "NextRunAt: %s\n", formatTime(detail.NextRunAt))
		if detail.Description != "" {
			fmt.Fprintf(out, "\nDescription:\n%s\n", detail.Description)
		}

		if len(detail.Links) > 0 {
			fmt.Fprintln(out, "\nControl links:")
			table := newTable(out, []string{"CONTROL", "WEIGHT", "ENFORCEMENT"})
			for _, link := range detail.Links {
				table.Append(link.ControlID, strconv.FormatFloat(link.Weight, 'g', -1, 64), link.EnforcementLevel)
			}
			if err := table.Render(); err != nil {
				return errs.Wrap(err, "render links table")
			}
		}

		if len(detail.Versions) > 0 {
			fmt.Fprintln(out, "\nVersions:")
			table := newTable(out, []string{"VERSION", "STATUS", "ACTOR", "CREATED"})
			for _, v := range detail.Versions {
				actor := v.Actor
				if actor == "" {
					actor = "-"
				}
				table.Append(strconv.Itoa(v.Version), v.Status, actor, formatTime(&v.CreatedAt))
			}
			if err := table.Render(); err != nil {
				return errs.Wrap(err, "render versions table")
			}
		}
		return nil
	}),
}

var checkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List check definitions",
	RunE: withApp(func(cmd *cobra.Command, svc services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		checkType, _ := cmd.Flags().GetString("type")
		severity, _ := cmd.Flags().GetString("severity")
		controlID, _ := cmd.Flags().GetString("control")
		probeID, _ := cmd.Flags().GetString("probe")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		listing, err := svc.Registry.ListChecks(ctx, registry.ListChecksInput{
			Status:    status,
			Type:      checkType,
			Severity:  severity,
			ControlID: controlID,
			ProbeID:   probeID,
			Search:    search,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			logging.Error(ctx, "list checks failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list checks")
		}

		out := cmd.OutOrStdout()
		if len(listing.Items) == 0 {
			if _, err := fmt.Fprintln(out, "no checks"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		table := newTable(out, []string{"ID", "NAME", "STATUS", "TYPE", "SEVERITY", "FREQ", "VER", "NEXT RUN"})
		for _, item := range listing.Items {
			table.Append(item.ID, item.Name, item.Status, item.Type, item.SeverityDefault, item.Frequency, strconv.Itoa(item.Version), formatTime(item.NextRunAt))
		}
		if err := table.Render(); err != nil {
			return errs.Wrap(err, "render checks table")
		}

		fmt.Fprintf(out, "\ntotal=%d limit=%d offset=%d\n", listing.Total, listing.Limit, listing.Offset)
		fmt.Fprintf(
			out,
			"coverage: mandatory=%d recommended=%d optional=%d\n",
			listing.ControlCoverage.Mandatory,
			listing.ControlCoverage.Recommended,
			listing.ControlCoverage.Optional,
		)
		return nil
	}),
}

// parseControlLinks turns "controlID[:weight[:level]]" specs into link inputs.
func parseControlLinks(specs []string) ([]registry.ControlLinkInput, error) {
	links := make([]registry.ControlLinkInput, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		link := registry.ControlLinkInput{ControlID: strings.TrimSpace(parts[0])}
		if link.ControlID == "" {
			return nil, fmt.Errorf("invalid control link spec %q", spec)
		}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			weight, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				return nil, errs.Wrapf(err, "invalid weight in control link spec %q", spec)
			}
			link.Weight = weight
		}
		if len(parts) > 2 {
			link.EnforcementLevel = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			return nil, fmt.Errorf("invalid control link spec %q", spec)
		}
		links = append(links, link)
	}
	return links, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkCreateCmd)
	checkCmd.AddCommand(checkUpdateCmd)
	checkCmd.AddCommand(checkActivateCmd)
	checkCmd.AddCommand(checkShowCmd)
	checkCmd.AddCommand(checkListCmd)

	checkCreateCmd.Flags().String("name", "", "Check name")
	checkCreateCmd.Flags().String("description", "", "Check description")
	checkCreateCmd.Flags().String("type", "", "Check type (AUTOMATED|MANUAL|HYBRID)")
	checkCreateCmd.Flags().String("severity", "", "Default severity (LOW|MEDIUM|HIGH|CRITICAL)")
	checkCreateCmd.Flags().String("frequency", "", "Run frequency, for example PT6H, 1d, hourly")
	checkCreateCmd.Flags().String("probe", "", "Probe identifier")
	checkCreateCmd.Flags().StringSlice("tag", nil, "Check tags")
	checkCreateCmd.Flags().StringSlice("control", nil, "Control link spec controlID[:weight[:level]]")
	checkCreateCmd.Flags().String("actor", "", "Actor recorded on the version snapshot")
	_ = checkCreateCmd.MarkFlagRequired("name")

	checkUpdateCmd.Flags().String("id", "", "Check id")
	checkUpdateCmd.Flags().String("name", "", "New name")
	checkUpdateCmd.Flags().String("description", "", "New description")
	checkUpdateCmd.Flags().String("status", "", "Target lifecycle status")
	checkUpdateCmd.Flags().String("severity", "", "New default severity")
	checkUpdateCmd.Flags().String("frequency", "", "New run frequency")
	checkUpdateCmd.Flags().String("probe", "", "New probe identifier")
	checkUpdateCmd.Flags().StringSlice("tag", nil, "Replacement tag set")
	checkUpdateCmd.Flags().StringSlice("control", nil, "Replacement control link specs")
	checkUpdateCmd.Flags().Bool("bump-version", false, "Force a version snapshot even without a status change")
	checkUpdateCmd.Flags().String("actor", "", "Actor recorded on the version snapshot")
	_ = checkUpdateCmd.MarkFlagRequired("id")

	checkActivateCmd.Flags().String("id", "", "Check id")
	checkActivateCmd.Flags().String("actor", "", "Actor recorded on the version snapshot")
	_ = checkActivateCmd.MarkFlagRequired("id")

	checkShowCmd.Flags().String("id", "", "Check id")
	_ = checkShowCmd.MarkFlagRequired("id")

	checkListCmd.Flags().String("status", "", "Filter by lifecycle status")
	checkListCmd.Flags().String("type", "", "Filter by check type")
	checkListCmd.Flags().String("severity", "", "Filter by default severity")
	checkListCmd.Flags().String("control", "", "Filter by linked control id")
	checkListCmd.Flags().String("probe", "", "Filter by probe id")
	checkListCmd.Flags().String("search", "", "Substring match on name and description")
	checkListCmd.Flags().Int("limit", 0, "Page size (default 25, max 100)")
	checkListCmd.Flags().Int("offset", 0, "Page offset")
}
