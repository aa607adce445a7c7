package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/tools/calendar_tools"
)

func newFindSlotsCmd() *cobra.Command {
	var (
		attendees string
		duration  int
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "find-slots",
		Short: "Find common free time for a group of attendees",
		Long: `Find start times inside working hours at which every attendee is free,
using the free/busy data of their shared calendars.

Example:
  meetwise find-slots --attendees alice@example.com,bob@example.com --duration 45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := parseCommaSeparatedList(attendees)
			if len(list) == 0 {
				return fmt.Errorf("--attendees is required")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			eng, err := newEngine(ctx, cfg, nil, logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			slots, err := eng.scheduler.FindMeetingSlots(ctx, list, duration)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(slots) == 0 {
				policy := eng.scheduler.Policy()
				fmt.Fprintf(out, "No common %d-minute slot found for %s in the next %d days.\n",
					duration, strings.Join(list, ", "), policy.SearchHorizonDays)
				return nil
			}
			shown := cfg.ShownSlots
			if all {
				shown = len(slots)
			}
			fmt.Fprint(out, calendar_tools.FormatSlots(slots, list, duration, shown, eng.scheduler.Policy().Location))
			return nil
		},
	}

	cmd.Flags().StringVar(&attendees, "attendees", "", "Comma-separated attendee emails")
	cmd.Flags().IntVar(&duration, "duration", 30, "Meeting length in minutes")
	cmd.Flags().BoolVar(&all, "all", false, "Print every candidate instead of the configured number")
	return cmd
}
