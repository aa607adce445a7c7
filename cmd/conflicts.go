package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/logging"
	"github.com/teemow/meetwise/internal/scheduling"
	"github.com/teemow/meetwise/internal/tools/calendar_tools"
)

func newConflictsCmd() *cobra.Command {
	var (
		owners  string
		horizon int
		watch   string
	)

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Report overlapping events between people",
		Long: `Scan the shared calendars of the given owners and report every pair of
events, owned by different people, that overlap in time.

With --watch the scan repeats on a cron schedule and only conflicts that were
not present in the previous run are reported.

Examples:
  meetwise conflicts --owners alice@example.com,bob@example.com
  meetwise conflicts --owners alice@example.com,bob@example.com --watch "*/15 * * * *"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := parseCommaSeparatedList(owners)
			if len(list) == 0 {
				return fmt.Errorf("--owners is required")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			eng, err := newEngine(ctx, cfg, nil, logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			loc := eng.scheduler.Policy().Location
			scan := func(ctx context.Context) (*scheduling.ConflictReport, error) {
				return eng.scheduler.CheckConflicts(ctx, list, horizon)
			}

			if watch == "" {
				report, err := scan(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), calendar_tools.FormatConflictReport(report, loc))
				return nil
			}

			w := newConflictWatcher(scan, cmd.OutOrStdout(), loc, logger)
			return w.runSchedule(ctx, watch)
		},
	}

	cmd.Flags().StringVar(&owners, "owners", "", "Comma-separated owner emails")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Days to scan (defaults to the configured conflict horizon)")
	cmd.Flags().StringVar(&watch, "watch", "", "Cron schedule for repeated scans, e.g. \"*/15 * * * *\"")
	return cmd
}

// conflictWatcher repeats a conflict scan and reports pairs that were not
// present in the previous successful scan.
type conflictWatcher struct {
	scan   func(ctx context.Context) (*scheduling.ConflictReport, error)
	out    io.Writer
	loc    *time.Location
	logger *slog.Logger

	// known holds the pair identities of the last successful scan. nil until
	// the first scan finishes.
	known map[string]struct{}
}

func newConflictWatcher(scan func(ctx context.Context) (*scheduling.ConflictReport, error), out io.Writer, loc *time.Location, logger *slog.Logger) *conflictWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &conflictWatcher{
		scan:   scan,
		out:    out,
		loc:    loc,
		logger: logging.WithOperation(logger, "conflicts.watch"),
	}
}

// check runs one scan and returns the pairs that are new since the previous
// one. The first scan prints the full report and returns every pair.
func (w *conflictWatcher) check(ctx context.Context) ([]conflict.Pair, error) {
	runID := uuid.NewString()
	logger := w.logger.With("run_id", runID)

	report, err := w.scan(ctx)
	if err != nil {
		logger.Error("conflict scan failed", logging.Err(err))
		return nil, err
	}

	first := w.known == nil
	current := make(map[string]struct{}, len(report.Pairs))
	var fresh []conflict.Pair
	for _, p := range report.Pairs {
		id := p.Identity()
		current[id] = struct{}{}
		if _, ok := w.known[id]; !ok {
			fresh = append(fresh, p)
		}
	}
	w.known = current

	logger.Info("conflict scan finished",
		slog.Int("events", report.Events),
		logging.Count(len(report.Pairs)),
		slog.Int("new", len(fresh)))

	if first {
		fmt.Fprintln(w.out, calendar_tools.FormatConflictReport(report, w.loc))
		return fresh, nil
	}
	for _, p := range fresh {
		overlap := p.Overlap().In(w.loc)
		fmt.Fprintf(w.out, "New conflict: %s: '%s' overlaps %s: '%s' (%s to %s)\n",
			p.First.Owner, p.First.Summary, p.Second.Owner, p.Second.Summary,
			overlap.Start.Format("2006-01-02 15:04"), overlap.End.Format("15:04"))
	}
	return fresh, nil
}

// runSchedule runs check on the cron schedule until ctx is cancelled. The first scan runs
// immediately.
func (w *conflictWatcher) runSchedule(ctx context.Context, spec string) error {
	adapter := logging.NewCronAdapter(w.logger)
	c := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.SkipIfStillRunning(adapter)),
	)
	if _, err := c.AddFunc(spec, func() { _, _ = w.check(ctx) }); err != nil {
		return fmt.Errorf("invalid --watch schedule %q: %w", spec, err)
	}

	_, _ = w.check(ctx)

	c.Start()
	w.logger.Info("watching for conflicts", "schedule", spec)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
