package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragline/internal/adapters/driving/scheduler"
	"github.com/custodia-labs/ragline/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

var (
	watchSchedule string
	watchDebounce time.Duration
	watchInitial  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory indexed",
	Long: `Watch a directory and index files as they are created or written.
Hidden files and directories are ignored.

With --schedule (or [watch] schedule) the whole directory is also
re-ingested on a cron schedule, for example "0 3 * * *" or "@hourly".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule for a full re-ingest (default from [watch] schedule)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is indexed")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "index the directory once before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withServices(cmd, func(ctx context.Context, c *app.Container, svc *app.Services) error {
		cfg := c.Config()
		dir := cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return domain.NewConfigurationError("watch.dir", "pass a directory or set [watch] dir")
		}
		schedule := watchSchedule
		if schedule == "" {
			schedule = cfg.Watch.Schedule
		}

		if watchInitial {
			report, err := svc.Ingest.IngestPath(ctx, dir)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			cmd.Printf("Indexed %d passages; watching %s\n", report.Indexed, dir)
		}

		g, gctx := errgroup.WithContext(ctx)
		w := watch.New(dir, svc.Ingest,
			watch.WithDebounce(watchDebounce),
			watch.WithOnIngest(func(path string, indexed int, err error) {
				if err != nil {
					cmd.PrintErrf("FAIL %s: %v\n", path, err)
					return
				}
				cmd.Printf("ok   %s (%d passages)\n", path, indexed)
			}))
		g.Go(func() error { return w.Run(gctx) })
		if schedule != "" {
			startSchedule(gctx, g, dir, schedule, svc)
		}
		return g.Wait()
	})
}

// startSchedule re-ingests dir on the cron schedule until ctx is done.
func startSchedule(ctx context.Context, g *errgroup.Group, dir, schedule string, svc *app.Services) {
	g.Go(func() error {
		s := scheduler.New()
		if err := s.AddJob(scheduler.ReindexJob{Dir: dir, Ingest: svc.Ingest}, schedule); err != nil {
			return err
		}
		s.Start(ctx)
		<-ctx.Done()
		s.Stop()
		return nil
	})
}
