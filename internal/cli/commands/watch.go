package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rideinsights-labs/rideinsights/internal/pipeline"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
	Optimize bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline whenever the workbook changes",
		Long: `Watch the source workbook and re-run the ingestion pipeline on every
change. An initial run happens immediately on startup. Stop with Ctrl-C.`,
		Example: `  rideinsights watch
  rideinsights watch --debounce 5s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 2*time.Second, "Minimum interval between pipeline runs")
	cmd.Flags().BoolVar(&opts.Optimize, "optimize", false, "Run VACUUM and ANALYZE after each rebuild")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx := FromCommand(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	if _, err := os.Stat(cfg.SourcePath); err != nil {
		return fmt.Errorf("source workbook not found at %s", cfg.SourcePath)
	}
	if err := ensureParentDir(cfg.DatabasePath); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := pipeline.Config{
		SourcePath:      cfg.SourcePath,
		Sheet:           cfg.Sheet,
		DatabasePath:    cfg.DatabasePath,
		PaymentFallback: cfg.PaymentFallback,
		MaxRows:         cfg.MaxRows,
		Optimize:        opts.Optimize,
		Logger:          logger,
	}

	runOnce := func() {
		summary, err := pipeline.Run(ctx, runCfg)
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				return
			}
			logger.Error("pipeline run failed", "error", err)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d rows in, %d persisted, %d dropped (%s)\n",
			summary.RunID, summary.InputRows, summary.CleanedRows, summary.DroppedRows,
			summary.Elapsed.Round(summaryPrecision))
	}

	// Editors replace files on save, so watch the directory and filter events
	// down to the workbook itself.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	sourceAbs, err := filepath.Abs(cfg.SourcePath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(sourceAbs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(sourceAbs), err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (sheet %q), Ctrl-C to stop\n", cfg.SourcePath, cfg.Sheet)
	runOnce()

	var lastRun time.Time
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	trigger := make(chan struct{}, 1)

	schedule := func() {
		if wait := opts.Debounce - time.Since(lastRun); wait > 0 {
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(wait, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
			return
		}
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stopping watch")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(ev.Name)
			if err != nil || evAbs != sourceAbs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("workbook changed", "event", ev.Op.String())
			schedule()

		case <-trigger:
			lastRun = time.Now()
			runOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}
