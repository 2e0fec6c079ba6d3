package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rideinsights-labs/rideinsights/internal/loader"
	"github.com/rideinsights-labs/rideinsights/internal/store"
)

// Config holds everything one pipeline run needs.
type Config struct {
	// SourcePath is the xlsx workbook holding the reporting period.
	SourcePath string

	// Sheet is the worksheet to load, e.g. "July".
	Sheet string

	// DatabasePath is the SQLite database to rebuild.
	DatabasePath string

	// PaymentFallback for successful rows missing a payment method.
	// Empty means DefaultPaymentFallback.
	PaymentFallback string

	// MaxRows caps accepted input size. Zero means loader.DefaultMaxRows.
	MaxRows int

	// Optimize runs VACUUM and ANALYZE after a successful rebuild.
	Optimize bool

	// Logger is the structured logger. Nil discards.
	Logger *slog.Logger
}

// Summary reports one completed run.
type Summary struct {
	RunID       string
	InputRows   int
	CleanedRows int
	DroppedRows int
	Elapsed     time.Duration
}

// Run executes the full batch: load, clean, derive, rebuild. The source is
// read in full before the store is touched, so a LoadError aborts with
// nothing written. The rebuild itself is one transaction; on persistence
// failure the prior store state survives and the run is recorded as failed.
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	started := time.Now()

	raw, err := loader.Load(cfg.SourcePath, loader.Options{
		Sheet:   cfg.Sheet,
		MaxRows: cfg.MaxRows,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	cleaned := Clean(raw, CleanOptions{
		PaymentFallback: cfg.PaymentFallback,
		Logger:          logger,
	})
	derived := DeriveAll(cleaned.Bookings)

	st := store.New(logger)
	if err := st.Open(cfg.DatabasePath); err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		return nil, err
	}

	run, err := st.CreateRun(ctx, cfg.SourcePath, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	if err := st.Rebuild(ctx, derived); err != nil {
		if cErr := st.CompleteRun(ctx, run.ID, store.RunStatusFailed,
			len(raw), len(derived), cleaned.Dropped, err.Error()); cErr != nil {
			logger.Error("recording failed run", slog.String("run_id", run.ID), slog.Any("error", cErr))
		}
		return nil, err
	}

	if err := st.CompleteRun(ctx, run.ID, store.RunStatusCompleted,
		len(raw), len(derived), cleaned.Dropped, ""); err != nil {
		return nil, err
	}

	if cfg.Optimize {
		if err := st.Optimize(ctx); err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		RunID:       run.ID,
		InputRows:   len(raw),
		CleanedRows: len(derived),
		DroppedRows: cleaned.Dropped,
		Elapsed:     time.Since(started),
	}

	logger.Info("pipeline run completed",
		slog.String("run_id", summary.RunID),
		slog.Int("input_rows", summary.InputRows),
		slog.Int("cleaned_rows", summary.CleanedRows),
		slog.Int("dropped_rows", summary.DroppedRows),
		slog.Duration("elapsed", summary.Elapsed))

	if summary.CleanedRows+summary.DroppedRows != summary.InputRows {
		return nil, fmt.Errorf("row accounting mismatch: %d cleaned + %d dropped != %d input",
			summary.CleanedRows, summary.DroppedRows, summary.InputRows)
	}

	return summary, nil
}
