package commands

import (
	"context"
	"log/slog"

	"github.com/rideinsights-labs/rideinsights/internal/cli/config"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

type ctxKey struct{}

// WithCommandContext attaches the command dependencies to a context.
func WithCommandContext(ctx context.Context, cmdCtx *CommandContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, cmdCtx)
}

// FromCommand retrieves the command dependencies set up by the root command.
// Commands invoked outside the root (tests, mostly) get defaults.
func FromCommand(cmd *cobra.Command) *CommandContext {
	if cmdCtx, ok := cmd.Context().Value(ctxKey{}).(*CommandContext); ok {
		return cmdCtx
	}
	return &CommandContext{
		Cfg: &config.Config{
			SourcePath:      config.DefaultSource,
			Sheet:           config.DefaultSheet,
			DatabasePath:    config.DefaultDatabase,
			PaymentFallback: config.DefaultPayment,
		},
		Logger: slog.New(slog.DiscardHandler),
	}
}
