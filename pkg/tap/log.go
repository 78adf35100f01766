package tap

import (
	"context"
	"log/slog"
)

// Log records v at debug level under the message label and returns v.
// A nil logger means slog.Default().
func Log[T any](ctx context.Context, logger *slog.Logger, v T, label string) T {
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, label, slog.Any("value", v))
	return v
}
