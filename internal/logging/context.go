package logging

import (
	"context"
	"log/slog"

	"osmworld/internal/services"
)

// ContextFields extracts the run, stage, region, and tile tags from ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if v, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, v))
	}
	if v, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldStage, v))
	}
	if v, ok := services.RegionFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRegion, v))
	}
	if v, ok := services.TileFromContext(ctx); ok {
		attrs = append(attrs, String(FieldTile, v))
	}
	return attrs
}

// WithContext returns logger enriched with the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

// WithStage tags ctx with stage and returns a logger carrying every context
// field.
func WithStage(ctx context.Context, logger *slog.Logger, stage string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, stage)
	return ctx, WithContext(ctx, logger)
}
