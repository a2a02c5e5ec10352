package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	stageKey  contextKey = "stage"
	regionKey contextKey = "region"
	tileKey   contextKey = "tile"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRegion annotates context with the region boundary identifier.
func WithRegion(ctx context.Context, region string) context.Context {
	if region == "" {
		return ctx
	}
	return context.WithValue(ctx, regionKey, region)
}

// RegionFromContext returns the region identifier if present.
func RegionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(regionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTile annotates context with a tile name.
func WithTile(ctx context.Context, tile string) context.Context {
	if tile == "" {
		return ctx
	}
	return context.WithValue(ctx, tileKey, tile)
}

// TileFromContext returns the tile name if present.
func TileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(tileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
