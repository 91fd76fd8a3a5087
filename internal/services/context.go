package services

import "context"

type contextKey string

const (
	stageKey contextKey = "stage"
	assetKey contextKey = "asset"
	runIDKey contextKey = "run_id"
)

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

// WithAsset annotates context with the asset path being processed.
func WithAsset(ctx context.Context, asset string) context.Context {
	if asset == "" {
		return ctx
	}
	return context.WithValue(ctx, assetKey, asset)
}

// AssetFromContext returns the asset path if present.
func AssetFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(assetKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with a correlation identifier for one run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(runIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
