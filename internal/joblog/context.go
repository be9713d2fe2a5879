package joblog

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	stepIDKey
)

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}

func WithStepID(ctx context.Context, stepID int64) context.Context {
	return context.WithValue(ctx, stepIDKey, stepID)
}

func StepIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(stepIDKey).(int64)
	return id, ok
}
