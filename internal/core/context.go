package core

import (
	"context"
	"strings"
)

type contextKey string

const ctxKeyActor contextKey = "actor"

// ContextWithActor records who is operating, for attribution of readings.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, strings.TrimSpace(actor))
}

// ActorFromContext returns the actor, or DefaultActor when none was set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok && v != "" {
		return v
	}
	return DefaultActor
}
