package common

import (
	"context"

	"teamtask/entity"
)

type contextKey string

const (
	ContextUserIDKey contextKey = "userID"
	contextActorKey  contextKey = "actor"
)

func WithActor(ctx context.Context, a entity.Actor) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, a.ID)
	return context.WithValue(ctx, contextActorKey, a)
}

func ActorFrom(ctx context.Context) (entity.Actor, bool) {
	a, ok := ctx.Value(contextActorKey).(entity.Actor)
	return a, ok
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextUserIDKey).(int64)
	return id, ok
}
