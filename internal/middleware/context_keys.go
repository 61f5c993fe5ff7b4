package middleware

import (
	"context"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
)

// actorKey is the key used to store the acting user in the request context.
const actorKey = contextKey("actor")

// WithActor returns a context carrying the acting user. The auth
// middleware sets it from the token claims; handlers pass it down
// explicitly rather than relying on ambient state.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromCtx retrieves the acting user from a standard context.
// It returns the actor and a boolean indicating if it was found.
func ActorFromCtx(ctx context.Context) (domain.Actor, bool) {
	if ctx == nil {
		return domain.Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
