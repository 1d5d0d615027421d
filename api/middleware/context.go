package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
)

type actorKey struct{}

// WithActor stores the authenticated staff member on ctx.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the zero Actor when the request carried no usable identity.
func ActorFromContext(ctx context.Context) auth.Actor {
	if ctx == nil {
		return auth.Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(auth.Actor)
	return actor
}

// UserIDFromContext is empty for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if id := ActorFromContext(ctx).UserID; id != uuid.Nil {
		return id.String()
	}
	return ""
}
