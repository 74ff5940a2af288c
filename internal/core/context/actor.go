package context

import (
	"context"
)

// Actor identifies who is performing an operation.
// Lifecycle transitions record the actor in the audit trail.
type Actor struct {
	ID   string
	Name string
}

type actorContextKey struct{}

// WithActor adds the acting user to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns the acting user from context, or nil.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorID returns the acting user's id, or "system" when absent.
// Background workers transition documents without a request actor.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.ID != "" {
		return a.ID
	}
	return "system"
}
