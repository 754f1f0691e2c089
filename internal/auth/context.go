package auth

import (
	"context"

	"github.com/farmacase/farmacase/internal/model"
)

type contextKey struct{}

// Actor is the authenticated identity behind a request.
type Actor struct {
	IdentityID   int64
	Email        string
	DisplayName  string
	Capabilities model.Capabilities
	SessionToken string
}

// ActorFromIdentity builds an Actor carrying the identity's capability flags.
func ActorFromIdentity(i *model.Identity) Actor {
	return Actor{
		IdentityID:   i.ID,
		Email:        i.Email,
		DisplayName:  i.DisplayName,
		Capabilities: i.Capabilities(),
	}
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

// IdentityID returns the acting identity, or 0 when the context is anonymous.
func IdentityID(ctx context.Context) int64 {
	a, ok := ActorFrom(ctx)
	if !ok {
		return 0
	}
	return a.IdentityID
}
