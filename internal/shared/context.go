package shared

import "context"

// Identity is the verified principal attached to a request by the
// authentication gate. Rol is the role name captured when the token was issued.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

// ActorID returns the identity id or zero when the request is anonymous.
func ActorID(ctx context.Context) int64 {
	if id := IdentityFromContext(ctx); id != nil {
		return id.ID
	}
	return 0
}
