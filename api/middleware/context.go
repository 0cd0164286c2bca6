package middleware

import (
	"context"

	"github.com/angelmondragon/autoshop-backend/pkg/auth"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the caller set by Auth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(auth.Principal)
	return principal, ok
}

// UserIDFromContext is empty for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return principal.UserID.String()
	}
	return ""
}
