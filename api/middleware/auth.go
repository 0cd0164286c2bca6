package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	pkgAuth "github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

// Auth requires "Authorization: Bearer <jwt>" and stores the verified
// principal on the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="autoshop"`)
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="autoshop", error="invalid_token"`)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}

			principal := claims.Principal()
			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				entityID := ""
				if principal.EntityID != nil {
					entityID = principal.EntityID.String()
				}
				ctx = logg.WithActor(ctx, principal.UserID.String(), string(principal.Role), entityID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRoles rejects callers whose role is not in allowed. It must run
// after Auth.
func RequireRoles(logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			switch {
			case !ok:
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			case !principal.Is(allowed...):
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role "+string(principal.Role)+" may not access this resource"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
