package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

// AuthLogin exchanges email and password for a bearer token. The route is
// throttled before it reaches this handler.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth service"))
			return
		}

		var creds auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &creds); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session, err := svc.Login(ctx, creds)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		if logg != nil && session.User != nil {
			logg.Info(logg.WithActor(ctx, session.User.ID.String(), string(session.User.Role), ""), "auth.login")
		}
		responses.WriteSuccess(w, session)
	}
}
