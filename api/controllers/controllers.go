// Package controllers adapts HTTP requests to the domain services.
package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoshop-backend/api/middleware"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

func principalFrom(r *http.Request) (auth.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return principal, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeDependency, name+" unavailable")
}
