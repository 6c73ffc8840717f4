// Package gateway is a downstream HTTP service that trusts the session
// service's access tokens. It authenticates requests through a
// verifier.Verifier, so repeated requests with the same token are answered
// from the claims cache instead of a gRPC round trip.
package gateway

import (
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/httpauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(v httpauth.Validator, logger logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpauth.Authenticate(v, logger))

	r.Get("/whoami", whoami)
	r.With(httpauth.RequireRole(common.RoleAdmin)).Get("/admin/whoami", whoami)

	return r
}

func whoami(w http.ResponseWriter, r *http.Request) {
	id, ok := httpauth.IdentityFromContext(r.Context())
	if !ok {
		httpauth.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	httpauth.WriteJSON(w, http.StatusOK, id)
}
