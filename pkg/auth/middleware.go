package auth

import (
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Middleware rejects requests without a valid session token with 401, and
// puts the claims on the context of those with one
func (v *Verifier) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := v.VerifyRequest(r)
		if err != nil {
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusUnauthorized).With(err))
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}
