package httphandler

import (
	"net/http"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	auth "github.com/debtstack-ai/debtstack/pkg/auth"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /account
// GET: Return the signed-in user, creating the row on first sign-in
func AccountHandler(users schema.UserStore, verifier *auth.Verifier) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/account", verifier.Middleware(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				claims, _ := auth.ClaimsFromContext(r.Context())
				user, err := users.EnsureUser(r.Context(), claims.Subject, claims.Email)
				if err != nil {
					_ = httpresponse.Error(w, httpErr(err))
					return
				}
				_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), user)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}), types.Ptr(openapi.PathItem{
			Get: &openapi.Operation{
				Description: "Get the signed-in user",
			},
		})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// adminOnly wraps a handler so that only signed-in administrators reach it
func adminOnly(users schema.UserStore, verifier *auth.Verifier, next http.HandlerFunc) http.HandlerFunc {
	return verifier.Middleware(func(w http.ResponseWriter, r *http.Request) {
		user, err := users.GetUser(r.Context(), auth.UserID(r.Context()))
		if err != nil && !isNotFound(err) {
			_ = httpresponse.Error(w, httpErr(err))
			return
		}
		if user == nil || !user.IsAdmin {
			_ = httpresponse.Error(w, httpErr(debtstack.ErrForbidden.With("administrator access is required")))
			return
		}
		next(w, r)
	})
}
