package httphandler

import (
	"errors"
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

// Path: /admin/user
func UserListHandler(users schema.UserStore, verifier *auth.Verifier) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/admin/user", adminOnly(users, verifier, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				var req schema.ListUserRequest
				if err := httprequest.Query(r.URL.Query(), &req); err != nil {
					_ = httpresponse.Error(w, err)
					return
				}
				resp, err := users.ListUsers(r.Context(), req)
				if err != nil {
					_ = httpresponse.Error(w, httpErr(err))
					return
				}
				_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), resp)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}), types.Ptr(openapi.PathItem{
			Get: &openapi.Operation{
				Description: "List users, oldest first",
			},
		})
}

// Path: /admin/user/{id}
func UserHandler(users schema.UserStore, verifier *auth.Verifier) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/admin/user/{id}", adminOnly(users, verifier, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				resp, err := users.GetUser(r.Context(), r.PathValue("id"))
				if err != nil {
					_ = httpresponse.Error(w, httpErr(err))
					return
				}
				_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), resp)
			case http.MethodPatch:
				var req schema.UpdateUserRequest
				if err := httprequest.Read(r, &req); err != nil {
					_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With(err))
					return
				}
				if err := validate.Struct(req); err != nil {
					_ = httpresponse.Error(w, validationErr(err))
					return
				}
				resp, err := users.UpdateUser(r.Context(), r.PathValue("id"), req)
				if err != nil {
					_ = httpresponse.Error(w, httpErr(err))
					return
				}
				_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), resp)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}), types.Ptr(openapi.PathItem{
			Get: &openapi.Operation{
				Description: "Get a user",
			},
			Patch: &openapi.Operation{
				Description: "Change the tier, credits or administrator flag of a user",
			},
		})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isNotFound(err error) bool {
	return errors.Is(err, debtstack.ErrNotFound)
}
