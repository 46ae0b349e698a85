package httphandler

import (
	"errors"
	"fmt"
	"net/http"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	auth "github.com/debtstack-ai/debtstack/pkg/auth"
	chat "github.com/debtstack-ai/debtstack/pkg/chat"
	metrics "github.com/debtstack-ai/debtstack/pkg/metrics"
	schema "github.com/debtstack-ai/debtstack/pkg/schema"
	validator "github.com/go-playground/validator/v10"
	server "github.com/mutablelogic/go-server"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Router interface {
	RegisterFunc(path string, handler http.HandlerFunc, middleware bool, spec *openapi.PathItem) error
}

// Service holds the components behind the handlers. The chat manager is
// required. Account and admin endpoints are registered only with a user
// store and a session verifier, and the metrics endpoint only with metrics.
type Service struct {
	Manager  *chat.Manager
	Limiter  *Limiter
	Users    schema.UserStore
	Verifier *auth.Verifier
	Metrics  *metrics.Metrics
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var validate = validator.New()

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func RegisterHandlers(service Service, router server.HTTPRouter, middleware bool) error {
	var result error
	if service.Manager == nil {
		return debtstack.ErrBadParameter.With("chat manager is required")
	}

	// Convenience function to register a handler and accumulate any errors
	register := func(path string, handler http.HandlerFunc, spec *openapi.PathItem) {
		result = errors.Join(result, router.(Router).RegisterFunc(path, handler, middleware, spec))
	}

	// Chat and tool catalog
	register(ChatHandler(service.Manager, service.Limiter))
	register(ToolListHandler(service.Manager))
	register(ToolGetHandler(service.Manager))

	// Account and admin
	if service.Users != nil && service.Verifier != nil {
		register(AccountHandler(service.Users, service.Verifier))
		register(UserListHandler(service.Users, service.Verifier))
		register(UserHandler(service.Users, service.Verifier))
	}

	// Metrics
	if service.Metrics != nil {
		register(MetricsHandler(service.Metrics))
	}

	// Return any errors
	return result
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// httpErr converts a debtstack.Err to an httpresponse.Err, preserving the
// original error message. Unknown error codes map to 500.
func httpErr(err error) error {
	var code debtstack.Err
	if !errors.As(err, &code) {
		return httpresponse.ErrInternalError.With(err)
	}
	switch code {
	case debtstack.ErrNotFound:
		return httpresponse.ErrNotFound.With(err)
	case debtstack.ErrBadParameter:
		return httpresponse.ErrBadRequest.With(err)
	case debtstack.ErrConflict:
		return httpresponse.ErrConflict.With(err)
	case debtstack.ErrNotImplemented:
		return httpresponse.ErrNotImplemented.With(err)
	case debtstack.ErrUnauthorized:
		return httpresponse.Err(http.StatusUnauthorized).With(err)
	case debtstack.ErrForbidden:
		return httpresponse.Err(http.StatusForbidden).With(err)
	case debtstack.ErrTooManyRequests:
		return httpresponse.Err(http.StatusTooManyRequests).With(err)
	default:
		return httpresponse.ErrInternalError.With(err)
	}
}

// validationErr converts validator errors on a request body to a 400
func validationErr(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return httpresponse.ErrBadRequest.With(fmt.Sprintf("%s failed on %q", fields[0].Field(), fields[0].Tag()))
	}
	return httpresponse.ErrBadRequest.With(err)
}
