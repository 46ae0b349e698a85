/*
backend implements an API client for the DebtStack data API, and exposes
each endpoint as a tool which the chat model can call.
*/
package backend

import (
	"context"
	"net/http"
	"net/url"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
}

// Request is an outbound call, built from tool arguments
type Request struct {
	Method string
	Path   []string
	Query  url.Values
	Body   any
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultEndpoint  = "https://api.debtstack.ai"
	credentialHeader = "X-API-Key"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a client for the backend at the given endpoint
func New(endpoint string, opts ...client.ClientOpt) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c, err := client.New(append([]client.ClientOpt{client.OptEndpoint(endpoint)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{c}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Call sends a request with the caller's credential and returns the decoded
// JSON response. Errors are returned as *Error.
func (c *Client) Call(ctx context.Context, credential string, req Request) (any, error) {
	if credential == "" {
		return nil, &Error{Status: http.StatusUnauthorized}
	}

	// Build payload
	var payload client.Payload
	switch req.Method {
	case http.MethodGet, "":
		payload = client.MethodGet
	default:
		p, err := client.NewJSONRequestEx(req.Method, req.Body, client.ContentTypeJson)
		if err != nil {
			return nil, debtstack.ErrBadParameter.With(err)
		}
		payload = p
	}

	// Request options
	path := make([]any, len(req.Path))
	for i, segment := range req.Path {
		path[i] = segment
	}
	opts := []client.RequestOpt{
		client.OptPath(path...),
		client.OptReqHeader(credentialHeader, credential),
	}
	if len(req.Query) > 0 {
		opts = append(opts, client.OptQuery(req.Query))
	}

	// Request -> Response
	var response any
	if err := c.DoWithContext(ctx, payload, &response, opts...); err != nil {
		return nil, newError(ctx, err)
	}

	// Return success
	return response, nil
}
