/*
google implements an API client for the Google Gemini REST API, used both
for the chat tool loop and for structured extraction.
https://ai.google.dev/gemini-api/docs
*/
package google

import (
	// Packages
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	endPoint     = "https://generativelanguage.googleapis.com/v1beta"
	defaultName  = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new Google Gemini API client with the given API key. Options
// are applied after the defaults, so the endpoint can be overridden.
func New(apiKey string, opts ...client.ClientOpt) (*Client, error) {
	opts = append([]client.ClientOpt{
		client.OptEndpoint(endPoint),
		client.OptHeader("x-goog-api-key", apiKey),
	}, opts...)
	if c, err := client.New(opts...); err != nil {
		return nil, err
	} else {
		return &Client{c}, nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the provider name
func (*Client) Name() string {
	return defaultName
}
