package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Error is a failed backend call. The message is shown to the end user, so
// it is phrased as advice rather than diagnostics.
type Error struct {
	Status  int    // HTTP status, or zero for transport failures
	Detail  string // Backend-provided detail, if any
	Timeout bool   // The call exceeded its deadline
	Err     error  // Underlying transport error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	msgUnauthorized = "Invalid API key. Please regenerate your API key from the dashboard."
	msgPayment      = "Insufficient credits. Please add credits or upgrade your plan."
	msgRateLimit    = "Rate limit exceeded. Please wait a moment and try again."
	msgTimeout      = "Request timed out. The backend took too long to respond."
	msgTransport    = "Failed to call DebtStack API"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return msgTimeout
	case e.Status == http.StatusUnauthorized:
		return msgUnauthorized
	case e.Status == http.StatusPaymentRequired:
		return msgPayment
	case e.Status == http.StatusTooManyRequests:
		return msgRateLimit
	case e.Status != 0:
		detail := e.Detail
		if detail == "" {
			detail = http.StatusText(e.Status)
		}
		return fmt.Sprintf("API error (%d): %s", e.Status, detail)
	case e.Err != nil:
		return msgTransport + ": " + e.Err.Error()
	default:
		return msgTransport
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newError classifies an error returned by the HTTP client
func newError(ctx context.Context, err error) *Error {
	var status httpresponse.Err
	var response httpresponse.ErrResponse
	switch {
	case errors.As(err, &status):
		return &Error{Status: int(status), Detail: detail(err.Error()), Err: err}
	case errors.As(err, &response):
		return &Error{Status: response.Code, Detail: responseDetail(response), Err: err}
	case isTimeout(ctx, err):
		return &Error{Timeout: true, Err: err}
	default:
		return &Error{Err: err}
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// responseDetail returns the message of a structured error body, which is
// the detail when it is text and the reason otherwise
func responseDetail(response httpresponse.ErrResponse) string {
	switch v := response.Detail.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return response.Reason
}

// detail extracts a message from a JSON error body embedded in an error
// string, looking at the "detail", "message" and "error" fields in turn
func detail(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return ""
}
