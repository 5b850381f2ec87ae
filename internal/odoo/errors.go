package odoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"
)

// ErrNotAuthenticated is returned by model calls made before Authenticate.
var ErrNotAuthenticated = errors.New("odoo: not authenticated")

// RPCError is an error reported by the server inside a JSON-RPC response.
type RPCError struct {
	Model   string
	Method  string
	Code    int
	Message string // Top-level message, usually "Odoo Server Error"
	Name    string // Exception class, e.g. odoo.exceptions.AccessError
	Detail  string // Exception message
}

func (e *RPCError) Error() string {
	target := e.Method
	if e.Model != "" {
		target = e.Model + "." + e.Method
	}
	if e.Name == "" {
		return fmt.Sprintf("odoo %s: %s", target, e.Message)
	}
	return fmt.Sprintf("odoo %s: %s: %s", target, e.Name, e.Detail)
}

// AuthError means the server rejected the credentials.
type AuthError struct {
	DB   string
	User string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("odoo: authentication failed for %s on %s", e.User, e.DB)
}

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("odoo: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("odoo: http status %d: %s", e.StatusCode, e.Body)
}

// TimeoutError means a single request exceeded its deadline.
type TimeoutError struct {
	Model   string
	Method  string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("odoo %s.%s: request timeout after %s", e.Model, e.Method, e.Timeout)
	}
	return fmt.Sprintf("odoo %s.%s: request timeout", e.Model, e.Method)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsRetryable reports whether a failed call may succeed when repeated:
// timeouts, transport failures and 5xx responses. Server-side exceptions
// such as access or validation errors are not retryable, nor is a
// cancelled context.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
