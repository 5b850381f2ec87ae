// Package odoo is a minimal JSON-RPC client for the Odoo external API.
//
// Only the calls needed for reading records are implemented: authenticate
// on the common service, and search_count, search_read and read through
// execute_kw on the object service. Results are decoded straight into the
// caller's structs; see types.go for the field types that understand the
// server's encoding.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/crmexport/internal/logging"
)

// DefaultTimeout bounds a single request unless WithTimeout overrides it.
const DefaultTimeout = 120 * time.Second

// maxErrorBody limits how much of a non-2xx body is kept for the error.
const maxErrorBody = 2048

// Context is the request context sent with model calls (lang, active_test).
type Context map[string]any

// Query describes a search_read call.
type Query struct {
	Domain  []any
	Fields  []string
	Offset  int
	Limit   int
	Order   string
	Context Context
}

// CallHook observes every model call after it completes.
type CallHook func(model, method string, err error)

// Client talks to one database on one server. It is safe for concurrent use
// once Authenticate has returned.
type Client struct {
	baseURL    string
	db         string
	user       string
	password   string
	httpClient *http.Client
	hook       CallHook

	uid    int64
	nextID atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is used as the
// per-request deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithCallHook registers a hook invoked after every model call.
func WithCallHook(hook CallHook) Option {
	return func(c *Client) {
		c.hook = hook
	}
}

// NewClient creates a client for baseURL (e.g. http://localhost:8069).
func NewClient(baseURL, db, user, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		db:         db,
		user:       user,
		password:   password,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UID returns the authenticated user id, or 0 before Authenticate.
func (c *Client) UID() int64 {
	return c.uid
}

// Authenticate logs in and stores the user id for later calls.
// A rejected login returns *AuthError.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	var raw json.RawMessage
	args := []any{c.db, c.user, c.password, map[string]any{}}
	if err := c.call(ctx, "common", "authenticate", "", "authenticate", args, &raw); err != nil {
		return 0, err
	}

	var uid int64
	if isEmpty(raw) || json.Unmarshal(raw, &uid) != nil || uid == 0 {
		return 0, &AuthError{DB: c.db, User: c.user}
	}
	c.uid = uid
	return uid, nil
}

// ExecuteKw calls method on model and decodes the result into out.
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if c.uid == 0 {
		return ErrNotAuthenticated
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	params := []any{c.db, c.uid, c.password, model, method, args, kwargs}
	err := c.call(ctx, "object", "execute_kw", model, method, params, out)
	if c.hook != nil {
		c.hook(model, method, err)
	}
	return err
}

// SearchCount returns the number of records matching domain.
func (c *Client) SearchCount(ctx context.Context, model string, domain []any, rctx Context) (int, error) {
	var n int
	err := c.ExecuteKw(ctx, model, "search_count", []any{nonNil(domain)}, withContext(nil, rctx), &n)
	return n, err
}

// SearchRead returns one page of records matching q, decoded into out
// (usually a pointer to a slice).
func (c *Client) SearchRead(ctx context.Context, model string, q Query, out any) error {
	kwargs := map[string]any{"fields": q.Fields}
	if q.Offset > 0 {
		kwargs["offset"] = q.Offset
	}
	if q.Limit > 0 {
		kwargs["limit"] = q.Limit
	}
	if q.Order != "" {
		kwargs["order"] = q.Order
	}
	return c.ExecuteKw(ctx, model, "search_read", []any{nonNil(q.Domain)}, withContext(kwargs, q.Context), out)
}

// Read returns the records with the given ids, decoded into out.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string, rctx Context, out any) error {
	kwargs := map[string]any{"fields": fields}
	return c.ExecuteKw(ctx, model, "read", []any{ids}, withContext(kwargs, rctx), out)
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

// call performs one JSON-RPC round trip. model and method only label errors.
func (c *Client) call(ctx context.Context, service, rpcMethod, model, method string, args []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: rpcMethod, Args: args},
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, model, method, err)
	}
	defer resp.Body.Close()

	logging.FromContext(ctx).Debug("rpc call",
		"model", model,
		"method", method,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		if tErr := c.transportError(ctx, model, method, err); isTimeout(tErr) {
			return tErr
		}
		return fmt.Errorf("decode response for %s.%s: %w", model, method, err)
	}
	if rpcResp.Error != nil {
		return &RPCError{
			Model:   model,
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Name:    rpcResp.Error.Data.Name,
			Detail:  rpcResp.Error.Data.Message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode result for %s.%s: %w", model, method, err)
	}
	return nil
}

// transportError converts deadline failures into *TimeoutError. A cancelled
// parent context is returned as is.
func (c *Client) transportError(ctx context.Context, model, method string, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Model: model, Method: method, Timeout: c.httpClient.Timeout, Err: err}
	}
	if model == "" {
		return fmt.Errorf("odoo %s: %w", method, err)
	}
	return fmt.Errorf("odoo %s.%s: %w", model, method, err)
}

func isTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

func withContext(kwargs map[string]any, rctx Context) map[string]any {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	if len(rctx) > 0 {
		kwargs["context"] = map[string]any(rctx)
	}
	return kwargs
}

func nonNil(domain []any) []any {
	if domain == nil {
		return []any{}
	}
	return domain
}
