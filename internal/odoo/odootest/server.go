// Package odootest provides an in-process Odoo JSON-RPC endpoint backed by a
// fixed dataset. It understands authenticate, search_count, search_read and
// read, records every call, and can inject faults per call.
package odootest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Default credentials accepted by the server.
const (
	DefaultDB       = "odoo"
	DefaultUser     = "admin"
	DefaultPassword = "admin"
	DefaultUID      = 2
)

// Call is one request received by the server.
type Call struct {
	Service string
	Model   string
	Method  string
	Offset  int
	Limit   int
	IDs     []int64
	Fields  []string
	Context map[string]any
}

// Fault makes a call fail. A non-zero HTTPStatus answers with that status;
// otherwise the call returns a JSON-RPC error with Name and Message.
// Delay is applied before answering.
type Fault struct {
	HTTPStatus int
	Name       string
	Message    string
	Delay      time.Duration
}

// FaultFunc decides whether a call fails. attempt counts identical calls,
// starting at 1.
type FaultFunc func(c Call, attempt int) *Fault

// Server is a fake Odoo endpoint.
type Server struct {
	data     Dataset
	db       string
	user     string
	password string
	raw      bool
	fault    FaultFunc

	ts *httptest.Server

	mu       sync.Mutex
	calls    []Call
	attempts map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithFault installs a fault injector.
func WithFault(f FaultFunc) Option {
	return func(s *Server) { s.fault = f }
}

// WithRawTranslations makes read and search_read return translated labels
// as per-locale objects instead of resolving them through the context lang.
func WithRawTranslations() Option {
	return func(s *Server) { s.raw = true }
}

// WithCredentials overrides the accepted login.
func WithCredentials(db, user, password string) Option {
	return func(s *Server) {
		s.db, s.user, s.password = db, user, password
	}
}

// NewServer starts a server for data. It is closed when the test ends.
func NewServer(t testing.TB, data Dataset, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		data:     data,
		db:       DefaultDB,
		user:     DefaultUser,
		password: DefaultPassword,
		attempts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/jsonrpc", s.handleRPC)

	s.ts = httptest.NewServer(r)
	t.Cleanup(s.ts.Close)
	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return s.ts.URL
}

// Calls returns a copy of every call received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CountCalls returns how many calls were made to model.method.
func (s *Server) CountCalls(model, method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Model == model && c.Method == method {
			n++
		}
	}
	return n
}

// record stores c and returns how often an identical call was seen.
func (s *Server) record(c Call) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	key := fmt.Sprintf("%s|%s|%s|%d|%v", c.Service, c.Model, c.Method, c.Offset, c.IDs)
	s.attempts[key]++
	return s.attempts[key]
}

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Params struct {
		Service string            `json:"service"`
		Method  string            `json:"method"`
		Args    []json.RawMessage `json:"args"`
	} `json:"params"`
}

type kwargs struct {
	Fields  []string       `json:"fields"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	Order   string         `json:"order"`
	Context map[string]any `json:"context"`
}

// rpcFault is returned from handlers to produce a JSON-RPC error.
type rpcFault struct {
	name    string
	message string
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	call, kw, args, fault := s.parseCall(req)
	if fault != nil {
		writeError(w, req.ID, fault)
		return
	}

	attempt := s.record(call)
	if s.fault != nil {
		if f := s.fault(call, attempt); f != nil {
			if f.Delay > 0 {
				select {
				case <-time.After(f.Delay):
				case <-r.Context().Done():
					return
				}
			}
			if f.HTTPStatus != 0 {
				http.Error(w, http.StatusText(f.HTTPStatus), f.HTTPStatus)
				return
			}
			if f.Name != "" || f.Message != "" {
				writeError(w, req.ID, &rpcFault{name: f.Name, message: f.Message})
				return
			}
		}
	}

	result, rf := s.dispatch(call, kw, args)
	if rf != nil {
		writeError(w, req.ID, rf)
		return
	}
	writeResult(w, req.ID, result)
}

// parseCall decodes the envelope and checks credentials.
func (s *Server) parseCall(req rpcRequest) (Call, kwargs, []json.RawMessage, *rpcFault) {
	p := req.Params
	call := Call{Service: p.Service, Method: p.Method}

	switch {
	case p.Service == "common" && p.Method == "authenticate":
		return call, kwargs{}, p.Args, nil

	case p.Service == "object" && p.Method == "execute_kw":
		if len(p.Args) < 5 {
			return call, kwargs{}, nil, &rpcFault{"builtins.TypeError", "execute_kw() missing arguments"}
		}
		var db, password string
		var uid int64
		_ = json.Unmarshal(p.Args[0], &db)
		_ = json.Unmarshal(p.Args[1], &uid)
		_ = json.Unmarshal(p.Args[2], &password)
		if db != s.db || uid != DefaultUID || password != s.password {
			return call, kwargs{}, nil, &rpcFault{"odoo.exceptions.AccessDenied", "Access Denied"}
		}
		_ = json.Unmarshal(p.Args[3], &call.Model)
		_ = json.Unmarshal(p.Args[4], &call.Method)

		var args []json.RawMessage
		if len(p.Args) > 5 {
			_ = json.Unmarshal(p.Args[5], &args)
		}
		var kw kwargs
		if len(p.Args) > 6 {
			if err := json.Unmarshal(p.Args[6], &kw); err != nil {
				return call, kw, nil, &rpcFault{"builtins.TypeError", err.Error()}
			}
		}
		call.Offset, call.Limit, call.Fields, call.Context = kw.Offset, kw.Limit, kw.Fields, kw.Context
		if call.Method == "read" && len(args) > 0 {
			_ = json.Unmarshal(args[0], &call.IDs)
		}
		return call, kw, args, nil

	default:
		return call, kwargs{}, nil, &rpcFault{"werkzeug.exceptions.NotFound", "unknown service method"}
	}
}

func (s *Server) dispatch(c Call, kw kwargs, args []json.RawMessage) (any, *rpcFault) {
	if c.Service == "common" {
		var db, login, password string
		if len(args) >= 3 {
			_ = json.Unmarshal(args[0], &db)
			_ = json.Unmarshal(args[1], &login)
			_ = json.Unmarshal(args[2], &password)
		}
		if db != s.db || login != s.user || password != s.password {
			return false, nil
		}
		return DefaultUID, nil
	}

	lang, _ := kw.Context["lang"].(string)
	includeArchived := kw.Context["active_test"] == false

	switch {
	case c.Model == LeadModel && c.Method == "search_count":
		return len(s.leads(includeArchived)), nil

	case c.Model == LeadModel && c.Method == "search_read":
		leads := s.leads(includeArchived)
		if c.Offset >= len(leads) {
			return []any{}, nil
		}
		leads = leads[c.Offset:]
		if c.Limit > 0 && c.Limit < len(leads) {
			leads = leads[:c.Limit]
		}
		out := make([]map[string]any, 0, len(leads))
		for _, l := range leads {
			out = append(out, pick(s.renderLead(l, lang), kw.Fields))
		}
		return out, nil

	case c.Method == "read":
		records, ok := s.data.Models[c.Model]
		if !ok {
			return nil, &rpcFault{"builtins.KeyError", fmt.Sprintf("unknown model %q", c.Model)}
		}
		byID := make(map[int64]Record, len(records))
		for _, rec := range records {
			byID[rec.ID] = rec
		}
		out := make([]map[string]any, 0, len(c.IDs))
		for _, id := range c.IDs {
			rec, ok := byID[id]
			if !ok {
				continue
			}
			out = append(out, pick(s.renderRecord(c.Model, rec, lang), kw.Fields))
		}
		return out, nil

	default:
		return nil, &rpcFault{"builtins.AttributeError", fmt.Sprintf("unsupported call %s.%s", c.Model, c.Method)}
	}
}

// leads returns the visible leads in ascending id order.
func (s *Server) leads(includeArchived bool) []Lead {
	out := make([]Lead, 0, len(s.data.Leads))
	for _, l := range s.data.Leads {
		if l.Active || includeArchived {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pick keeps the requested fields plus id. An empty list keeps everything.
func pick(rec map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return rec
	}
	out := map[string]any{"id": rec["id"]}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func writeError(w http.ResponseWriter, id json.RawMessage, f *rpcFault) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    200,
			"message": "Odoo Server Error",
			"data": map[string]any{
				"name":    f.name,
				"message": f.message,
				"debug":   "",
			},
		},
	})
}
