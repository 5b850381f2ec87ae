package odoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/crmexport/internal/odoo/odootest"
)

func newTestClient(t *testing.T, srv *odootest.Server, opts ...Option) *Client {
	t.Helper()
	c := NewClient(srv.URL(), odootest.DefaultDB, odootest.DefaultUser, odootest.DefaultPassword, opts...)
	if _, err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return c
}

func TestClient_Authenticate(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset())

	c := NewClient(srv.URL()+"/", odootest.DefaultDB, odootest.DefaultUser, odootest.DefaultPassword)
	uid, err := c.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if uid != odootest.DefaultUID || c.UID() != odootest.DefaultUID {
		t.Errorf("uid = %d", uid)
	}
}

func TestClient_AuthenticateRejected(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset())

	c := NewClient(srv.URL(), odootest.DefaultDB, "admin", "wrong")
	_, err := c.Authenticate(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Authenticate() error = %v, want *AuthError", err)
	}
	if IsRetryable(err) {
		t.Error("authentication failures must not be retried")
	}
}

func TestClient_CallBeforeAuthenticate(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "db", "u", "p")
	if _, err := c.SearchCount(context.Background(), "crm.lead", nil, nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("SearchCount() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClient_SearchCountHonorsArchiveFlag(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset())
	c := newTestClient(t, srv)
	ctx := context.Background()

	active, err := c.SearchCount(ctx, "crm.lead", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	all, err := c.SearchCount(ctx, "crm.lead", nil, Context{"active_test": false})
	if err != nil {
		t.Fatal(err)
	}
	if active != 4 || all != 6 {
		t.Errorf("counts = %d active, %d all; want 4, 6", active, all)
	}
}

func TestClient_SearchReadPages(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset())
	c := newTestClient(t, srv)

	var leads []Lead
	err := c.SearchRead(context.Background(), "crm.lead", Query{
		Fields:  LeadFields,
		Offset:  2,
		Limit:   3,
		Order:   "id asc",
		Context: Context{"active_test": false, "lang": "es_ES"},
	}, &leads)
	if err != nil {
		t.Fatalf("SearchRead() error = %v", err)
	}

	if len(leads) != 3 {
		t.Fatalf("got %d leads, want 3", len(leads))
	}
	for i, want := range []int64{3, 4, 5} {
		if leads[i].ID != want {
			t.Errorf("leads[%d].ID = %d, want %d", i, leads[i].ID, want)
		}
	}
	if leads[0].Active {
		t.Error("lead 3 is archived")
	}
	if leads[0].StageID.Name != "Nuevo" {
		t.Errorf("stage display name = %q, want Nuevo", leads[0].StageID.Name)
	}
	if leads[1].PartnerID.Valid() {
		t.Error("lead 4 has no partner")
	}

	calls := srv.Calls()
	last := calls[len(calls)-1]
	if last.Offset != 2 || last.Limit != 3 || last.Context["lang"] != "es_ES" {
		t.Errorf("call = %+v", last)
	}
}

func TestClient_Read(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset(), odootest.WithRawTranslations())
	c := newTestClient(t, srv)

	var stages []Related
	err := c.Read(context.Background(), "crm.stage", []int64{1, 3}, []string{"name"}, Context{"lang": "es_ES"}, &stages)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("got %d stages", len(stages))
	}
	if got := stages[1].Name.Resolve("es_ES", "en_US"); got != "Ganado" {
		t.Errorf("stage 3 = %q, want Ganado", got)
	}
	if got := stages[0].Name.Resolve("fr_FR", "en_US"); got != "New" {
		t.Errorf("stage 1 fallback = %q, want New", got)
	}

	var partners []Related
	if err := c.Read(context.Background(), "res.partner", []int64{10}, []string{"name", "country_id"}, nil, &partners); err != nil {
		t.Fatal(err)
	}
	if len(partners) != 1 || partners[0].CountryID.ID != 1 {
		t.Errorf("partners = %+v", partners)
	}
}

func TestClient_CallHook(t *testing.T) {
	srv := odootest.NewServer(t, odootest.SampleDataset())

	var mu sync.Mutex
	seen := map[string]int{}
	c := newTestClient(t, srv, WithCallHook(func(model, method string, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen[model+"."+method]++
	}))

	ctx := context.Background()
	if _, err := c.SearchCount(ctx, "crm.lead", nil, nil); err != nil {
		t.Fatal(err)
	}
	var out []Related
	if err := c.Read(ctx, "crm.tag", []int64{1}, []string{"name"}, nil, &out); err != nil {
		t.Fatal(err)
	}

	if seen["crm.lead.search_count"] != 1 || seen["crm.tag.read"] != 1 {
		t.Errorf("hook saw %v", seen)
	}
	if len(seen) != 2 {
		t.Errorf("authenticate should not reach the model hook: %v", seen)
	}
}

func TestClient_ServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		fault     odootest.Fault
		check     func(t *testing.T, err error)
		retryable bool
	}{
		{
			name:  "access error",
			fault: odootest.Fault{Name: "odoo.exceptions.AccessError", Message: "You are not allowed to access 'Lead'"},
			check: func(t *testing.T, err error) {
				var rpcErr *RPCError
				if !errors.As(err, &rpcErr) {
					t.Fatalf("error = %v, want *RPCError", err)
				}
				if rpcErr.Name != "odoo.exceptions.AccessError" || rpcErr.Model != "crm.lead" {
					t.Errorf("RPCError = %+v", rpcErr)
				}
			},
		},
		{
			name:  "bad gateway",
			fault: odootest.Fault{HTTPStatus: http.StatusBadGateway},
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
					t.Fatalf("error = %v, want *HTTPError 502", err)
				}
			},
			retryable: true,
		},
		{
			name:  "not found",
			fault: odootest.Fault{HTTPStatus: http.StatusNotFound},
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("error = %v, want *HTTPError", err)
				}
			},
		},
		{
			name:  "timeout",
			fault: odootest.Fault{Delay: time.Second},
			check: func(t *testing.T, err error) {
				var timeout *TimeoutError
				if !errors.As(err, &timeout) {
					t.Fatalf("error = %v, want *TimeoutError", err)
				}
			},
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fault := tt.fault
			srv := odootest.NewServer(t, odootest.SampleDataset(), odootest.WithFault(func(c odootest.Call, attempt int) *odootest.Fault {
				if c.Method == "search_count" {
					return &fault
				}
				return nil
			}))
			c := newTestClient(t, srv, WithTimeout(100*time.Millisecond))

			_, err := c.SearchCount(context.Background(), "crm.lead", nil, nil)
			if err == nil {
				t.Fatal("SearchCount() should fail")
			}
			tt.check(t, err)
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
}

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "net down" }
func (tempNetErr) Timeout() bool   { return false }
func (tempNetErr) Temporary() bool { return true }

var _ net.Error = tempNetErr{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("batch: %w", context.Canceled), false},
		{"timeout", &TimeoutError{Model: "crm.lead", Method: "read"}, true},
		{"server 500", &HTTPError{StatusCode: 500}, true},
		{"client 403", &HTTPError{StatusCode: 403}, false},
		{"rpc error", &RPCError{Name: "odoo.exceptions.ValidationError"}, false},
		{"auth", &AuthError{}, false},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"net error", fmt.Errorf("read: %w", tempNetErr{}), true},
		{"unexpected eof", fmt.Errorf("decode: %w", io.ErrUnexpectedEOF), true},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&RPCError{Model: "crm.lead", Method: "read", Message: "Odoo Server Error"}, "odoo crm.lead.read: Odoo Server Error"},
		{&RPCError{Model: "crm.lead", Method: "read", Name: "odoo.exceptions.AccessError", Detail: "denied"}, "odoo crm.lead.read: odoo.exceptions.AccessError: denied"},
		{&AuthError{DB: "odoo", User: "admin"}, "odoo: authentication failed for admin on odoo"},
		{&HTTPError{StatusCode: 502}, "odoo: http status 502"},
		{&TimeoutError{Model: "crm.tag", Method: "read", Timeout: 2 * time.Second}, "odoo crm.tag.read: request timeout after 2s"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
