package core

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
	}{
		{"pgx connect failure", "failed to connect to `host=db user=odoo`: dial error (connection refused)", "CONN001"},
		{"ping failure", "ping database: broken pipe", "CONN001"},
		{"endpoint refused", `Post "http://odoo:8069/jsonrpc": dial tcp: connection refused`, "CONN002"},
		{"unknown host", "dial tcp: lookup odoo: no such host", "CONN002"},
		{"auth", "authentication failed for admin on odoo", "AUTH001"},
		{"access rule", "odoo.exceptions.AccessError: You are not allowed to access 'Lead'", "RPC003"},
		{"validation", "odoo.exceptions.ValidationError: Invalid field 'foo' on model 'crm.lead'", "RPC002"},
		{"timeout", "context deadline exceeded", "RPC001"},
		{"client timeout", "request timeout after 2m0s", "RPC001"},
		{"http status", "http status 502 Bad Gateway", "RPC004"},
		{"server error", "Odoo Server Error", "RPC004"},
		{"case insensitive", "AUTHENTICATION FAILED", "AUTH001"},
		{"unknown", "something odd happened", "ERR000"},
		{"empty", "", "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Code != tt.wantCode {
				t.Errorf("Classify(%q).Code = %s, want %s", tt.text, got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("Classify(%q) returned an incomplete message: %+v", tt.text, got)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(nil); got.Code != "ERR000" {
		t.Errorf("ClassifyError(nil).Code = %s, want ERR000", got.Code)
	}

	wrapped := errors.Join(errors.New("batch 3"), errors.New("odoo.exceptions.AccessError: denied"))
	if got := ClassifyError(wrapped); got.Code != "RPC003" {
		t.Errorf("ClassifyError(wrapped).Code = %s, want RPC003", got.Code)
	}
}

func TestErrorPatternsAreLowercase(t *testing.T) {
	for _, p := range errorPatterns {
		for _, r := range p.pattern {
			if r >= 'A' && r <= 'Z' {
				t.Errorf("pattern %q must be lowercase", p.pattern)
				break
			}
		}
	}
}
