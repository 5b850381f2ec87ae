package odoo

import (
	"encoding/json"
	"testing"
)

func TestString_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want String
	}{
		{`"hello"`, "hello"},
		{`false`, ""},
		{`null`, ""},
		{`""`, ""},
	}
	for _, tt := range tests {
		var s String
		if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.in, err)
			continue
		}
		if s != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, s, tt.want)
		}
	}

	var s String
	if err := json.Unmarshal([]byte(`12`), &s); err == nil {
		t.Error("Unmarshal(12) into String should fail")
	}
}

func TestFloatAndBool_Unmarshal(t *testing.T) {
	var f Float
	for in, want := range map[string]Float{`42.3`: 42.3, `100`: 100, `false`: 0, `null`: 0} {
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if f != want {
			t.Errorf("Float(%s) = %v, want %v", in, f, want)
		}
	}

	var b Bool
	for in, want := range map[string]Bool{`true`: true, `false`: false, `null`: false} {
		if err := json.Unmarshal([]byte(in), &b); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if b != want {
			t.Errorf("Bool(%s) = %v, want %v", in, b, want)
		}
	}
}

func TestMany2One_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Many2One
	}{
		{"pair", `[7, "Qualified"]`, Many2One{ID: 7, Name: "Qualified"}},
		{"bare id", `7`, Many2One{ID: 7}},
		{"false", `false`, Many2One{}},
		{"null", `null`, Many2One{}},
		{"pair with false name", `[3, false]`, Many2One{ID: 3}},
		{"empty list", `[]`, Many2One{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Many2One
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if m != tt.want {
				t.Errorf("got %+v, want %+v", m, tt.want)
			}
			if m.Valid() != (tt.want.ID != 0) {
				t.Errorf("Valid() = %v", m.Valid())
			}
		})
	}

	var m Many2One
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Error("Unmarshal of a string should fail")
	}
}

func TestIDs_Unmarshal(t *testing.T) {
	var ids IDs
	if err := json.Unmarshal([]byte(`[3, 1, 2]`), &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != 3 {
		t.Errorf("ids = %v", ids)
	}
	if err := json.Unmarshal([]byte(`false`), &ids); err != nil {
		t.Fatal(err)
	}
	if ids != nil {
		t.Errorf("false should decode to nil, got %v", ids)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		lang string
		want string
	}{
		{"plain string", `"Won"`, "es_ES", "Won"},
		{"false", `false`, "es_ES", ""},
		{"object with lang", `{"en_US": "Won", "es_ES": "Ganado"}`, "es_ES", "Ganado"},
		{"object falls back to en_US", `{"en_US": "Won", "fr_FR": "Gagné"}`, "es_ES", "Won"},
		{"object without lang or en_US is empty", `{"fr_FR": "Gagné", "de_DE": "Gewonnen"}`, "es_ES", ""},
		{"empty object", `{}`, "es_ES", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Label
			if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := l.Resolve(tt.lang, "en_US"); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLead_Unmarshal(t *testing.T) {
	raw := `{
		"id": 12,
		"name": "Big deal",
		"type": "opportunity",
		"active": false,
		"probability": 100.0,
		"expected_revenue": 2500.5,
		"recurring_revenue": 0,
		"priority": "2",
		"date_deadline": false,
		"create_date": "2024-01-15 09:00:00",
		"stage_id": [2, "Qualified"],
		"partner_id": false,
		"email_from": false,
		"tag_ids": [5, 3],
		"user_id": [2, "Mitchell Admin"]
	}`

	var l Lead
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if l.ID != 12 || l.Name.Resolve("en_US", "en_US") != "Big deal" {
		t.Errorf("identity = %d %+v", l.ID, l.Name)
	}
	if l.Active {
		t.Error("Active should be false")
	}
	if l.Probability != 100 || l.ExpectedRevenue != 2500.5 {
		t.Errorf("floats = %v %v", l.Probability, l.ExpectedRevenue)
	}
	if l.DateDeadline != "" || l.EmailFrom != "" {
		t.Error("false values should decode empty")
	}
	if l.StageID.ID != 2 || l.PartnerID.Valid() || l.UserID.ID != 2 {
		t.Errorf("references = %+v %+v %+v", l.StageID, l.PartnerID, l.UserID)
	}
	if len(l.TagIDs) != 2 {
		t.Errorf("TagIDs = %v", l.TagIDs)
	}
}

func TestLeadFieldsMatchStruct(t *testing.T) {
	data, err := json.Marshal(Lead{})
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatal(err)
	}

	if len(keys) != len(LeadFields) {
		t.Errorf("Lead has %d fields, LeadFields has %d", len(keys), len(LeadFields))
	}
	for _, f := range LeadFields {
		if _, ok := keys[f]; !ok {
			t.Errorf("LeadFields entry %q has no struct field", f)
		}
	}
}
