package dbexport

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/crmexport/internal/introspect"
	"github.com/JonMunkholm/crmexport/internal/schema"
)

func fullDiscovery() introspect.Discovery {
	return introspect.Discovery{
		Tags: introspect.TagRelation{
			JoinTable:  "crm_tag_rel",
			LeadColumn: "lead_id",
			TagColumn:  "tag_id",
		},
		TagsFound: true,
		LocaleKey: "es_ES",
		Translated: map[string]bool{
			"crm_stage.name":       true,
			"crm_tag.name":         true,
			"crm_lost_reason.name": true,
			"res_country.name":     true,
		},
	}
}

func TestColumnSourcesCoverSchema(t *testing.T) {
	if len(columnSources) != schema.ColumnCount {
		t.Errorf("columnSources has %d entries, want %d", len(columnSources), schema.ColumnCount)
	}
	for _, spec := range schema.LeadColumns {
		src, ok := columnSources[spec.Name]
		if !ok {
			t.Errorf("column %q has no source", spec.Name)
			continue
		}
		if src.entity != "" {
			if _, ok := schema.Get(src.entity); !ok {
				t.Errorf("column %q references unknown entity %q", spec.Name, src.entity)
			}
			if src.alias == "" {
				t.Errorf("column %q has an entity but no alias", spec.Name)
			}
		}
	}
}

func TestBuildQuery_Full(t *testing.T) {
	q, err := BuildQuery(fullDiscovery())
	if err != nil {
		t.Fatalf("BuildQuery() error = %v", err)
	}

	if got := strings.Count(q, ` AS "`); got != schema.ColumnCount {
		t.Errorf("query selects %d named columns, want %d", got, schema.ColumnCount)
	}

	wants := []string{
		`FROM "crm_lead" l`,
		`LEFT JOIN "crm_stage" st ON st.id = l.stage_id`,
		`LEFT JOIN "res_partner" up ON up.id = u.partner_id`,
		`LEFT JOIN "res_country" pc ON pc.id = p.country_id`,
		`COALESCE(st."name"->>'es_ES', st."name"->>'en_US')`,
		`COALESCE(t."name"->>'es_ES', t."name"->>'en_US')`,
		`LEFT JOIN LATERAL (`,
		`FROM "crm_tag_rel" r`,
		`JOIN "crm_tag" t ON t.id = r."tag_id"`,
		`WHERE r."lead_id" = l.id`,
		`string_agg(d.tag_label, ' | ' ORDER BY d.tag_label)`,
		`normalize(`,
		`COLLATE "C"`,
		`tg.tags AS "tags"`,
		`CASE WHEN l.active THEN 'True' ELSE 'False' END AS "active"`,
		`to_char(l.date_deadline, 'YYYY-MM-DD') AS "date_deadline"`,
		`to_char(l.create_date, 'YYYY-MM-DD HH24:MI:SS') AS "create_date"`,
		`(l.id)::text AS "id"`,
		`(COALESCE(l.probability, 0))::float8`,
		`NULLIF(btrim((l.email_from)::text, E'\x20\x09\x0a\x0b\x0c\x0d'), '') AS "email_from"`,
	}
	for _, want := range wants {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q\n%s", want, q)
		}
	}

	if !strings.HasSuffix(q, "ORDER BY l.id") {
		t.Errorf("query does not end with ORDER BY l.id")
	}

	// Untranslated labels are read as plain columns.
	if !strings.Contains(q, `NULLIF(btrim((p."name")::text`) {
		t.Errorf("partner name should be read directly\n%s", q)
	}
	if strings.Contains(q, `p."name"->>`) {
		t.Errorf("partner name must not be treated as translated")
	}
}

func TestBuildQuery_NoTagRelation(t *testing.T) {
	d := fullDiscovery()
	d.TagsFound = false
	d.Tags = introspect.TagRelation{}

	q, err := BuildQuery(d)
	if err != nil {
		t.Fatalf("BuildQuery() error = %v", err)
	}
	if strings.Contains(q, "LATERAL") {
		t.Errorf("query joins tags without a tag relation")
	}
	if !strings.Contains(q, `NULL::text AS "tags"`) {
		t.Errorf("tags column should be empty without a tag relation")
	}
}

func TestBuildQuery_DefaultLocale(t *testing.T) {
	d := fullDiscovery()
	d.LocaleKey = ""

	q, err := BuildQuery(d)
	if err != nil {
		t.Fatalf("BuildQuery() error = %v", err)
	}
	if !strings.Contains(q, `st."name"->>'en_US'`) {
		t.Errorf("default locale should read en_US labels")
	}
	if strings.Contains(q, "COALESCE(st.") {
		t.Errorf("default locale needs no fallback")
	}
}

func TestBuildQuery_Deterministic(t *testing.T) {
	a, err := BuildQuery(fullDiscovery())
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildQuery(fullDiscovery())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("BuildQuery() is not deterministic")
	}
}

func TestCopyStatement(t *testing.T) {
	stmt := CopyStatement("SELECT 1")
	if !strings.HasPrefix(stmt, "COPY (\nSELECT 1\n)") {
		t.Errorf("CopyStatement() = %q", stmt)
	}
	if !strings.HasSuffix(stmt, "TO STDOUT WITH (FORMAT csv, FORCE_QUOTE *)") {
		t.Errorf("CopyStatement() = %q", stmt)
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"identifier", quoteIdentifier, "crm_lead", `"crm_lead"`},
		{"identifier with quote", quoteIdentifier, `we"ird`, `"we""ird"`},
		{"literal", quoteLiteral, "es_ES", `'es_ES'`},
		{"literal with quote", quoteLiteral, "it's", `'it''s'`},
		{"escape bytes", escapeBytes, " \t", `E'\x20\x09'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
