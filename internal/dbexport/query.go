package dbexport

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/introspect"
	"github.com/JonMunkholm/crmexport/internal/schema"
)

// source describes where a column's raw value comes from.
// When entity is set, alias names a joined row of that entity and the value
// is its label column.
type source struct {
	expr   string
	alias  string
	entity string
}

// columnSources maps every output column to its raw SQL value.
var columnSources = map[string]source{
	"id":                {expr: "l.id"},
	"opportunity_name":  {alias: "l", entity: schema.EntityLead},
	"type":              {expr: "l.type"},
	"active":            {expr: "l.active"},
	"probability":       {expr: "l.probability"},
	"expected_revenue":  {expr: "l.expected_revenue"},
	"recurring_revenue": {expr: "l.recurring_revenue"},
	"priority":          {expr: "l.priority"},
	"date_deadline":     {expr: "l.date_deadline"},
	"date_open":         {expr: "l.date_open"},
	"date_closed":       {expr: "l.date_closed"},
	"date_conversion":   {expr: "l.date_conversion"},
	"create_date":       {expr: "l.create_date"},
	"write_date":        {expr: "l.write_date"},
	"stage_name":        {alias: "st", entity: schema.EntityStage},
	"stage_id":          {expr: "l.stage_id"},
	"partner_name":      {alias: "p", entity: schema.EntityPartner},
	"partner_id":        {expr: "l.partner_id"},
	"partner_country":   {alias: "pc", entity: schema.EntityCountry},
	"email_from":        {expr: "l.email_from"},
	"phone":             {expr: "l.phone"},
	"mobile":            {expr: "l.mobile"},
	"function":          {expr: "l.function"},
	"street":            {expr: "l.street"},
	"street2":           {expr: "l.street2"},
	"city":              {expr: "l.city"},
	"zip":               {expr: "l.zip"},
	"country":           {alias: "c", entity: schema.EntityCountry},
	"lead_contact_name": {expr: "l.partner_name"},
	"contact_name":      {expr: "l.contact_name"},
	"assigned_user":     {alias: "up", entity: schema.EntityPartner},
	"user_id":           {expr: "l.user_id"},
	"sales_team":        {alias: "tm", entity: schema.EntityTeam},
	"team_id":           {expr: "l.team_id"},
	"tags":              {expr: "tg.tags"},
	"lost_reason":       {alias: "lr", entity: schema.EntityLostReason},
	"lost_reason_id":    {expr: "l.lost_reason_id"},
	"campaign":          {alias: "cp", entity: schema.EntityCampaign},
	"medium":            {alias: "md", entity: schema.EntityMedium},
	"source":            {alias: "src", entity: schema.EntitySource},
}

// join is one LEFT JOIN of the export query.
type join struct {
	entity string
	alias  string
	on     string
}

// joins lists the many-to-one lookups in the order they are joined.
var joins = []join{
	{schema.EntityStage, "st", "st.id = l.stage_id"},
	{schema.EntityPartner, "p", "p.id = l.partner_id"},
	{schema.EntityCountry, "pc", "pc.id = p.country_id"},
	{schema.EntityUser, "u", "u.id = l.user_id"},
	{schema.EntityPartner, "up", "up.id = u.partner_id"},
	{schema.EntityTeam, "tm", "tm.id = l.team_id"},
	{schema.EntityLostReason, "lr", "lr.id = l.lost_reason_id"},
	{schema.EntityCampaign, "cp", "cp.id = l.campaign_id"},
	{schema.EntityMedium, "md", "md.id = l.medium_id"},
	{schema.EntitySource, "src", "src.id = l.source_id"},
	{schema.EntityCountry, "c", "c.id = l.country_id"},
}

// queryBuilder renders the export query for one discovery result.
type queryBuilder struct {
	d    introspect.Discovery
	trim string
}

// BuildQuery returns the single SELECT that yields every lead as one row of
// pre-rendered text columns, in schema order, ascending by id.
func BuildQuery(d introspect.Discovery) (string, error) {
	if d.LocaleKey == "" {
		d.LocaleKey = core.DefaultLocale
	}
	qb := queryBuilder{d: d, trim: escapeBytes(core.TrimSet)}

	cols := make([]string, 0, schema.ColumnCount)
	for _, spec := range schema.LeadColumns {
		src, ok := columnSources[spec.Name]
		if !ok {
			return "", fmt.Errorf("no source for column %q", spec.Name)
		}
		expr, err := qb.render(spec, src)
		if err != nil {
			return "", err
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", expr, quoteIdentifier(spec.Name)))
	}

	lead := schema.MustGet(schema.EntityLead)

	var b strings.Builder
	b.WriteString("SELECT\n\t")
	b.WriteString(strings.Join(cols, ",\n\t"))
	fmt.Fprintf(&b, "\nFROM %s l", quoteIdentifier(lead.Table))
	for _, j := range joins {
		e := schema.MustGet(j.entity)
		fmt.Fprintf(&b, "\nLEFT JOIN %s %s ON %s", quoteIdentifier(e.Table), j.alias, j.on)
	}
	b.WriteString(qb.tagsJoin())
	b.WriteString("\nORDER BY l.id")

	return b.String(), nil
}

// CopyStatement wraps a query in the COPY form whose output matches the
// contract's CSV shape: every non-null field quoted, NULL as a bare empty field.
func CopyStatement(query string) string {
	return "COPY (\n" + query + "\n) TO STDOUT WITH (FORMAT csv, FORCE_QUOTE *)"
}

// render applies the column type's formatting rule to the raw value.
func (qb queryBuilder) render(spec schema.FieldSpec, src source) (string, error) {
	raw := src.expr
	if src.entity != "" {
		raw = qb.label(src.alias, schema.MustGet(src.entity))
	}

	switch spec.Type {
	case schema.FieldText:
		return fmt.Sprintf("NULLIF(btrim((%s)::text, %s), '')", raw, qb.trim), nil
	case schema.FieldInteger:
		return fmt.Sprintf("(%s)::text", raw), nil
	case schema.FieldBool:
		// NULL reads as False, as it does through the ORM.
		return fmt.Sprintf("CASE WHEN %s THEN 'True' ELSE 'False' END", raw), nil
	case schema.FieldFloat:
		// Shortest float8 digits, expanded through numeric to avoid exponents,
		// with ".0" appended to whole numbers. NULL reads as 0.0.
		return fmt.Sprintf(`regexp_replace(((COALESCE(%s, 0))::float8::text::numeric)::text, '^(-?[0-9]+)$', '\1.0')`, raw), nil
	case schema.FieldDate:
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", raw), nil
	case schema.FieldTimestamp:
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD HH24:MI:SS')", raw), nil
	case schema.FieldTags:
		if !qb.d.TagsFound {
			return "NULL::text", nil
		}
		return raw, nil
	default:
		return "", fmt.Errorf("column %q: unsupported type %s", spec.Name, spec.Type)
	}
}

// label returns the label of the row joined as alias, resolving translated
// columns through the run's locale with the default locale as fallback.
func (qb queryBuilder) label(alias string, e schema.Entity) string {
	col := alias + "." + quoteIdentifier(e.LabelColumn)
	if !qb.d.IsTranslated(e.Table, e.LabelColumn) {
		return col
	}
	if qb.d.LocaleKey == core.DefaultLocale {
		return fmt.Sprintf("%s->>%s", col, quoteLiteral(core.DefaultLocale))
	}
	return fmt.Sprintf("COALESCE(%s->>%s, %s->>%s)",
		col, quoteLiteral(qb.d.LocaleKey), col, quoteLiteral(core.DefaultLocale))
}

// tagsJoin aggregates tag labels per lead inside the query: trimmed, NFC
// normalized, de-duplicated, sorted by byte order and joined.
func (qb queryBuilder) tagsJoin() string {
	if !qb.d.TagsFound {
		return ""
	}
	tag := schema.MustGet(schema.EntityTag)
	rel := qb.d.Tags

	return fmt.Sprintf(`
LEFT JOIN LATERAL (
	SELECT string_agg(d.tag_label, %[1]s ORDER BY d.tag_label) AS tags
	FROM (
		SELECT DISTINCT normalize(btrim((%[2]s)::text, %[3]s), NFC) COLLATE "C" AS tag_label
		FROM %[4]s r
		JOIN %[5]s t ON t.id = r.%[6]s
		WHERE r.%[7]s = l.id
	) d
	WHERE d.tag_label <> ''
) tg ON true`,
		quoteLiteral(core.TagSeparator),
		qb.label("t", tag),
		qb.trim,
		quoteIdentifier(rel.JoinTable),
		quoteIdentifier(tag.Table),
		quoteIdentifier(rel.TagColumn),
		quoteIdentifier(rel.LeadColumn),
	)
}

// quoteIdentifier quotes a PostgreSQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral quotes a PostgreSQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// escapeBytes renders s as an escape-string literal with every byte in hex,
// so control characters survive regardless of server settings.
func escapeBytes(s string) string {
	var b strings.Builder
	b.WriteString("E'")
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&b, `\x%02x`, s[i])
	}
	b.WriteString("'")
	return b.String()
}
