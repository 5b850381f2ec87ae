// Package introspect discovers the parts of the relational schema that are
// not fixed across deployments: the join table behind the lead-to-tag
// relation, the locale key used inside translated label columns, and which
// label columns are translated at all.
//
// Discovery runs once per export, before the query is built. Not finding the
// tag relation or a locale sample is a degraded outcome recorded in the
// result; only query failures are returned as errors.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/logging"
	"github.com/JonMunkholm/crmexport/internal/schema"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx used for discovery.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TagRelation identifies the join table between leads and tags.
type TagRelation struct {
	JoinTable  string
	LeadColumn string
	TagColumn  string
}

// Discovery is the outcome of introspection.
type Discovery struct {
	// Tags is only meaningful when TagsFound is true.
	Tags      TagRelation
	TagsFound bool

	// LocaleKey selects the string inside translated label columns.
	LocaleKey       string
	LocaleDefaulted bool

	// Translated holds "table.column" entries stored as jsonb.
	Translated map[string]bool

	// Warnings describe degraded outcomes, prefixed with their code.
	Warnings []string
}

// IsTranslated reports whether table.column holds per-locale labels.
func (d Discovery) IsTranslated(table, column string) bool {
	return d.Translated[table+"."+column]
}

// Introspector runs discovery queries against a store.
type Introspector struct {
	q         Querier
	preferred string
}

// New creates an Introspector. preferredLocale, when non-empty, is used
// whether or not the sample stores it.
func New(q Querier, preferredLocale string) *Introspector {
	return &Introspector{q: q, preferred: preferredLocale}
}

// tagRelationQuery finds a table holding one foreign key to the lead table and
// one to the tag table. Ties are broken by name so repeated runs agree.
const tagRelationQuery = `
SELECT rel.relname::text, lead_att.attname::text, tag_att.attname::text
FROM pg_constraint lead_fk
JOIN pg_constraint tag_fk
  ON tag_fk.conrelid = lead_fk.conrelid
 AND tag_fk.contype = 'f'
 AND tag_fk.confrelid = to_regclass($2)
JOIN pg_class rel ON rel.oid = lead_fk.conrelid
JOIN pg_attribute lead_att
  ON lead_att.attrelid = lead_fk.conrelid AND lead_att.attnum = lead_fk.conkey[1]
JOIN pg_attribute tag_att
  ON tag_att.attrelid = tag_fk.conrelid AND tag_att.attnum = tag_fk.conkey[1]
WHERE lead_fk.contype = 'f'
  AND lead_fk.confrelid = to_regclass($1)
  AND lead_fk.conrelid <> to_regclass($1)
  AND lead_fk.conrelid <> to_regclass($2)
  AND array_length(lead_fk.conkey, 1) = 1
  AND array_length(tag_fk.conkey, 1) = 1
ORDER BY rel.relname, lead_att.attname, tag_att.attname
LIMIT 1`

// translatedColumnsQuery lists jsonb label columns among the registered tables.
const translatedColumnsQuery = `
SELECT coalesce(array_agg(table_name::text || '.' || column_name::text ORDER BY table_name, column_name), '{}')
FROM information_schema.columns
WHERE table_schema = current_schema()
  AND data_type = 'jsonb'
  AND table_name::text = ANY($1::text[])
  AND column_name::text = ANY($2::text[])`

// localeSampleQuery returns the sorted keys of the first non-null label.
const localeSampleQuery = `
SELECT array(SELECT jsonb_object_keys(%[1]s) ORDER BY 1)
FROM %[2]s
WHERE %[1]s IS NOT NULL AND jsonb_typeof(%[1]s) = 'object'
ORDER BY id
LIMIT 1`

// Discover runs every discovery step.
func (i *Introspector) Discover(ctx context.Context) (Discovery, error) {
	logger := logging.FromContext(ctx)
	d := Discovery{}

	translated, err := i.translatedColumns(ctx)
	if err != nil {
		return d, err
	}
	d.Translated = translated

	rel, found, err := i.findTagRelation(ctx)
	if err != nil {
		return d, err
	}
	d.Tags, d.TagsFound = rel, found
	if found {
		logger.Info("tag relation discovered",
			"join_table", rel.JoinTable,
			"lead_column", rel.LeadColumn,
			"tag_column", rel.TagColumn,
		)
	} else {
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"%s: no join table between %s and %s was found; tags column left empty",
			core.CodeTagRelationMissing,
			schema.MustGet(schema.EntityLead).Table,
			schema.MustGet(schema.EntityTag).Table,
		))
		logger.Warn("tag relation not found, tags will be empty")
	}

	choice, err := i.sampleLocale(ctx, translated)
	if err != nil {
		return d, err
	}
	d.LocaleKey, d.LocaleDefaulted = choice.key, choice.defaulted
	switch {
	case choice.defaulted:
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"%s: no translated label sample found; using locale %s",
			core.CodeLocaleDefaulted, choice.key,
		))
		logger.Warn("locale key defaulted", "locale", choice.key)
	case !choice.stored:
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"%s: locale %s is not stored in %s; labels fall back to %s",
			core.CodeLocaleNotStored, choice.key, choice.sampled, core.DefaultLocale,
		))
		logger.Warn("locale key not stored", "locale", choice.key, "sampled", choice.sampled)
	default:
		logger.Info("locale key discovered", "locale", choice.key, "sampled", choice.sampled)
	}

	return d, nil
}

func (i *Introspector) findTagRelation(ctx context.Context) (TagRelation, bool, error) {
	lead := schema.MustGet(schema.EntityLead)
	tag := schema.MustGet(schema.EntityTag)

	var rel TagRelation
	err := i.q.QueryRow(ctx, tagRelationQuery, lead.Table, tag.Table).
		Scan(&rel.JoinTable, &rel.LeadColumn, &rel.TagColumn)
	if errors.Is(err, pgx.ErrNoRows) {
		return TagRelation{}, false, nil
	}
	if err != nil {
		return TagRelation{}, false, fmt.Errorf("discover tag relation: %w", err)
	}
	return rel, true, nil
}

func (i *Introspector) translatedColumns(ctx context.Context) (map[string]bool, error) {
	tables := schema.LabelTables()
	columns := labelColumns()

	var names []string
	if err := i.q.QueryRow(ctx, translatedColumnsQuery, tables, columns).Scan(&names); err != nil {
		return nil, fmt.Errorf("discover translated columns: %w", err)
	}

	result := make(map[string]bool, len(names))
	for _, n := range names {
		result[n] = true
	}
	return result, nil
}

// sampleLocale reads the key set of one stored translation. The first
// translated entity in registry order that has data is sampled.
func (i *Introspector) sampleLocale(ctx context.Context, translated map[string]bool) (localeChoice, error) {
	for _, e := range sampleOrder() {
		if !translated[e.Table+"."+e.LabelColumn] {
			continue
		}

		var keys []string
		query := fmt.Sprintf(localeSampleQuery, quoteIdentifier(e.LabelColumn), quoteIdentifier(e.Table))
		err := i.q.QueryRow(ctx, query).Scan(&keys)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return localeChoice{}, fmt.Errorf("sample locale from %s: %w", e.Table, err)
		}
		if len(keys) == 0 {
			continue
		}
		key, stored := ChooseLocale(keys, i.preferred)
		return localeChoice{key: key, stored: stored, sampled: e.Table}, nil
	}

	if i.preferred != "" {
		return localeChoice{key: i.preferred, defaulted: true}, nil
	}
	return localeChoice{key: core.DefaultLocale, defaulted: true}, nil
}

// localeChoice is the outcome of locale sampling.
type localeChoice struct {
	key       string
	defaulted bool   // no sample was found
	stored    bool   // key occurs in the sample
	sampled   string // table the sample came from
}

// ChooseLocale picks the active locale from a sampled key set and reports
// whether the chosen key is stored in it. A preferred key is always used, so
// the relational path reads the same locale the remote path requests; when
// it is not stored, labels fall back to the default key. Without a
// preference the first non-default key in sorted order wins, otherwise the
// default key.
func ChooseLocale(keys []string, preferred string) (string, bool) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	if preferred != "" {
		for _, k := range sorted {
			if k == preferred {
				return k, true
			}
		}
		return preferred, false
	}
	for _, k := range sorted {
		if k != core.DefaultLocale && k != "" {
			return k, true
		}
	}
	for _, k := range sorted {
		if k == core.DefaultLocale {
			return k, true
		}
	}
	return core.DefaultLocale, false
}

// sampleOrder lists the entities whose labels are sampled for the locale,
// stage first since every CRM database has stages.
func sampleOrder() []schema.Entity {
	keys := []string{
		schema.EntityStage,
		schema.EntityTag,
		schema.EntityTeam,
		schema.EntityLostReason,
		schema.EntityCountry,
	}
	result := make([]schema.Entity, 0, len(keys))
	for _, k := range keys {
		result = append(result, schema.MustGet(k))
	}
	return result
}

func labelColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, e := range schema.All() {
		if !seen[e.LabelColumn] {
			seen[e.LabelColumn] = true
			cols = append(cols, e.LabelColumn)
		}
	}
	sort.Strings(cols)
	return cols
}

// quoteIdentifier quotes a PostgreSQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
