package apiexport

import (
	"context"
	"fmt"
	"sort"

	"github.com/JonMunkholm/crmexport/internal/odoo"
	"github.com/JonMunkholm/crmexport/internal/schema"
)

// relation is one referenced type resolved per batch.
type relation struct {
	entity string
	fields []string
	keys   func(l *odoo.Lead) []int64
}

func one(m odoo.Many2One) []int64 {
	if !m.Valid() {
		return nil
	}
	return []int64{m.ID}
}

// relations lists the types read for every batch, in call order. Countries
// are read last because partners contribute keys to them.
var relations = []relation{
	{schema.EntityStage, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.StageID) }},
	{schema.EntityPartner, []string{"name", "country_id"}, func(l *odoo.Lead) []int64 { return one(l.PartnerID) }},
	{schema.EntityUser, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.UserID) }},
	{schema.EntityTeam, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.TeamID) }},
	{schema.EntityTag, []string{"name"}, func(l *odoo.Lead) []int64 { return l.TagIDs }},
	{schema.EntityLostReason, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.LostReasonID) }},
	{schema.EntityCampaign, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.CampaignID) }},
	{schema.EntityMedium, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.MediumID) }},
	{schema.EntitySource, []string{"name"}, func(l *odoo.Lead) []int64 { return one(l.SourceID) }},
}

// lookup holds the related records of one batch by entity and id.
type lookup map[string]map[int64]odoo.Related

func (lk lookup) get(entity string, id int64) (odoo.Related, bool) {
	if id == 0 {
		return odoo.Related{}, false
	}
	r, ok := lk[entity][id]
	return r, ok
}

// keySet collects distinct ids.
type keySet map[int64]struct{}

func (ks keySet) add(ids ...int64) {
	for _, id := range ids {
		if id != 0 {
			ks[id] = struct{}{}
		}
	}
}

func (ks keySet) sorted() []int64 {
	out := make([]int64, 0, len(ks))
	for id := range ks {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// resolve reads every referenced record of a batch with one read per type.
func (e *Exporter) resolve(ctx context.Context, leads []odoo.Lead) (lookup, error) {
	lk := make(lookup, len(relations)+1)

	for _, rel := range relations {
		keys := keySet{}
		for i := range leads {
			keys.add(rel.keys(&leads[i])...)
		}
		records, err := e.read(ctx, rel.entity, keys.sorted(), rel.fields)
		if err != nil {
			return nil, err
		}
		lk[rel.entity] = records
	}

	countries := keySet{}
	for i := range leads {
		countries.add(leads[i].CountryID.ID)
	}
	for _, p := range lk[schema.EntityPartner] {
		countries.add(p.CountryID.ID)
	}
	records, err := e.read(ctx, schema.EntityCountry, countries.sorted(), []string{"name"})
	if err != nil {
		return nil, err
	}
	lk[schema.EntityCountry] = records

	return lk, nil
}

// read fetches ids of entity. No ids means no call.
func (e *Exporter) read(ctx context.Context, entity string, ids []int64, fields []string) (map[int64]odoo.Related, error) {
	out := make(map[int64]odoo.Related, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	model := schema.MustGet(entity).Model
	var records []odoo.Related
	if err := e.rpc.Read(ctx, model, ids, fields, e.requestContext(), &records); err != nil {
		return nil, fmt.Errorf("read %s: %w", model, err)
	}
	for _, r := range records {
		out[r.ID] = r
	}
	return out, nil
}
