package apiexport

import (
	"github.com/JonMunkholm/crmexport/internal/core"
	"github.com/JonMunkholm/crmexport/internal/odoo"
	"github.com/JonMunkholm/crmexport/internal/schema"
)

// rowBuilder fills a row by column name.
type rowBuilder struct {
	row core.Row
}

func (b *rowBuilder) set(column, value string) {
	b.row[schema.MustIndex(column)] = value
}

// buildRow renders one lead through the shared formatters. References that
// are unset or were not returned by the server render empty.
func (e *Exporter) buildRow(l *odoo.Lead, lk lookup) core.Row {
	var b rowBuilder
	text := func(s odoo.String) string { return core.NormalizeText(string(s)) }
	label := func(entity string, id int64) string {
		r, ok := lk.get(entity, id)
		if !ok {
			return ""
		}
		return core.NormalizeText(r.Name.Resolve(e.opts.Lang, core.DefaultLocale))
	}

	b.set("id", core.FormatInt(l.ID))
	b.set("opportunity_name", core.NormalizeText(l.Name.Resolve(e.opts.Lang, core.DefaultLocale)))
	b.set("type", text(l.Type))
	b.set("active", core.FormatBool(bool(l.Active)))
	b.set("probability", core.FormatFloat(float64(l.Probability)))
	b.set("expected_revenue", core.FormatFloat(float64(l.ExpectedRevenue)))
	b.set("recurring_revenue", core.FormatFloat(float64(l.RecurringRevenue)))
	b.set("priority", text(l.Priority))
	b.set("date_deadline", core.NormalizeDate(string(l.DateDeadline)))
	b.set("date_open", core.NormalizeTimestamp(string(l.DateOpen)))
	b.set("date_closed", core.NormalizeTimestamp(string(l.DateClosed)))
	b.set("date_conversion", core.NormalizeTimestamp(string(l.DateConversion)))
	b.set("create_date", core.NormalizeTimestamp(string(l.CreateDate)))
	b.set("write_date", core.NormalizeTimestamp(string(l.WriteDate)))

	b.set("stage_name", label(schema.EntityStage, l.StageID.ID))
	b.set("stage_id", core.FormatInt(l.StageID.ID))

	b.set("partner_name", label(schema.EntityPartner, l.PartnerID.ID))
	b.set("partner_id", core.FormatInt(l.PartnerID.ID))
	if p, ok := lk.get(schema.EntityPartner, l.PartnerID.ID); ok {
		b.set("partner_country", label(schema.EntityCountry, p.CountryID.ID))
	}

	b.set("email_from", text(l.EmailFrom))
	b.set("phone", text(l.Phone))
	b.set("mobile", text(l.Mobile))
	b.set("function", text(l.Function))
	b.set("street", text(l.Street))
	b.set("street2", text(l.Street2))
	b.set("city", text(l.City))
	b.set("zip", text(l.Zip))
	b.set("country", label(schema.EntityCountry, l.CountryID.ID))
	b.set("lead_contact_name", text(l.PartnerName))
	b.set("contact_name", text(l.ContactName))

	b.set("assigned_user", label(schema.EntityUser, l.UserID.ID))
	b.set("user_id", core.FormatInt(l.UserID.ID))
	b.set("sales_team", label(schema.EntityTeam, l.TeamID.ID))
	b.set("team_id", core.FormatInt(l.TeamID.ID))

	tags := make([]string, 0, len(l.TagIDs))
	for _, id := range l.TagIDs {
		if t, ok := lk.get(schema.EntityTag, id); ok {
			tags = append(tags, t.Name.Resolve(e.opts.Lang, core.DefaultLocale))
		}
	}
	b.set("tags", core.JoinTags(tags))

	b.set("lost_reason", label(schema.EntityLostReason, l.LostReasonID.ID))
	b.set("lost_reason_id", core.FormatInt(l.LostReasonID.ID))
	b.set("campaign", label(schema.EntityCampaign, l.CampaignID.ID))
	b.set("medium", label(schema.EntityMedium, l.MediumID.ID))
	b.set("source", label(schema.EntitySource, l.SourceID.ID))

	return b.row
}
