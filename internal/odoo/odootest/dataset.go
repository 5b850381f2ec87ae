package odootest

import "sort"

// Model names served by the fake endpoint.
const (
	LeadModel       = "crm.lead"
	StageModel      = "crm.stage"
	PartnerModel    = "res.partner"
	CountryModel    = "res.country"
	UserModel       = "res.users"
	TeamModel       = "crm.team"
	TagModel        = "crm.tag"
	LostReasonModel = "crm.lost.reason"
	CampaignModel   = "utm.campaign"
	MediumModel     = "utm.medium"
	SourceModel     = "utm.source"
)

// Record is a row of a referenced model.
type Record struct {
	ID   int64
	Name string
	// Translations, when set, replaces Name with per-locale labels.
	Translations map[string]string
	// CountryID is used by partners, PartnerID by users.
	CountryID int64
	PartnerID int64
}

// Label resolves the record's name for lang with en_US as fallback.
func (r Record) Label(lang string) string {
	if r.Translations == nil {
		return r.Name
	}
	if v, ok := r.Translations[lang]; ok {
		return v
	}
	return r.Translations["en_US"]
}

// Lead is one crm.lead row. Empty strings and zero ids are sent as false.
type Lead struct {
	ID               int64
	Name             string
	Type             string
	Active           bool
	Probability      float64
	ExpectedRevenue  float64
	RecurringRevenue float64
	Priority         string
	DateDeadline     string
	DateOpen         string
	DateClosed       string
	DateConversion   string
	CreateDate       string
	WriteDate        string
	StageID          int64
	PartnerID        int64
	EmailFrom        string
	Phone            string
	Mobile           string
	Function         string
	Street           string
	Street2          string
	City             string
	Zip              string
	CountryID        int64
	PartnerName      string
	ContactName      string
	UserID           int64
	TeamID           int64
	TagIDs           []int64
	LostReasonID     int64
	CampaignID       int64
	MediumID         int64
	SourceID         int64
}

// Dataset is the content served by a Server. Models holds the referenced
// records keyed by model name.
type Dataset struct {
	Leads  []Lead
	Models map[string][]Record
}

// Find returns the record of model with the given id.
func (d Dataset) Find(model string, id int64) (Record, bool) {
	for _, r := range d.Models[model] {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Translated reports whether any record of model carries translations.
func (d Dataset) Translated(model string) bool {
	for _, r := range d.Models[model] {
		if r.Translations != nil {
			return true
		}
	}
	return false
}

// ModelNames returns the referenced model names in sorted order.
func (d Dataset) ModelNames() []string {
	names := make([]string, 0, len(d.Models))
	for name := range d.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) label(rec Record) any {
	if s.raw && rec.Translations != nil {
		return rec.Translations
	}
	return nil
}

// displayName is the name Odoo reports for rec. Users are named after
// their partner.
func (s *Server) displayName(model string, rec Record, lang string) string {
	if model == UserModel && rec.PartnerID != 0 {
		if p, ok := s.data.Find(PartnerModel, rec.PartnerID); ok {
			return p.Label(lang)
		}
	}
	return rec.Label(lang)
}

func (s *Server) renderRecord(model string, rec Record, lang string) map[string]any {
	out := map[string]any{"id": rec.ID, "name": falsy(s.displayName(model, rec, lang))}
	if raw := s.label(rec); raw != nil {
		out["name"] = raw
	}
	out["country_id"] = s.many2one(CountryModel, rec.CountryID, lang)
	out["partner_id"] = s.many2one(PartnerModel, rec.PartnerID, lang)
	return out
}

func (s *Server) renderLead(l Lead, lang string) map[string]any {
	tags := l.TagIDs
	if tags == nil {
		tags = []int64{}
	}
	return map[string]any{
		"id":                l.ID,
		"name":              falsy(l.Name),
		"type":              falsy(l.Type),
		"active":            l.Active,
		"probability":       l.Probability,
		"expected_revenue":  l.ExpectedRevenue,
		"recurring_revenue": l.RecurringRevenue,
		"priority":          falsy(l.Priority),
		"date_deadline":     falsy(l.DateDeadline),
		"date_open":         falsy(l.DateOpen),
		"date_closed":       falsy(l.DateClosed),
		"date_conversion":   falsy(l.DateConversion),
		"create_date":       falsy(l.CreateDate),
		"write_date":        falsy(l.WriteDate),
		"stage_id":          s.many2one(StageModel, l.StageID, lang),
		"partner_id":        s.many2one(PartnerModel, l.PartnerID, lang),
		"email_from":        falsy(l.EmailFrom),
		"phone":             falsy(l.Phone),
		"mobile":            falsy(l.Mobile),
		"function":          falsy(l.Function),
		"street":            falsy(l.Street),
		"street2":           falsy(l.Street2),
		"city":              falsy(l.City),
		"zip":               falsy(l.Zip),
		"country_id":        s.many2one(CountryModel, l.CountryID, lang),
		"partner_name":      falsy(l.PartnerName),
		"contact_name":      falsy(l.ContactName),
		"user_id":           s.many2one(UserModel, l.UserID, lang),
		"team_id":           s.many2one(TeamModel, l.TeamID, lang),
		"tag_ids":           tags,
		"lost_reason_id":    s.many2one(LostReasonModel, l.LostReasonID, lang),
		"campaign_id":       s.many2one(CampaignModel, l.CampaignID, lang),
		"medium_id":         s.many2one(MediumModel, l.MediumID, lang),
		"source_id":         s.many2one(SourceModel, l.SourceID, lang),
	}
}

// many2one renders a reference as [id, display_name], or false.
func (s *Server) many2one(model string, id int64, lang string) any {
	if id == 0 {
		return false
	}
	name := ""
	if rec, ok := s.data.Find(model, id); ok {
		name = s.displayName(model, rec, lang)
	}
	return []any{id, name}
}

func falsy(s string) any {
	if s == "" {
		return false
	}
	return s
}
