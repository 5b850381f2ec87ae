package odoo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Odoo encodes "no value" as false for most field types. The types below
// decode a field into a fixed Go shape and treat false and null as empty.

var (
	jsonFalse = []byte("false")
	jsonNull  = []byte("null")
)

func isEmpty(data []byte) bool {
	data = bytes.TrimSpace(data)
	return bytes.Equal(data, jsonFalse) || bytes.Equal(data, jsonNull) || len(data) == 0
}

// String is a char, text, selection, date or datetime field.
type String string

// UnmarshalJSON implements json.Unmarshaler.
func (s *String) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode string field: %w", err)
	}
	*s = String(v)
	return nil
}

// Float is a float or monetary field.
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*f = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode float field: %w", err)
	}
	*f = Float(v)
	return nil
}

// Bool is a boolean field. Null reads as false.
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*b = false
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode bool field: %w", err)
	}
	*b = Bool(v)
	return nil
}

// Many2One is a many-to-one reference. The server sends [id, display_name],
// a bare id, or false.
type Many2One struct {
	ID   int64
	Name string
}

// Valid reports whether the reference is set.
func (m Many2One) Valid() bool { return m.ID != 0 }

// UnmarshalJSON implements json.Unmarshaler.
func (m *Many2One) UnmarshalJSON(data []byte) error {
	*m = Many2One{}
	if isEmpty(data) {
		return nil
	}

	data = bytes.TrimSpace(data)
	if data[0] != '[' {
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("decode many2one %s: %w", data, err)
		}
		m.ID = id
		return nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode many2one: %w", err)
	}
	if len(pair) == 0 {
		return nil
	}
	if err := json.Unmarshal(pair[0], &m.ID); err != nil {
		return fmt.Errorf("decode many2one id: %w", err)
	}
	if len(pair) > 1 {
		var name String
		if err := json.Unmarshal(pair[1], &name); err != nil {
			return fmt.Errorf("decode many2one name: %w", err)
		}
		m.Name = string(name)
	}
	return nil
}

// IDs is a one2many or many2many field.
type IDs []int64

// UnmarshalJSON implements json.Unmarshaler.
func (ids *IDs) UnmarshalJSON(data []byte) error {
	if isEmpty(data) {
		*ids = nil
		return nil
	}
	var v []int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode id list: %w", err)
	}
	*ids = v
	return nil
}

// Label is a display name. Translated fields arrive as a plain string in the
// request language, but may also arrive as the raw per-locale object.
type Label struct {
	Text         string
	Translations map[string]string
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(data []byte) error {
	*l = Label{}
	if isEmpty(data) {
		return nil
	}

	data = bytes.TrimSpace(data)
	if data[0] == '{' {
		var m map[string]String
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("decode translated label: %w", err)
		}
		l.Translations = make(map[string]string, len(m))
		for k, v := range m {
			l.Translations[k] = string(v)
		}
		return nil
	}

	var s String
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode label: %w", err)
	}
	l.Text = string(s)
	return nil
}

// Resolve returns the label for lang. Per-locale objects fall back to
// fallback; a label stored in neither is empty, as it is when the store is
// read directly.
func (l Label) Resolve(lang, fallback string) string {
	if l.Translations == nil {
		return l.Text
	}
	if v, ok := l.Translations[lang]; ok {
		return v
	}
	return l.Translations[fallback]
}

// Lead is one crm.lead record as returned by search_read with LeadFields.
type Lead struct {
	ID               int64    `json:"id"`
	Name             Label    `json:"name"`
	Type             String   `json:"type"`
	Active           Bool     `json:"active"`
	Probability      Float    `json:"probability"`
	ExpectedRevenue  Float    `json:"expected_revenue"`
	RecurringRevenue Float    `json:"recurring_revenue"`
	Priority         String   `json:"priority"`
	DateDeadline     String   `json:"date_deadline"`
	DateOpen         String   `json:"date_open"`
	DateClosed       String   `json:"date_closed"`
	DateConversion   String   `json:"date_conversion"`
	CreateDate       String   `json:"create_date"`
	WriteDate        String   `json:"write_date"`
	StageID          Many2One `json:"stage_id"`
	PartnerID        Many2One `json:"partner_id"`
	EmailFrom        String   `json:"email_from"`
	Phone            String   `json:"phone"`
	Mobile           String   `json:"mobile"`
	Function         String   `json:"function"`
	Street           String   `json:"street"`
	Street2          String   `json:"street2"`
	City             String   `json:"city"`
	Zip              String   `json:"zip"`
	CountryID        Many2One `json:"country_id"`
	PartnerName      String   `json:"partner_name"`
	ContactName      String   `json:"contact_name"`
	UserID           Many2One `json:"user_id"`
	TeamID           Many2One `json:"team_id"`
	TagIDs           IDs      `json:"tag_ids"`
	LostReasonID     Many2One `json:"lost_reason_id"`
	CampaignID       Many2One `json:"campaign_id"`
	MediumID         Many2One `json:"medium_id"`
	SourceID         Many2One `json:"source_id"`
}

// LeadFields is the field list requested for every lead.
var LeadFields = []string{
	"id", "name", "type", "active", "probability",
	"expected_revenue", "recurring_revenue", "priority",
	"date_deadline", "date_open", "date_closed", "date_conversion",
	"create_date", "write_date",
	"stage_id", "partner_id",
	"email_from", "phone", "mobile", "function",
	"street", "street2", "city", "zip", "country_id",
	"partner_name", "contact_name",
	"user_id", "team_id", "tag_ids", "lost_reason_id",
	"campaign_id", "medium_id", "source_id",
}

// Related is a record of a referenced model, read for its label.
// CountryID is only requested for partners.
type Related struct {
	ID        int64    `json:"id"`
	Name      Label    `json:"name"`
	CountryID Many2One `json:"country_id"`
}
