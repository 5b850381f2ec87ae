package schema

// ColumnCount is the fixed width of every exported row.
const ColumnCount = 40

// LeadColumns defines the exported columns for crm.lead, in output order.
var LeadColumns = [ColumnCount]FieldSpec{
	{Name: "id", Type: FieldInteger},
	{Name: "opportunity_name", Type: FieldText},
	{Name: "type", Type: FieldText},
	{Name: "active", Type: FieldBool},
	{Name: "probability", Type: FieldFloat},
	{Name: "expected_revenue", Type: FieldFloat},
	{Name: "recurring_revenue", Type: FieldFloat},
	{Name: "priority", Type: FieldText},
	{Name: "date_deadline", Type: FieldDate},
	{Name: "date_open", Type: FieldTimestamp},
	{Name: "date_closed", Type: FieldTimestamp},
	{Name: "date_conversion", Type: FieldTimestamp},
	{Name: "create_date", Type: FieldTimestamp},
	{Name: "write_date", Type: FieldTimestamp},
	{Name: "stage_name", Type: FieldText},
	{Name: "stage_id", Type: FieldInteger},
	{Name: "partner_name", Type: FieldText},
	{Name: "partner_id", Type: FieldInteger},
	{Name: "partner_country", Type: FieldText},
	{Name: "email_from", Type: FieldText},
	{Name: "phone", Type: FieldText},
	{Name: "mobile", Type: FieldText},
	{Name: "function", Type: FieldText},
	{Name: "street", Type: FieldText},
	{Name: "street2", Type: FieldText},
	{Name: "city", Type: FieldText},
	{Name: "zip", Type: FieldText},
	{Name: "country", Type: FieldText},
	{Name: "lead_contact_name", Type: FieldText},
	{Name: "contact_name", Type: FieldText},
	{Name: "assigned_user", Type: FieldText},
	{Name: "user_id", Type: FieldInteger},
	{Name: "sales_team", Type: FieldText},
	{Name: "team_id", Type: FieldInteger},
	{Name: "tags", Type: FieldTags},
	{Name: "lost_reason", Type: FieldText},
	{Name: "lost_reason_id", Type: FieldInteger},
	{Name: "campaign", Type: FieldText},
	{Name: "medium", Type: FieldText},
	{Name: "source", Type: FieldText},
}

// Header returns the column names in output order.
func Header() []string {
	names := make([]string, ColumnCount)
	for i, spec := range LeadColumns {
		names[i] = spec.Name
	}
	return names
}

// Index returns the position of a column by name, or -1 if unknown.
func Index(name string) int {
	for i, spec := range LeadColumns {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

// MustIndex is like Index but panics on an unknown column.
// Use it only for package-level lookups of known names.
func MustIndex(name string) int {
	i := Index(name)
	if i < 0 {
		panic("schema: unknown column " + name)
	}
	return i
}
