package odootest

import "fmt"

func tr(en, es string) map[string]string {
	return map[string]string{"en_US": en, "es_ES": es}
}

// SampleDataset returns a small CRM covering the formatting edge cases:
// translated labels, archived and lost leads, tags assigned in different
// orders and with duplicates, decomposed accents, quotes, commas, embedded
// newlines, padded text, whole and fractional floats, and unset references.
func SampleDataset() Dataset {
	return Dataset{
		Models: map[string][]Record{
			CountryModel: {
				{ID: 1, Translations: tr("Spain", "España")},
				{ID: 2, Translations: tr("Mexico", "México")},
				{ID: 3, Translations: tr("United States", "Estados Unidos")},
			},
			StageModel: {
				{ID: 1, Translations: tr("New", "Nuevo")},
				{ID: 2, Translations: tr("Qualified", "Calificado")},
				{ID: 3, Translations: tr("Won", "Ganado")},
			},
			PartnerModel: {
				{ID: 10, Name: "Acme Corp", CountryID: 1},
				{ID: 11, Name: "Jose\u0301 Nu\u0301n\u0303ez", CountryID: 2},
				{ID: 12, Name: "Globex"},
				{ID: 20, Name: "Mitchell Admin", CountryID: 3},
				{ID: 21, Name: "Marc Demo"},
			},
			UserModel: {
				{ID: 2, PartnerID: 20},
				{ID: 6, PartnerID: 21},
			},
			TeamModel: {
				{ID: 1, Translations: tr("Sales", "Ventas")},
				{ID: 2, Translations: map[string]string{"en_US": "Website"}},
			},
			TagModel: {
				{ID: 1, Translations: map[string]string{"en_US": "VIP"}},
				{ID: 2, Translations: map[string]string{"en_US": "Referido"}},
				{ID: 3, Translations: map[string]string{"en_US": "Corporativo"}},
				{ID: 4, Translations: map[string]string{"en_US": "  VIP\t"}},
				{ID: 5, Translations: map[string]string{"en_US": " "}},
				{ID: 6, Translations: tr("Coffee", "Café")},
				{ID: 7, Translations: tr("Coffee ", "Cafe\u0301")},
			},
			LostReasonModel: {
				{ID: 1, Translations: tr("Too expensive", "Demasiado caro")},
			},
			CampaignModel: {
				{ID: 1, Name: "Spring Sale"},
			},
			MediumModel: {
				{ID: 1, Name: "Email"},
				{ID: 2, Name: "Phone"},
			},
			SourceModel: {
				{ID: 1, Name: "Newsletter"},
				{ID: 2, Name: "Search engine"},
			},
		},
		Leads: []Lead{
			{
				ID: 1, Name: "Big deal", Type: "opportunity", Active: true,
				Probability: 100, ExpectedRevenue: 10000, Priority: "2",
				DateDeadline: "2024-06-30", DateOpen: "2024-01-15 09:30:00",
				DateConversion: "2024-01-20 08:00:00",
				CreateDate:     "2024-01-15 09:00:00", WriteDate: "2024-02-01 12:00:00",
				StageID: 2, PartnerID: 10,
				EmailFrom: " sales@acme.example ", Phone: "+34 600 000 000",
				Function: "CEO", Street: "Gran Vía 1", City: "Madrid", Zip: "28001",
				CountryID: 1, PartnerName: "Acme Corp", ContactName: "Ana",
				UserID: 2, TeamID: 1, TagIDs: []int64{1, 2, 3},
				CampaignID: 1, MediumID: 1, SourceID: 1,
			},
			{
				ID: 2, Name: `Referral from "Globex", Inc.`, Type: "lead", Active: true,
				Probability: 42.3, ExpectedRevenue: 2500.5, RecurringRevenue: 99.99, Priority: "1",
				CreateDate: "2024-02-10 14:15:16.123456", WriteDate: "2024-02-10 14:15:16",
				StageID: 1, PartnerID: 12,
				Mobile: "555-0100", Street: "Calle Mayor 1\nPiso 2",
				CountryID: 2, UserID: 6, TeamID: 2, TagIDs: []int64{3, 1, 2},
				MediumID: 2, SourceID: 2,
			},
			{
				ID: 3, Name: "Jose\u0301's lead", Type: "opportunity", Active: false,
				Priority: "0", DateClosed: "2024-03-01 10:00:00",
				CreateDate: "2024-02-20 08:00:00", WriteDate: "2024-03-01 10:00:00",
				StageID: 1, PartnerID: 11, ContactName: "Mari\u0301a",
				City: "\tGuadalajara\r\n", TagIDs: []int64{4, 1},
				LostReasonID: 1,
			},
			{
				ID: 4, Name: "Empty", Type: "lead", Active: true, Priority: "0",
				CreateDate: "2024-03-05 00:00:00", WriteDate: "2024-03-05 00:00:00",
			},
			{
				ID: 5, Name: "   ", Type: "opportunity", Active: true, Priority: "3",
				Probability: 0.1, ExpectedRevenue: 1e21, RecurringRevenue: 0.30000000000000004,
				CreateDate: "2024-03-06 11:11:11", WriteDate: "2024-03-06 11:11:11",
				StageID: 3, UserID: 2, TeamID: 1, TagIDs: []int64{7, 6, 5},
			},
			{
				ID: 6, Name: "Archived won", Type: "opportunity", Active: false,
				Probability: 100, ExpectedRevenue: 750, Priority: "1",
				DateClosed: "2024-04-01 16:45:00",
				CreateDate: "2024-03-10 09:00:00", WriteDate: "2024-04-01 16:45:00",
				StageID: 3, PartnerID: 10, CountryID: 3, UserID: 6, TeamID: 2,
				TagIDs: []int64{2}, CampaignID: 1,
			},
		},
	}
}

// GeneratedDataset extends SampleDataset with n synthetic leads whose ids
// follow the sample's and whose references cycle through its records.
func GeneratedDataset(n int) Dataset {
	d := SampleDataset()
	base := int64(len(d.Leads))
	for i := int64(1); i <= int64(n); i++ {
		id := base + i
		d.Leads = append(d.Leads, Lead{
			ID:              id,
			Name:            fmt.Sprintf("Generated lead %d", id),
			Type:            "lead",
			Active:          id%7 != 0,
			Probability:     float64(id%101) + 0.5,
			ExpectedRevenue: float64(id) * 10,
			Priority:        fmt.Sprint(id % 4),
			CreateDate:      "2024-05-01 00:00:00",
			WriteDate:       "2024-05-02 00:00:00",
			StageID:         id%3 + 1,
			PartnerID:       []int64{10, 11, 12}[id%3],
			UserID:          []int64{2, 6}[id%2],
			TeamID:          id%2 + 1,
			CountryID:       id%3 + 1,
			TagIDs:          []int64{id%7 + 1, (id+3)%7 + 1},
			SourceID:        id%2 + 1,
		})
	}
	return d
}
