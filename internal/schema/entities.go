package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Entity describes a related record type: where the relational path finds it
// and which remote model the API path reads it from.
type Entity struct {
	Key         string // Stable identifier: "stage", "partner", ...
	Table       string // Relational table: "crm_stage"
	Model       string // Remote model: "crm.stage"
	LabelColumn string // Column holding the human label
}

// Well-known entity keys.
const (
	EntityLead       = "lead"
	EntityStage      = "stage"
	EntityPartner    = "partner"
	EntityCountry    = "country"
	EntityUser       = "user"
	EntityTeam       = "team"
	EntityTag        = "tag"
	EntityLostReason = "lost_reason"
	EntityCampaign   = "campaign"
	EntityMedium     = "medium"
	EntitySource     = "source"
)

var (
	registry   = make(map[string]Entity)
	registryMu sync.RWMutex
)

func init() {
	Register(Entity{Key: EntityLead, Table: "crm_lead", Model: "crm.lead", LabelColumn: "name"})
	Register(Entity{Key: EntityStage, Table: "crm_stage", Model: "crm.stage", LabelColumn: "name"})
	Register(Entity{Key: EntityPartner, Table: "res_partner", Model: "res.partner", LabelColumn: "name"})
	Register(Entity{Key: EntityCountry, Table: "res_country", Model: "res.country", LabelColumn: "name"})
	Register(Entity{Key: EntityUser, Table: "res_users", Model: "res.users", LabelColumn: "name"})
	Register(Entity{Key: EntityTeam, Table: "crm_team", Model: "crm.team", LabelColumn: "name"})
	Register(Entity{Key: EntityTag, Table: "crm_tag", Model: "crm.tag", LabelColumn: "name"})
	Register(Entity{Key: EntityLostReason, Table: "crm_lost_reason", Model: "crm.lost.reason", LabelColumn: "name"})
	Register(Entity{Key: EntityCampaign, Table: "utm_campaign", Model: "utm.campaign", LabelColumn: "name"})
	Register(Entity{Key: EntityMedium, Table: "utm_medium", Model: "utm.medium", LabelColumn: "name"})
	Register(Entity{Key: EntitySource, Table: "utm_source", Model: "utm.source", LabelColumn: "name"})
}

// Register adds an entity to the registry.
// Panics if an entity with the same key is already registered.
func Register(e Entity) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[e.Key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", e.Key))
	}
	registry[e.Key] = e
}

// Get returns an entity by key.
// Returns false if not found.
func Get(key string) (Entity, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[key]
	return e, ok
}

// MustGet returns an entity by key and panics if it is not registered.
func MustGet(key string) Entity {
	e, ok := Get(key)
	if !ok {
		panic(fmt.Sprintf("entity not registered: %s", key))
	}
	return e
}

// All returns all registered entities sorted by key.
func All() []Entity {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Entity, 0, len(registry))
	for _, e := range registry {
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// LabelTables returns the table names of every registered entity, sorted.
func LabelTables() []string {
	entities := All()
	tables := make([]string, len(entities))
	for i, e := range entities {
		tables[i] = e.Table
	}
	sort.Strings(tables)
	return tables
}
