package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thegridhub/backend/internal/domain/shared"
)

// Unlimited marks a plan limit that is never enforced
const Unlimited int64 = -1

// PlanID identifies a subscription plan
type PlanID string

const (
	PlanFree PlanID = "FREE"
	PlanPro  PlanID = "PRO"
)

// String returns the string representation of PlanID
func (p PlanID) String() string {
	return string(p)
}

// PlanLimits holds the numeric limits of a plan. A value of Unlimited disables the limit.
type PlanLimits struct {
	MaxProjects         int64 `json:"maxProjects" yaml:"max_projects"`
	MaxTeamMembers      int64 `json:"maxTeamMembers" yaml:"max_team_members"`
	AISuggestionsPerDay int64 `json:"aiSuggestionsPerDay" yaml:"ai_suggestions_per_day"`
	StorageMB           int64 `json:"storageMB" yaml:"storage_mb"`
}

// Validate checks that every limit is either Unlimited or non-negative
func (l PlanLimits) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"max_projects", l.MaxProjects},
		{"max_team_members", l.MaxTeamMembers},
		{"ai_suggestions_per_day", l.AISuggestionsPerDay},
		{"storage_mb", l.StorageMB},
	}
	for _, f := range fields {
		if f.value < Unlimited {
			return shared.NewDomainError("INVALID_PLAN_LIMIT",
				fmt.Sprintf("%s must be -1 or non-negative, got %d", f.name, f.value))
		}
	}
	return nil
}

// IsUnlimited reports whether a single limit value is unlimited
func IsUnlimited(limit int64) bool {
	return limit == Unlimited
}

// PlanCatalog is an immutable plan -> limits table.
// Build it once at startup and pass it to the components that enforce limits.
type PlanCatalog struct {
	plans    map[PlanID]PlanLimits
	upgrades map[PlanID]PlanID
	fallback PlanID
}

// PlanDefinition describes one catalog entry
type PlanDefinition struct {
	ID        PlanID
	Limits    PlanLimits
	UpgradeTo PlanID
}

// NewPlanCatalog creates a catalog from plan definitions. The FREE plan is required and is
// used as the fallback for missing or unknown plan identifiers.
func NewPlanCatalog(defs ...PlanDefinition) (*PlanCatalog, error) {
	c := &PlanCatalog{
		plans:    make(map[PlanID]PlanLimits, len(defs)),
		upgrades: make(map[PlanID]PlanID, len(defs)),
		fallback: PlanFree,
	}

	for _, d := range defs {
		id := PlanID(strings.ToUpper(strings.TrimSpace(string(d.ID))))
		if id == "" {
			return nil, shared.NewDomainError("INVALID_PLAN", "Plan identifier cannot be empty")
		}
		if _, dup := c.plans[id]; dup {
			return nil, shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Duplicate plan %s", id))
		}
		if err := d.Limits.Validate(); err != nil {
			return nil, err
		}
		c.plans[id] = d.Limits
		if d.UpgradeTo != "" {
			c.upgrades[id] = PlanID(strings.ToUpper(string(d.UpgradeTo)))
		}
	}

	if _, ok := c.plans[PlanFree]; !ok {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan catalog must define FREE")
	}
	for from, to := range c.upgrades {
		if _, ok := c.plans[to]; !ok {
			return nil, shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Plan %s upgrades to unknown plan %s", from, to))
		}
	}

	return c, nil
}

// DefaultPlanCatalog returns the built-in FREE/PRO table
func DefaultPlanCatalog() *PlanCatalog {
	c, err := NewPlanCatalog(DefaultPlanDefinitions()...)
	if err != nil {
		// built-in definitions are static
		panic(err)
	}
	return c
}

// DefaultPlanDefinitions returns the built-in plan definitions
func DefaultPlanDefinitions() []PlanDefinition {
	return []PlanDefinition{
		{
			ID: PlanFree,
			Limits: PlanLimits{
				MaxProjects:         5,
				MaxTeamMembers:      3,
				AISuggestionsPerDay: 10,
				StorageMB:           1024,
			},
			UpgradeTo: PlanPro,
		},
		{
			ID: PlanPro,
			Limits: PlanLimits{
				MaxProjects:         Unlimited,
				MaxTeamMembers:      Unlimited,
				AISuggestionsPerDay: Unlimited,
				StorageMB:           102400,
			},
		},
	}
}

// Resolve maps a raw plan value from a tenant record to a known plan.
// Missing and unknown values resolve to FREE.
func (c *PlanCatalog) Resolve(raw string) PlanID {
	id := PlanID(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := c.plans[id]; ok {
		return id
	}
	return c.fallback
}

// Limits returns the limits of a plan, or the FREE limits when the plan is unknown
func (c *PlanCatalog) Limits(plan PlanID) PlanLimits {
	if l, ok := c.plans[plan]; ok {
		return l
	}
	return c.plans[c.fallback]
}

// UpgradeTarget returns the plan suggested when a limit of the given plan is hit
func (c *PlanCatalog) UpgradeTarget(plan PlanID) (PlanID, bool) {
	to, ok := c.upgrades[plan]
	return to, ok
}

// Plans returns the catalog plan identifiers in stable order
func (c *PlanCatalog) Plans() []PlanID {
	ids := make([]PlanID, 0, len(c.plans))
	for id := range c.plans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
