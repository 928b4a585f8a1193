package billing

import (
	"fmt"
	"os"

	"github.com/thegridhub/backend/internal/domain/billing"
	"gopkg.in/yaml.v3"
)

// planFile is the on-disk catalog layout:
//
//	plans:
//	  - id: FREE
//	    upgrade_to: PRO
//	    limits: {max_projects: 5, max_team_members: 3, ai_suggestions_per_day: 10, storage_mb: 1024}
type planFile struct {
	Plans []struct {
		ID        string             `yaml:"id"`
		UpgradeTo string             `yaml:"upgrade_to"`
		Limits    billing.PlanLimits `yaml:"limits"`
	} `yaml:"plans"`
}

// LoadPlanCatalog builds the catalog from a YAML file, or returns the built-in
// catalog when path is empty
func LoadPlanCatalog(path string) (*billing.PlanCatalog, error) {
	if path == "" {
		return billing.DefaultPlanCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}
	return ParsePlanCatalog(data)
}

// ParsePlanCatalog builds the catalog from YAML bytes
func ParsePlanCatalog(data []byte) (*billing.PlanCatalog, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog defines no plans")
	}

	defs := make([]billing.PlanDefinition, 0, len(f.Plans))
	for _, p := range f.Plans {
		defs = append(defs, billing.PlanDefinition{
			ID:        billing.PlanID(p.ID),
			Limits:    p.Limits,
			UpgradeTo: billing.PlanID(p.UpgradeTo),
		})
	}

	catalog, err := billing.NewPlanCatalog(defs...)
	if err != nil {
		return nil, fmt.Errorf("invalid plan catalog: %w", err)
	}
	return catalog, nil
}
