package entities

// Template is a catalog entry used to instantiate orchestrations.
type Template struct {
	TemplateID         string
	OrgID              string
	Name               string
	Description        string
	Platforms          []Platform
	BaseConfig         OrchestrationConfig
	Distribution       map[Platform]float64
	PlatformConfigs    map[Platform]PlatformConfig
	DefaultTotalBudget *float64
	UsageCount         int64
	IsActive           bool
}

func (t Template) BudgetDistribution() map[Platform]float64 {
	out := make(map[Platform]float64, len(t.Distribution))
	for platform, percent := range t.Distribution {
		out[platform] = percent
	}
	return out
}

func (t Template) PlatformConfig(platform Platform) PlatformConfig {
	config, ok := t.PlatformConfigs[platform]
	if !ok {
		return PlatformConfig{}
	}
	return config.Clone()
}

// AvailableTo: org-less templates are global.
func (t Template) AvailableTo(orgID string) bool {
	return t.IsActive && (t.OrgID == "" || t.OrgID == orgID)
}
