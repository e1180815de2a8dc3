package platforms

import (
	"math"
	"strings"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
)

var SupportedPlatforms = []entities.Platform{
	entities.PlatformMeta,
	entities.PlatformGoogle,
	entities.PlatformTikTok,
	entities.PlatformLinkedIn,
	entities.PlatformTwitter,
	entities.PlatformSnapchat,
}

const DefaultObjective = "AWARENESS"

type statusPair struct {
	active string
	paused string
}

var nativeStatuses = map[entities.Platform]statusPair{
	entities.PlatformMeta:     {active: "ACTIVE", paused: "PAUSED"},
	entities.PlatformGoogle:   {active: "ENABLED", paused: "PAUSED"},
	entities.PlatformTikTok:   {active: "ENABLE", paused: "DISABLE"},
	entities.PlatformLinkedIn: {active: "ACTIVE", paused: "PAUSED"},
	entities.PlatformTwitter:  {active: "ACTIVE", paused: "PAUSED"},
	entities.PlatformSnapchat: {active: "ACTIVE", paused: "PAUSED"},
}

var objectiveMaps = map[entities.Platform]map[string]string{
	entities.PlatformMeta: {
		"AWARENESS":   "OUTCOME_AWARENESS",
		"TRAFFIC":     "OUTCOME_TRAFFIC",
		"ENGAGEMENT":  "OUTCOME_ENGAGEMENT",
		"LEADS":       "OUTCOME_LEADS",
		"CONVERSIONS": "OUTCOME_SALES",
		"SALES":       "OUTCOME_SALES",
	},
	entities.PlatformGoogle: {
		"AWARENESS":   "DISPLAY",
		"TRAFFIC":     "SEARCH",
		"ENGAGEMENT":  "VIDEO",
		"LEADS":       "SEARCH",
		"CONVERSIONS": "PERFORMANCE_MAX",
		"SALES":       "SHOPPING",
	},
	entities.PlatformTikTok: {
		"AWARENESS":   "REACH",
		"TRAFFIC":     "TRAFFIC",
		"ENGAGEMENT":  "ENGAGEMENT",
		"LEADS":       "LEAD_GENERATION",
		"CONVERSIONS": "CONVERSIONS",
		"SALES":       "PRODUCT_SALES",
	},
}

// ActiveStatus is the platform's native "running" status string.
func ActiveStatus(platform entities.Platform) string {
	if pair, ok := nativeStatuses[platform]; ok {
		return pair.active
	}
	return "ACTIVE"
}

func PausedStatus(platform entities.Platform) string {
	if pair, ok := nativeStatuses[platform]; ok {
		return pair.paused
	}
	return "PAUSED"
}

// MinorUnitFactor: google budgets are micros, everything else cents.
func MinorUnitFactor(platform entities.Platform) float64 {
	if platform == entities.PlatformGoogle {
		return 1_000_000
	}
	return 100
}

func ToMinorUnits(platform entities.Platform, amount float64) int64 {
	return int64(math.Round(amount * MinorUnitFactor(platform)))
}

func FromMinorUnits(platform entities.Platform, amount int64) float64 {
	return entities.RoundCurrency(float64(amount) / MinorUnitFactor(platform))
}

// NativeObjective translates a neutral objective; unknown values pass through.
func NativeObjective(platform entities.Platform, objective string) string {
	key := strings.ToUpper(strings.TrimSpace(objective))
	if key == "" {
		key = DefaultObjective
	}
	if mapped, ok := objectiveMaps[platform][key]; ok {
		return mapped
	}
	return key
}
