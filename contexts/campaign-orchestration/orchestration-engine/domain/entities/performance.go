package entities

type PlatformPerformance struct {
	Platform           Platform
	Status             MappingStatus
	ExternalCampaignID string
	AllocatedBudget    float64
	Spend              float64
	Impressions        int64
	Clicks             int64
	Conversions        int64
	Revenue            float64
	CTR                float64
	CPC                float64
	CPA                float64
	ROAS               float64
	ConversionRate     float64
}

type AggregatedPerformance struct {
	OrchestrationID   string
	TotalBudget       *float64
	TotalAllocated    float64
	TotalSpend        float64
	TotalImpressions  int64
	TotalClicks       int64
	TotalConversions  int64
	TotalRevenue      float64
	ROAS              float64
	BudgetUtilization float64
	Platforms         []PlatformPerformance
}

// PerformanceOf derives ratio metrics for one mapping; zero denominators yield 0.
func PerformanceOf(mapping PlatformMapping) PlatformPerformance {
	metrics := mapping.Metrics
	return PlatformPerformance{
		Platform:           mapping.Platform,
		Status:             mapping.Status,
		ExternalCampaignID: mapping.ExternalCampaignID,
		AllocatedBudget:    RoundCurrency(mapping.AllocatedBudget),
		Spend:              RoundCurrency(metrics.Spend),
		Impressions:        metrics.Impressions,
		Clicks:             metrics.Clicks,
		Conversions:        metrics.Conversions,
		Revenue:            RoundCurrency(metrics.Revenue),
		CTR:                RoundRatio(SafeDivide(float64(metrics.Clicks), float64(metrics.Impressions))),
		CPC:                RoundCurrency(SafeDivide(metrics.Spend, float64(metrics.Clicks))),
		CPA:                RoundCurrency(SafeDivide(metrics.Spend, float64(metrics.Conversions))),
		ROAS:               RoundRatio(SafeDivide(metrics.Revenue, metrics.Spend)),
		ConversionRate:     RoundRatio(SafeDivide(float64(metrics.Conversions), float64(metrics.Clicks))),
	}
}

// Aggregate rolls mapping metrics up into orchestration KPIs. Platforms keep
// the orchestration's declaration order.
func Aggregate(orchestration Orchestration, mappings []PlatformMapping) AggregatedPerformance {
	ordered := orderMappings(orchestration.Platforms, mappings)
	out := AggregatedPerformance{
		OrchestrationID: orchestration.OrchestrationID,
		Platforms:       make([]PlatformPerformance, 0, len(ordered)),
	}
	if orchestration.TotalBudget != nil {
		total := *orchestration.TotalBudget
		out.TotalBudget = &total
	}
	allocated := 0.0
	for _, mapping := range ordered {
		item := PerformanceOf(mapping)
		out.Platforms = append(out.Platforms, item)
		allocated += mapping.AllocatedBudget
		out.TotalSpend += mapping.Metrics.Spend
		out.TotalImpressions += mapping.Metrics.Impressions
		out.TotalClicks += mapping.Metrics.Clicks
		out.TotalConversions += mapping.Metrics.Conversions
		out.TotalRevenue += mapping.Metrics.Revenue
	}
	out.TotalAllocated = RoundCurrency(allocated)
	out.TotalSpend = RoundCurrency(out.TotalSpend)
	out.TotalRevenue = RoundCurrency(out.TotalRevenue)
	out.ROAS = RoundRatio(SafeDivide(out.TotalRevenue, out.TotalSpend))
	out.BudgetUtilization = RoundRatio(SafeDivide(out.TotalSpend, allocated))
	return out
}

// orderMappings sorts by declared platform order; unknown platforms go last.
func orderMappings(platforms []Platform, mappings []PlatformMapping) []PlatformMapping {
	position := make(map[Platform]int, len(platforms))
	for index, platform := range platforms {
		position[platform] = index
	}
	ordered := make([]PlatformMapping, 0, len(mappings))
	trailing := make([]PlatformMapping, 0)
	buckets := make([][]PlatformMapping, len(platforms))
	for _, mapping := range mappings {
		index, ok := position[mapping.Platform]
		if !ok {
			trailing = append(trailing, mapping)
			continue
		}
		buckets[index] = append(buckets[index], mapping)
	}
	for _, bucket := range buckets {
		ordered = append(ordered, bucket...)
	}
	return append(ordered, trailing...)
}

// OrderMappings exposes declaration ordering for the workflow and service layers.
func OrderMappings(orchestration Orchestration, mappings []PlatformMapping) []PlatformMapping {
	return orderMappings(orchestration.Platforms, mappings)
}
