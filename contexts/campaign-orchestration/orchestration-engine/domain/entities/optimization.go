package entities

import (
	"fmt"
	"math"
	"sort"
)

const (
	MaxBudgetIncrease  = 0.30
	MaxBudgetDecrease  = 0.25
	MinBudgetThreshold = 10.0

	CrossPlatform = "cross_platform"
)

type thresholds struct {
	poor, fair, good, excellent float64
}

var (
	ctrThresholds            = thresholds{poor: 0.5, fair: 1.0, good: 2.0, excellent: 4.0}
	cpcThresholds            = thresholds{excellent: 0.5, good: 1.0, fair: 2.0, poor: 3.0}
	roasThresholds           = thresholds{poor: 1.0, fair: 2.0, good: 3.0, excellent: 5.0}
	conversionRateThresholds = thresholds{poor: 0.5, fair: 1.0, good: 2.0, excellent: 4.0}
)

type PerformanceRating string

const (
	RatingExcellent PerformanceRating = "excellent"
	RatingGood      PerformanceRating = "good"
	RatingFair      PerformanceRating = "fair"
	RatingPoor      PerformanceRating = "poor"
	RatingCritical  PerformanceRating = "critical"
)

// ScoredMetrics uses percentages for CTR and conversion rate.
type ScoredMetrics struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	Spend          float64 `json:"spend"`
	Revenue        float64 `json:"revenue"`
	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	ConversionRate float64 `json:"conversion_rate"`
	CPA            float64 `json:"cpa"`
	ROAS           float64 `json:"roas"`
}

type PlatformScore struct {
	Platform        Platform          `json:"platform"`
	Score           int               `json:"score"`
	Rating          PerformanceRating `json:"rating"`
	Metrics         ScoredMetrics     `json:"metrics"`
	AllocatedBudget float64           `json:"allocated_budget"`
}

type PerformanceAnalysis struct {
	PlatformScores    []PlatformScore `json:"platform_scores"`
	OverallScore      float64         `json:"overall_score"`
	TotalSpend        float64         `json:"total_spend"`
	TotalRevenue      float64         `json:"total_revenue"`
	ROAS              float64         `json:"roas"`
	BudgetUtilization float64         `json:"budget_utilization"`
}

type RecommendationPriority string

const (
	PriorityCritical RecommendationPriority = "critical"
	PriorityHigh     RecommendationPriority = "high"
	PriorityMedium   RecommendationPriority = "medium"
	PriorityLow      RecommendationPriority = "low"
)

var priorityRank = map[RecommendationPriority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

type Recommendation struct {
	Platform         string                 `json:"platform"`
	Type             string                 `json:"type"`
	Priority         RecommendationPriority `json:"priority"`
	Action           string                 `json:"action"`
	Reason           string                 `json:"reason"`
	BudgetAdjustment *float64               `json:"budget_adjustment,omitempty"`
	FromPlatform     Platform               `json:"from_platform,omitempty"`
	ToPlatform       Platform               `json:"to_platform,omitempty"`
	SuggestedPercent float64                `json:"suggested_amount_pct,omitempty"`
}

type AppliedOptimization struct {
	Platform      Platform `json:"platform"`
	Action        string   `json:"action"`
	OldBudget     float64  `json:"old_budget"`
	NewBudget     float64  `json:"new_budget"`
	AdjustmentPct float64  `json:"adjustment_pct"`
	Reason        string   `json:"reason"`
}

func ScoreMetricsOf(mapping PlatformMapping) ScoredMetrics {
	m := mapping.Metrics
	return ScoredMetrics{
		Impressions:    m.Impressions,
		Clicks:         m.Clicks,
		Conversions:    m.Conversions,
		Spend:          RoundCurrency(m.Spend),
		Revenue:        RoundCurrency(m.Revenue),
		CTR:            RoundCurrency(SafeDivide(float64(m.Clicks), float64(m.Impressions)) * 100),
		CPC:            RoundCurrency(SafeDivide(m.Spend, float64(m.Clicks))),
		ConversionRate: RoundCurrency(SafeDivide(float64(m.Conversions), float64(m.Clicks)) * 100),
		CPA:            RoundCurrency(SafeDivide(m.Spend, float64(m.Conversions))),
		ROAS:           RoundCurrency(SafeDivide(m.Revenue, m.Spend)),
	}
}

// Score is 50 plus threshold bonuses, clamped to [0, 100].
func Score(metrics ScoredMetrics) int {
	score := 50
	score += ascendingBonus(metrics.CTR, ctrThresholds, 5, 10, 15, 20)
	if metrics.CPC > 0 {
		switch {
		case metrics.CPC <= cpcThresholds.excellent:
			score += 15
		case metrics.CPC <= cpcThresholds.good:
			score += 12
		case metrics.CPC <= cpcThresholds.fair:
			score += 8
		case metrics.CPC <= cpcThresholds.poor:
			score += 4
		}
	}
	score += ascendingBonus(metrics.ROAS, roasThresholds, 10, 15, 20, 25)
	score += ascendingBonus(metrics.ConversionRate, conversionRateThresholds, 4, 8, 12, 15)
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func ascendingBonus(value float64, t thresholds, poor, fair, good, excellent int) int {
	switch {
	case value >= t.excellent:
		return excellent
	case value >= t.good:
		return good
	case value >= t.fair:
		return fair
	case value >= t.poor:
		return poor
	default:
		return 0
	}
}

func RatingFor(score int) PerformanceRating {
	switch {
	case score >= 85:
		return RatingExcellent
	case score >= 70:
		return RatingGood
	case score >= 55:
		return RatingFair
	case score >= 40:
		return RatingPoor
	default:
		return RatingCritical
	}
}

func AnalyzePerformance(orchestration Orchestration, mappings []PlatformMapping) PerformanceAnalysis {
	ordered := OrderMappings(orchestration, mappings)
	aggregate := Aggregate(orchestration, ordered)
	analysis := PerformanceAnalysis{
		PlatformScores:    make([]PlatformScore, 0, len(ordered)),
		TotalSpend:        aggregate.TotalSpend,
		TotalRevenue:      aggregate.TotalRevenue,
		ROAS:              aggregate.ROAS,
		BudgetUtilization: aggregate.BudgetUtilization,
	}
	total := 0
	for _, mapping := range ordered {
		metrics := ScoreMetricsOf(mapping)
		score := Score(metrics)
		total += score
		analysis.PlatformScores = append(analysis.PlatformScores, PlatformScore{
			Platform:        mapping.Platform,
			Score:           score,
			Rating:          RatingFor(score),
			Metrics:         metrics,
			AllocatedBudget: mapping.AllocatedBudget,
		})
	}
	if len(analysis.PlatformScores) > 0 {
		analysis.OverallScore = math.Round(float64(total)/float64(len(analysis.PlatformScores))*10) / 10
	}
	return analysis
}

func GenerateRecommendations(analysis PerformanceAnalysis) []Recommendation {
	out := make([]Recommendation, 0)
	for _, item := range analysis.PlatformScores {
		platform := string(item.Platform)
		metrics := item.Metrics
		if metrics.CTR < ctrThresholds.fair {
			out = append(out, Recommendation{
				Platform: platform,
				Type:     "creative",
				Priority: PriorityHigh,
				Action:   "improve_creative",
				Reason:   fmt.Sprintf("CTR is %.2f%%, below fair threshold of %.1f%%", metrics.CTR, ctrThresholds.fair),
			})
		}
		if metrics.CPC > cpcThresholds.fair {
			out = append(out, Recommendation{
				Platform: platform,
				Type:     "bidding",
				Priority: PriorityHigh,
				Action:   "reduce_cpc",
				Reason:   fmt.Sprintf("CPC is $%.2f, above fair threshold of $%.2f", metrics.CPC, cpcThresholds.fair),
			})
		}
		if metrics.ROAS > 0 && metrics.ROAS < roasThresholds.fair {
			out = append(out, Recommendation{
				Platform:         platform,
				Type:             "budget",
				Priority:         PriorityHigh,
				Action:           "reduce_budget",
				Reason:           fmt.Sprintf("ROAS is %.2fx, below fair threshold of %.1fx", metrics.ROAS, roasThresholds.fair),
				BudgetAdjustment: adjustment(-0.2),
			})
		}
		if item.Score >= 80 && metrics.ROAS >= roasThresholds.good {
			out = append(out, Recommendation{
				Platform:         platform,
				Type:             "scaling",
				Priority:         PriorityMedium,
				Action:           "increase_budget",
				Reason:           fmt.Sprintf("Score is %d/100 with ROAS of %.2fx", item.Score, metrics.ROAS),
				BudgetAdjustment: adjustment(0.25),
			})
		}
		if metrics.Clicks > 50 && metrics.ConversionRate < conversionRateThresholds.fair {
			out = append(out, Recommendation{
				Platform: platform,
				Type:     "targeting",
				Priority: PriorityMedium,
				Action:   "improve_targeting",
				Reason:   fmt.Sprintf("Conversion rate is %.2f%% with %d clicks", metrics.ConversionRate, metrics.Clicks),
			})
		}
		if item.Score < 40 && metrics.Spend > 100 {
			out = append(out, Recommendation{
				Platform:         platform,
				Type:             "critical",
				Priority:         PriorityCritical,
				Action:           "pause_or_overhaul",
				Reason:           fmt.Sprintf("Critical score (%d/100) with $%.2f spent", item.Score, metrics.Spend),
				BudgetAdjustment: adjustment(-0.5),
			})
		}
	}
	if len(analysis.PlatformScores) > 1 {
		if rec, ok := reallocationRecommendation(analysis.PlatformScores); ok {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	return out
}

func reallocationRecommendation(scores []PlatformScore) (Recommendation, bool) {
	best, worst := scores[0], scores[0]
	for _, item := range scores[1:] {
		if item.Score > best.Score {
			best = item
		}
		if item.Score < worst.Score {
			worst = item
		}
	}
	if best.Platform == worst.Platform || best.Score-worst.Score <= 20 {
		return Recommendation{}, false
	}
	return Recommendation{
		Platform:         CrossPlatform,
		Type:             "reallocation",
		Priority:         PriorityMedium,
		Action:           "reallocate_budget",
		Reason:           fmt.Sprintf("Performance gap: %s (%d) vs %s (%d)", best.Platform, best.Score, worst.Platform, worst.Score),
		FromPlatform:     worst.Platform,
		ToPlatform:       best.Platform,
		SuggestedPercent: 15,
	}, true
}

// PlanOptimizations computes the budget changes auto-optimization would apply.
// Cross-platform and adjustment-less recommendations are never auto-applied.
func PlanOptimizations(allocation map[Platform]float64, recommendations []Recommendation) (map[Platform]float64, []AppliedOptimization) {
	next := make(map[Platform]float64, len(allocation))
	for platform, amount := range allocation {
		next[platform] = amount
	}
	applied := make([]AppliedOptimization, 0)
	for _, rec := range recommendations {
		if rec.Platform == CrossPlatform || rec.BudgetAdjustment == nil {
			continue
		}
		platform := Platform(rec.Platform)
		current := next[platform]
		if current <= 0 {
			continue
		}
		change := *rec.BudgetAdjustment
		if change > 0 {
			change = math.Min(change, MaxBudgetIncrease)
		} else {
			change = math.Max(change, -MaxBudgetDecrease)
		}
		updated := current * (1 + change)
		if updated < MinBudgetThreshold && change < 0 {
			updated = MinBudgetThreshold
		}
		updated = RoundCurrency(updated)
		next[platform] = updated
		applied = append(applied, AppliedOptimization{
			Platform:      platform,
			Action:        rec.Action,
			OldBudget:     current,
			NewBudget:     updated,
			AdjustmentPct: math.Round(change*1000) / 10,
			Reason:        rec.Reason,
		})
	}
	return next, applied
}

func adjustment(value float64) *float64 {
	return &value
}
