package entities

import (
	"strings"
	"time"
)

type MappingStatus string

const (
	MappingStatusPending  MappingStatus = "pending"
	MappingStatusCreating MappingStatus = "creating"
	MappingStatusActive   MappingStatus = "active"
	MappingStatusPaused   MappingStatus = "paused"
	MappingStatusFailed   MappingStatus = "failed"
)

type MappingSyncStatus string

const (
	MappingSyncStatusNever  MappingSyncStatus = "never"
	MappingSyncStatusSynced MappingSyncStatus = "synced"
	MappingSyncStatusFailed MappingSyncStatus = "failed"
)

// PlatformConfig is copied from the template at creation; Extra is passed to the platform as-is.
type PlatformConfig struct {
	CampaignName string         `json:"campaign_name,omitempty"`
	Objective    string         `json:"objective,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

func (c PlatformConfig) Clone() PlatformConfig {
	out := c
	out.Extra = copyExtra(c.Extra)
	return out
}

// PerformanceDelta is an incremental snapshot returned by a platform fetch.
type PerformanceDelta struct {
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

type Metrics struct {
	Spend       float64
	Impressions int64
	Clicks      int64
	Conversions int64
	Revenue     float64
}

type PlatformMapping struct {
	PlatformMappingID    string
	OrgID                string
	OrchestrationID      string
	ConnectionID         string
	Platform             Platform
	Status               MappingStatus
	PlatformConfig       PlatformConfig
	AllocatedBudget      float64
	ExternalCampaignID   string
	ExternalCampaignName string
	LastSyncedAt         *time.Time
	SyncStatus           MappingSyncStatus
	SyncError            string
	FailureReason        string
	Metrics              Metrics
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (m PlatformMapping) Deployed() bool {
	return strings.TrimSpace(m.ExternalCampaignID) != ""
}

func (m *PlatformMapping) MarkCreating(now time.Time) {
	m.Status = MappingStatusCreating
	m.UpdatedAt = now
}

func (m *PlatformMapping) MarkActive(externalID string, externalName string, now time.Time) {
	m.Status = MappingStatusActive
	m.ExternalCampaignID = strings.TrimSpace(externalID)
	if name := strings.TrimSpace(externalName); name != "" {
		m.ExternalCampaignName = name
	}
	m.FailureReason = ""
	m.UpdatedAt = now
}

func (m *PlatformMapping) MarkPaused(now time.Time) {
	m.Status = MappingStatusPaused
	m.UpdatedAt = now
}

func (m *PlatformMapping) MarkFailed(reason string, now time.Time) {
	m.Status = MappingStatusFailed
	m.FailureReason = strings.TrimSpace(reason)
	m.UpdatedAt = now
}

// ApplyDelta adds an incremental snapshot; negative components are ignored so
// counters never decrease.
func (m *PlatformMapping) ApplyDelta(delta PerformanceDelta) PerformanceDelta {
	applied := PerformanceDelta{
		Spend:       RoundCurrency(nonNegativeFloat(delta.Spend)),
		Impressions: nonNegativeInt(delta.Impressions),
		Clicks:      nonNegativeInt(delta.Clicks),
		Conversions: nonNegativeInt(delta.Conversions),
		Revenue:     RoundCurrency(nonNegativeFloat(delta.Revenue)),
	}
	m.Metrics.Spend = RoundCurrency(m.Metrics.Spend + applied.Spend)
	m.Metrics.Impressions += applied.Impressions
	m.Metrics.Clicks += applied.Clicks
	m.Metrics.Conversions += applied.Conversions
	m.Metrics.Revenue = RoundCurrency(m.Metrics.Revenue + applied.Revenue)
	return applied
}

func (m *PlatformMapping) MarkSynced(now time.Time) {
	syncedAt := now
	m.LastSyncedAt = &syncedAt
	m.SyncStatus = MappingSyncStatusSynced
	m.SyncError = ""
	m.UpdatedAt = now
}

func (m *PlatformMapping) MarkSyncFailed(reason string, now time.Time) {
	m.SyncStatus = MappingSyncStatusFailed
	m.SyncError = strings.TrimSpace(reason)
	m.UpdatedAt = now
}

// IdempotencyKey is stable across workflow retries for the same mapping.
func (m PlatformMapping) IdempotencyKey() string {
	return "orchestration:" + m.OrchestrationID + ":mapping:" + m.PlatformMappingID
}

func (m PlatformMapping) Clone() PlatformMapping {
	out := m
	out.PlatformConfig = m.PlatformConfig.Clone()
	if m.LastSyncedAt != nil {
		syncedAt := *m.LastSyncedAt
		out.LastSyncedAt = &syncedAt
	}
	return out
}

func nonNegativeFloat(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

func nonNegativeInt(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}
