package entities

import "time"

type SyncType string

const (
	SyncTypeFull        SyncType = "full"
	SyncTypeSettings    SyncType = "settings"
	SyncTypePerformance SyncType = "performance"
)

func IsSupportedSyncType(value SyncType) bool {
	switch value {
	case SyncTypeFull, SyncTypeSettings, SyncTypePerformance:
		return true
	default:
		return false
	}
}

type SyncDirection string

const (
	SyncDirectionPull SyncDirection = "pull"
	SyncDirectionPush SyncDirection = "push"
)

// DirectionFor: settings pushes configuration, the other types pull performance.
func DirectionFor(syncType SyncType) SyncDirection {
	if syncType == SyncTypeSettings {
		return SyncDirectionPush
	}
	return SyncDirectionPull
}

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

type SyncResult struct {
	EntitiesSynced  int               `json:"entities_synced"`
	EntitiesFailed  int               `json:"entities_failed"`
	ChangesDetected *PerformanceDelta `json:"changes_detected,omitempty"`
	SettingsPushed  map[string]any    `json:"settings_pushed,omitempty"`
}

type SyncLog struct {
	SyncLogID         string
	OrgID             string
	OrchestrationID   string
	PlatformMappingID string
	Platform          Platform
	SyncType          SyncType
	Direction         SyncDirection
	Status            SyncStatus
	Result            SyncResult
	ErrorMessage      string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewSyncLog(id string, mapping PlatformMapping, syncType SyncType, now time.Time) SyncLog {
	return SyncLog{
		SyncLogID:         id,
		OrgID:             mapping.OrgID,
		OrchestrationID:   mapping.OrchestrationID,
		PlatformMappingID: mapping.PlatformMappingID,
		Platform:          mapping.Platform,
		SyncType:          syncType,
		Direction:         DirectionFor(syncType),
		Status:            SyncStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (l SyncLog) Terminal() bool {
	return l.Status == SyncStatusCompleted || l.Status == SyncStatusFailed
}

func (l *SyncLog) MarkRunning(now time.Time) {
	if l.Terminal() {
		return
	}
	l.Status = SyncStatusRunning
	startedAt := now
	l.StartedAt = &startedAt
	l.UpdatedAt = now
}

func (l *SyncLog) MarkCompleted(result SyncResult, now time.Time) {
	if l.Terminal() {
		return
	}
	l.Status = SyncStatusCompleted
	l.Result = result
	completedAt := now
	l.CompletedAt = &completedAt
	l.UpdatedAt = now
}

func (l *SyncLog) MarkFailed(message string, now time.Time) {
	if l.Terminal() {
		return
	}
	l.Status = SyncStatusFailed
	l.ErrorMessage = message
	l.Result = SyncResult{EntitiesSynced: 0, EntitiesFailed: 1}
	completedAt := now
	l.CompletedAt = &completedAt
	l.UpdatedAt = now
}
