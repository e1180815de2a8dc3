package syncing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "adorchestra/contexts/campaign-orchestration/orchestration-engine/application"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

// Service reconciles one platform mapping with its remote platform per call.
// Every sync attempt leaves a sync log; the mapping is written through the
// repository the caller passes so it can join an open transaction.
type Service struct {
	Adapters    ports.AdapterRegistry
	Connections ports.ConnectionRegistry
	SyncLogs    ports.SyncLogRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (s Service) SyncPlatformMapping(
	ctx context.Context,
	mappings ports.MappingRepository,
	mapping entities.PlatformMapping,
	syncType entities.SyncType,
) (entities.PlatformMapping, entities.SyncLog, error) {
	logger := application.ResolveLogger(s.Logger)
	if !entities.IsSupportedSyncType(syncType) {
		return mapping, entities.SyncLog{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedSyncType, syncType)
	}

	logID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return mapping, entities.SyncLog{}, err
	}
	syncLog := entities.NewSyncLog(logID, mapping, syncType, s.now())
	if err := s.SyncLogs.CreateSyncLog(ctx, syncLog); err != nil {
		return mapping, entities.SyncLog{}, err
	}
	syncLog.MarkRunning(s.now())
	if err := s.SyncLogs.UpdateSyncLog(ctx, syncLog); err != nil {
		return mapping, syncLog, err
	}

	working := mapping.Clone()
	result, syncErr := s.reconcile(ctx, &working, syncType)
	if syncErr == nil {
		working.MarkSynced(s.now())
		updated, err := mappings.UpdateMapping(ctx, working)
		if err == nil {
			syncLog.MarkCompleted(result, s.now())
			if err := s.SyncLogs.UpdateSyncLog(ctx, syncLog); err != nil {
				return updated, syncLog, err
			}
			logger.Info("platform mapping synced",
				"event", "orchestration_mapping_synced",
				"module", "campaign-orchestration/orchestration-engine",
				"layer", "application",
				"orchestration_id", mapping.OrchestrationID,
				"platform_mapping_id", mapping.PlatformMappingID,
				"platform", string(mapping.Platform),
				"sync_type", string(syncType),
				"sync_log_id", syncLog.SyncLogID,
			)
			return updated, syncLog, nil
		}
		syncErr = err
	}

	syncLog.MarkFailed(syncErr.Error(), s.now())
	if err := s.SyncLogs.UpdateSyncLog(ctx, syncLog); err != nil {
		logger.Warn("sync log update failed",
			"event", "orchestration_sync_log_update_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"sync_log_id", syncLog.SyncLogID,
			"error", err.Error(),
		)
	}

	failed := mapping.Clone()
	failed.MarkSyncFailed(syncErr.Error(), s.now())
	if domainerrors.IsRemoteCampaignGone(syncErr) {
		failed.MarkFailed(syncErr.Error(), s.now())
	}
	if updated, err := mappings.UpdateMapping(ctx, failed); err == nil {
		mapping = updated
	} else {
		logger.Warn("mapping sync flag update failed",
			"event", "orchestration_mapping_sync_flag_failed",
			"module", "campaign-orchestration/orchestration-engine",
			"layer", "application",
			"platform_mapping_id", mapping.PlatformMappingID,
			"error", err.Error(),
		)
	}
	logger.Error("platform mapping sync failed",
		"event", "orchestration_mapping_sync_failed",
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", mapping.OrchestrationID,
		"platform_mapping_id", mapping.PlatformMappingID,
		"platform", string(mapping.Platform),
		"sync_type", string(syncType),
		"mapping_status", string(mapping.Status),
		"retryable", domainerrors.IsRetryable(syncErr),
		"error", syncErr.Error(),
	)
	return mapping, syncLog, syncErr
}

// reconcile performs the remote calls and applies their outcome to mapping.
func (s Service) reconcile(ctx context.Context, mapping *entities.PlatformMapping, syncType entities.SyncType) (entities.SyncResult, error) {
	if !mapping.Deployed() {
		return entities.SyncResult{}, fmt.Errorf("%w: %s", domainerrors.ErrMappingNotDeployed, mapping.Platform)
	}
	connection, adapter, err := s.resolve(ctx, *mapping)
	if err != nil {
		return entities.SyncResult{}, err
	}

	result := entities.SyncResult{EntitiesSynced: 1}
	if syncType == entities.SyncTypeSettings || syncType == entities.SyncTypeFull {
		update, pushed := SettingsPayload(*mapping)
		if err := adapter.UpdateCampaign(ctx, connection, mapping.ExternalCampaignID, update); err != nil {
			return entities.SyncResult{}, err
		}
		result.SettingsPushed = pushed
	}
	if syncType == entities.SyncTypePerformance || syncType == entities.SyncTypeFull {
		now := s.now()
		from := mapping.CreatedAt
		if mapping.LastSyncedAt != nil {
			from = *mapping.LastSyncedAt
		}
		delta, err := adapter.FetchPerformance(ctx, connection, mapping.ExternalCampaignID, ports.DateRange{From: from, To: now})
		if err != nil {
			return entities.SyncResult{}, err
		}
		applied := mapping.ApplyDelta(delta)
		result.ChangesDetected = &applied
	}
	return result, nil
}

func (s Service) CreatePlatformCampaign(
	ctx context.Context,
	orchestration entities.Orchestration,
	mapping entities.PlatformMapping,
) (ports.RemoteCampaign, error) {
	connection, adapter, err := s.resolve(ctx, mapping)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	remote, err := adapter.CreateCampaign(ctx, connection, BuildCampaignSpec(orchestration, mapping))
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	if strings.TrimSpace(remote.ExternalID) == "" {
		return ports.RemoteCampaign{}, fmt.Errorf("%w: %s", domainerrors.ErrMissingExternalID, mapping.Platform)
	}
	s.logPassThrough("platform campaign created", "orchestration_platform_campaign_created", mapping, remote.ExternalID)
	return remote, nil
}

func (s Service) PausePlatformCampaign(ctx context.Context, mapping entities.PlatformMapping) (ports.RemoteCampaign, error) {
	connection, adapter, err := s.resolveDeployed(ctx, mapping)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	remote, err := adapter.PauseCampaign(ctx, connection, mapping.ExternalCampaignID)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	s.logPassThrough("platform campaign paused", "orchestration_platform_campaign_paused", mapping, mapping.ExternalCampaignID)
	return remote, nil
}

func (s Service) ResumePlatformCampaign(ctx context.Context, mapping entities.PlatformMapping) (ports.RemoteCampaign, error) {
	connection, adapter, err := s.resolveDeployed(ctx, mapping)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	remote, err := adapter.ResumeCampaign(ctx, connection, mapping.ExternalCampaignID)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	s.logPassThrough("platform campaign resumed", "orchestration_platform_campaign_resumed", mapping, mapping.ExternalCampaignID)
	return remote, nil
}

func (s Service) UpdatePlatformCampaign(ctx context.Context, mapping entities.PlatformMapping, update ports.CampaignUpdate) error {
	connection, adapter, err := s.resolveDeployed(ctx, mapping)
	if err != nil {
		return err
	}
	if err := adapter.UpdateCampaign(ctx, connection, mapping.ExternalCampaignID, update); err != nil {
		return err
	}
	s.logPassThrough("platform campaign updated", "orchestration_platform_campaign_updated", mapping, mapping.ExternalCampaignID)
	return nil
}

// DeletePlatformCampaign removes a remote campaign; used for compensation.
func (s Service) DeletePlatformCampaign(ctx context.Context, mapping entities.PlatformMapping, externalID string) error {
	connection, adapter, err := s.resolve(ctx, mapping)
	if err != nil {
		return err
	}
	if err := adapter.DeleteCampaign(ctx, connection, externalID); err != nil {
		return err
	}
	s.logPassThrough("platform campaign deleted", "orchestration_platform_campaign_deleted", mapping, externalID)
	return nil
}

func (s Service) resolveDeployed(ctx context.Context, mapping entities.PlatformMapping) (entities.Connection, ports.PlatformAdapter, error) {
	if !mapping.Deployed() {
		return entities.Connection{}, nil, fmt.Errorf("%w: %s", domainerrors.ErrMappingNotDeployed, mapping.Platform)
	}
	return s.resolve(ctx, mapping)
}

func (s Service) resolve(ctx context.Context, mapping entities.PlatformMapping) (entities.Connection, ports.PlatformAdapter, error) {
	connection, err := s.Connections.GetConnection(ctx, mapping.OrgID, mapping.ConnectionID)
	if err != nil {
		return entities.Connection{}, nil, fmt.Errorf("%w: %s", err, mapping.Platform)
	}
	if !connection.Active() {
		return entities.Connection{}, nil, fmt.Errorf("%w: %s", domainerrors.ErrConnectionInactive, mapping.Platform)
	}
	adapter, err := s.Adapters.Adapter(mapping.Platform)
	if err != nil {
		return entities.Connection{}, nil, err
	}
	return connection, adapter, nil
}

func (s Service) logPassThrough(message string, event string, mapping entities.PlatformMapping, externalID string) {
	application.ResolveLogger(s.Logger).Info(message,
		"event", event,
		"module", "campaign-orchestration/orchestration-engine",
		"layer", "application",
		"orchestration_id", mapping.OrchestrationID,
		"platform_mapping_id", mapping.PlatformMappingID,
		"platform", string(mapping.Platform),
		"external_campaign_id", externalID,
	)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
