package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"

	"gorm.io/gorm"
)

var (
	terminalWorkflowStatuses = []string{string(entities.WorkflowStatusCompleted), string(entities.WorkflowStatusFailed)}
	terminalSyncStatuses     = []string{string(entities.SyncStatusCompleted), string(entities.SyncStatusFailed)}
)

func (r *Repository) CreateWorkflow(ctx context.Context, workflow entities.Workflow) error {
	row, err := workflowModelFromEntity(workflow)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrchestrationInput
		}
		return err
	}
	return nil
}

// UpdateWorkflow refuses to rewrite a workflow that already reached a
// terminal status.
func (r *Repository) UpdateWorkflow(ctx context.Context, workflow entities.Workflow) error {
	row, err := workflowModelFromEntity(workflow)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&workflowModel{}).
		Where("workflow_id = ? AND status NOT IN ?", row.WorkflowID, terminalWorkflowStatuses).
		Updates(map[string]any{
			"steps":         row.Steps,
			"total_steps":   row.TotalSteps,
			"current_step":  row.CurrentStep,
			"status":        row.Status,
			"execution_log": row.ExecutionLog,
			"error_message": row.ErrorMessage,
			"started_at":    row.StartedAt,
			"completed_at":  row.CompletedAt,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&workflowModel{}).Where("workflow_id = ?", row.WorkflowID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrWorkflowNotFound
		}
		return domainerrors.ErrInvalidStateTransition
	}
	return nil
}

func (r *Repository) GetWorkflow(ctx context.Context, orgID string, workflowID string) (entities.Workflow, error) {
	var row workflowModel
	err := r.db.WithContext(ctx).
		Where("workflow_id = ? AND org_id = ?", strings.TrimSpace(workflowID), strings.TrimSpace(orgID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Workflow{}, domainerrors.ErrWorkflowNotFound
		}
		return entities.Workflow{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListWorkflows(ctx context.Context, orgID string, orchestrationID string) ([]entities.Workflow, error) {
	var rows []workflowModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND orchestration_id = ?", strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID)).
		Order("created_at ASC").
		Order("workflow_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Workflow, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CreateSyncLog(ctx context.Context, log entities.SyncLog) error {
	row, err := syncLogModelFromEntity(log)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrchestrationInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateSyncLog(ctx context.Context, log entities.SyncLog) error {
	row, err := syncLogModelFromEntity(log)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&syncLogModel{}).
		Where("sync_log_id = ? AND status NOT IN ?", row.SyncLogID, terminalSyncStatuses).
		Updates(map[string]any{
			"status":        row.Status,
			"result":        row.Result,
			"error_message": row.ErrorMessage,
			"started_at":    row.StartedAt,
			"completed_at":  row.CompletedAt,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&syncLogModel{}).Where("sync_log_id = ?", row.SyncLogID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrInvalidOrchestrationInput
		}
		return domainerrors.ErrInvalidStateTransition
	}
	return nil
}

func (r *Repository) ListSyncLogs(ctx context.Context, orgID string, orchestrationID string, limit int) ([]entities.SyncLog, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND orchestration_id = ?", strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID)).
		Order("created_at DESC").
		Order("sync_log_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []syncLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.SyncLog, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
