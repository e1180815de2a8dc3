package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) FindActiveConnection(
	ctx context.Context,
	orgID string,
	platform entities.Platform,
) (entities.Connection, bool, error) {
	var row connectionModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND platform = ? AND is_active = ?", strings.TrimSpace(orgID), string(platform), true).
		Order("connection_id ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Connection{}, false, nil
		}
		return entities.Connection{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetConnection(ctx context.Context, orgID string, connectionID string) (entities.Connection, error) {
	var row connectionModel
	err := r.db.WithContext(ctx).
		Where("connection_id = ? AND org_id = ?", strings.TrimSpace(connectionID), strings.TrimSpace(orgID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Connection{}, domainerrors.ErrConnectionNotFound
		}
		return entities.Connection{}, err
	}
	return row.toEntity(), nil
}

// SaveConnection upserts a connection record owned by the connection manager.
func (r *Repository) SaveConnection(ctx context.Context, connection entities.Connection) error {
	row := connectionModel{
		ConnectionID: strings.TrimSpace(connection.ConnectionID),
		OrgID:        strings.TrimSpace(connection.OrgID),
		Platform:     string(connection.Platform),
		AccountID:    strings.TrimSpace(connection.AccountID),
		AccessToken:  connection.AccessToken,
		IsActive:     connection.IsActive,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "connection_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"org_id", "platform", "account_id", "access_token", "is_active"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) GetTemplate(ctx context.Context, orgID string, templateID string) (entities.Template, error) {
	var row templateModel
	err := r.db.WithContext(ctx).
		Where("template_id = ?", strings.TrimSpace(templateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Template{}, domainerrors.ErrTemplateNotFound
		}
		return entities.Template{}, err
	}
	item, err := row.toEntity()
	if err != nil {
		return entities.Template{}, err
	}
	if !item.AvailableTo(strings.TrimSpace(orgID)) {
		return entities.Template{}, domainerrors.ErrTemplateNotFound
	}
	return item, nil
}

// SaveTemplate upserts a template record owned by the template library.
func (r *Repository) SaveTemplate(ctx context.Context, template entities.Template) error {
	row, err := templateModelFromEntity(template)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"org_id",
				"name",
				"description",
				"platforms",
				"base_config",
				"distribution",
				"platform_configs",
				"default_total_budget",
				"is_active",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) IncrementTemplateUsage(ctx context.Context, templateID string) error {
	result := r.db.WithContext(ctx).
		Model(&templateModel{}).
		Where("template_id = ?", strings.TrimSpace(templateID)).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTemplateNotFound
	}
	return nil
}
