package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the orchestration tables. Production schemas are owned by
// the migrations pipeline; this is used for local runs and tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orchestrationModel{},
		&mappingModel{},
		&workflowModel{},
		&syncLogModel{},
		&connectionModel{},
		&templateModel{},
		&outboxModel{},
		&eventDedupModel{},
	)
}

func (r *Repository) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, store ports.AggregateStore) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) CreateOrchestration(ctx context.Context, orchestration entities.Orchestration) error {
	row, err := orchestrationModelFromEntity(orchestration)
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

func (r *Repository) UpdateOrchestration(ctx context.Context, orchestration entities.Orchestration) (entities.Orchestration, error) {
	row, err := orchestrationModelFromEntity(orchestration)
	if err != nil {
		return entities.Orchestration{}, err
	}
	result := r.db.WithContext(ctx).
		Model(&orchestrationModel{}).
		Where("orchestration_id = ? AND org_id = ? AND version = ?", row.OrchestrationID, row.OrgID, row.Version).
		Updates(row.updates(row.Version + 1))
	if result.Error != nil {
		return entities.Orchestration{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetOrchestration(ctx, row.OrgID, row.OrchestrationID); err != nil {
			return entities.Orchestration{}, err
		}
		return entities.Orchestration{}, domainerrors.ErrConcurrentModification
	}
	orchestration.Version = row.Version + 1
	return orchestration, nil
}

func (r *Repository) GetOrchestration(ctx context.Context, orgID string, orchestrationID string) (entities.Orchestration, error) {
	var row orchestrationModel
	err := r.db.WithContext(ctx).
		Where("orchestration_id = ? AND org_id = ?", strings.TrimSpace(orchestrationID), strings.TrimSpace(orgID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Orchestration{}, domainerrors.ErrOrchestrationNotFound
		}
		return entities.Orchestration{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListOrchestrations(ctx context.Context, filter ports.OrchestrationFilter) ([]entities.Orchestration, error) {
	query := r.db.WithContext(ctx).Model(&orchestrationModel{})
	if orgID := strings.TrimSpace(filter.OrgID); orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []orchestrationModel
	if err := query.Order("created_at DESC").Order("orchestration_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Orchestration, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CreateMapping(ctx context.Context, mapping entities.PlatformMapping) error {
	row, err := mappingModelFromEntity(mapping)
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

func (r *Repository) UpdateMapping(ctx context.Context, mapping entities.PlatformMapping) (entities.PlatformMapping, error) {
	row, err := mappingModelFromEntity(mapping)
	if err != nil {
		return entities.PlatformMapping{}, err
	}
	result := r.db.WithContext(ctx).
		Model(&mappingModel{}).
		Where("platform_mapping_id = ? AND org_id = ? AND version = ?", row.PlatformMappingID, row.OrgID, row.Version).
		Updates(row.updates(row.Version + 1))
	if result.Error != nil {
		return entities.PlatformMapping{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetMapping(ctx, row.OrgID, row.PlatformMappingID); err != nil {
			return entities.PlatformMapping{}, err
		}
		return entities.PlatformMapping{}, domainerrors.ErrConcurrentModification
	}
	mapping.Version = row.Version + 1
	return mapping, nil
}

func (r *Repository) GetMapping(ctx context.Context, orgID string, mappingID string) (entities.PlatformMapping, error) {
	var row mappingModel
	err := r.db.WithContext(ctx).
		Where("platform_mapping_id = ? AND org_id = ?", strings.TrimSpace(mappingID), strings.TrimSpace(orgID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PlatformMapping{}, domainerrors.ErrPlatformMappingNotFound
		}
		return entities.PlatformMapping{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListMappings(ctx context.Context, orgID string, orchestrationID string) ([]entities.PlatformMapping, error) {
	var rows []mappingModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND orchestration_id = ?", strings.TrimSpace(orgID), strings.TrimSpace(orchestrationID)).
		Order("created_at ASC").
		Order("platform_mapping_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.PlatformMapping, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
