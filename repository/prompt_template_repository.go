package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// PromptTemplateRepositoryImpl implements the PromptTemplateRepository interface
type PromptTemplateRepositoryImpl struct {
	*BaseRepository[models.PromptTemplate, models.PromptTemplateFilter]
}

// NewPromptTemplateRepository creates a new prompt template repository
func NewPromptTemplateRepository(db *gorm.DB) PromptTemplateRepository {
	return &PromptTemplateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PromptTemplate, models.PromptTemplateFilter](db),
	}
}

// ByUUID retrieves a prompt template by UUID
func (r *PromptTemplateRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PromptTemplate, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PromptTemplateFilter{UUID: &parsedUUID}
	prompts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(prompts) == 0 {
		return nil, nil
	}

	return prompts[0], nil
}

// DefaultByType retrieves the default active template for a template type
func (r *PromptTemplateRepositoryImpl) DefaultByType(ctx context.Context, templateType models.PromptTemplateType) (*models.PromptTemplate, error) {
	filter := models.PromptTemplateFilter{
		TemplateType: &templateType,
		IsDefault:    utils.ToPtr(true),
	}
	prompts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(prompts) == 0 {
		return nil, nil
	}

	return prompts[0], nil
}

// ClearDefault unsets the default flag on every template of the given type
func (r *PromptTemplateRepositoryImpl) ClearDefault(ctx context.Context, templateType models.PromptTemplateType) error {
	db := r.getDB(ctx)
	return db.Model(&models.PromptTemplate{}).
		Where("template_type = ? AND is_default = ?", templateType, true).
		Updates(map[string]any{
			"is_default": false,
			"updated_at": utils.UTCNow(),
		}).Error
}

// Update updates a prompt template
func (r *PromptTemplateRepositoryImpl) Update(ctx context.Context, prompt models.PromptTemplate) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	prompt.UpdatedAt = &now

	err = db.Save(&prompt).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves prompt templates based on filter criteria
func (r *PromptTemplateRepositoryImpl) ByFilter(ctx context.Context, filter models.PromptTemplateFilter, orderBy string, limit, offset int) ([]*models.PromptTemplate, error) {
	db := r.getDB(ctx)

	var prompts []*models.PromptTemplate
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&prompts).Error
	if err != nil {
		return nil, err
	}

	return prompts, nil
}

// Count returns the number of prompt templates matching the filter
func (r *PromptTemplateRepositoryImpl) Count(ctx context.Context, filter models.PromptTemplateFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var prompt models.PromptTemplate
	query := r.applyFilter(db.Model(&prompt), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any prompt template matching the filter exists
func (r *PromptTemplateRepositoryImpl) Exists(ctx context.Context, filter models.PromptTemplateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PromptTemplateRepositoryImpl) applyFilter(db *gorm.DB, filter models.PromptTemplateFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.DesignEngine != nil {
		db = db.Where("design_engine = ?", *filter.DesignEngine)
	}
	if filter.TemplateType != nil {
		db = db.Where("template_type = ?", *filter.TemplateType)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.IsDefault != nil {
		db = db.Where("is_default = ?", *filter.IsDefault)
	}

	return db
}
