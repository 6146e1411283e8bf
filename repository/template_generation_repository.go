package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"gorm.io/gorm"
)

// TemplateGenerationRepositoryImpl implements the TemplateGenerationRepository interface
type TemplateGenerationRepositoryImpl struct {
	*BaseRepository[models.TemplateGeneration, models.TemplateGenerationFilter]
}

// NewTemplateGenerationRepository creates a new generation audit repository
func NewTemplateGenerationRepository(db *gorm.DB) TemplateGenerationRepository {
	return &TemplateGenerationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TemplateGeneration, models.TemplateGenerationFilter](db),
	}
}

// StatsByPrompt aggregates the audit trail for one prompt template
func (r *TemplateGenerationRepositoryImpl) StatsByPrompt(ctx context.Context, promptID uint) (*models.PromptGenerationStats, error) {
	db := r.getDB(ctx)

	type row struct {
		TotalRuns        int64
		SuccessfulRuns   int64
		AvgGenerationMs  float64
		LastGenerationAt *string
	}
	var res row
	err := db.Table("template_generations").
		Select(`COUNT(*) AS total_runs,
			COUNT(*) FILTER (WHERE was_successful) AS successful_runs,
			COALESCE(AVG(generation_time_ms), 0) AS avg_generation_ms,
			MAX(created_at)::text AS last_generation_at`).
		Where("prompt_id = ?", promptID).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}

	stats := &models.PromptGenerationStats{
		PromptID:         promptID,
		TotalRuns:        res.TotalRuns,
		SuccessfulRuns:   res.SuccessfulRuns,
		AvgGenerationMs:  res.AvgGenerationMs,
		LastGenerationAt: res.LastGenerationAt,
	}
	if res.TotalRuns > 0 {
		stats.SuccessRate = float64(res.SuccessfulRuns) / float64(res.TotalRuns)
	}

	return stats, nil
}

// ByFilter retrieves generation records based on filter criteria
func (r *TemplateGenerationRepositoryImpl) ByFilter(ctx context.Context, filter models.TemplateGenerationFilter, orderBy string, limit, offset int) ([]*models.TemplateGeneration, error) {
	db := r.getDB(ctx)

	var generations []*models.TemplateGeneration
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

	err := query.Find(&generations).Error
	if err != nil {
		return nil, err
	}

	return generations, nil
}

// Count returns the number of generation records matching the filter
func (r *TemplateGenerationRepositoryImpl) Count(ctx context.Context, filter models.TemplateGenerationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var generation models.TemplateGeneration
	query := r.applyFilter(db.Model(&generation), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any generation record matching the filter exists
func (r *TemplateGenerationRepositoryImpl) Exists(ctx context.Context, filter models.TemplateGenerationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *TemplateGenerationRepositoryImpl) applyFilter(db *gorm.DB, filter models.TemplateGenerationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PromptID != nil {
		db = db.Where("prompt_id = ?", *filter.PromptID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.WasSuccessful != nil {
		db = db.Where("was_successful = ?", *filter.WasSuccessful)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
