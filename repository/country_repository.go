package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// CountryRepositoryImpl implements the CountryRepository interface
type CountryRepositoryImpl struct {
	*BaseRepository[models.Country, models.CountryFilter]
}

// NewCountryRepository creates a new country repository
func NewCountryRepository(db *gorm.DB) CountryRepository {
	return &CountryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Country, models.CountryFilter](db),
	}
}

// ByCode retrieves a country by its ISO code
func (r *CountryRepositoryImpl) ByCode(ctx context.Context, code string) (*models.Country, error) {
	filter := models.CountryFilter{Code: &code}
	countries, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(countries) == 0 {
		return nil, nil
	}

	return countries[0], nil
}

// ListActive retrieves all globally active countries ordered by code
func (r *CountryRepositoryImpl) ListActive(ctx context.Context) ([]*models.Country, error) {
	filter := models.CountryFilter{IsActive: utils.ToPtr(true)}
	return r.ByFilter(ctx, filter, "code ASC", 0, 0)
}

// ByFilter retrieves countries based on filter criteria
func (r *CountryRepositoryImpl) ByFilter(ctx context.Context, filter models.CountryFilter, orderBy string, limit, offset int) ([]*models.Country, error) {
	db := r.getDB(ctx)

	var countries []*models.Country
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

	err := query.Find(&countries).Error
	if err != nil {
		return nil, err
	}

	return countries, nil
}

// Count returns the number of countries matching the filter
func (r *CountryRepositoryImpl) Count(ctx context.Context, filter models.CountryFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var country models.Country
	query := r.applyFilter(db.Model(&country), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any country matching the filter exists
func (r *CountryRepositoryImpl) Exists(ctx context.Context, filter models.CountryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CountryRepositoryImpl) applyFilter(db *gorm.DB, filter models.CountryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		db = db.Where("code = ?", *filter.Code)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
