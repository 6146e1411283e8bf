package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// ClientCountryConfigRepositoryImpl implements the ClientCountryConfigRepository interface
type ClientCountryConfigRepositoryImpl struct {
	*BaseRepository[models.ClientCountryConfig, models.ClientCountryConfigFilter]
}

// NewClientCountryConfigRepository creates a new country config repository
func NewClientCountryConfigRepository(db *gorm.DB) ClientCountryConfigRepository {
	return &ClientCountryConfigRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ClientCountryConfig, models.ClientCountryConfigFilter](db),
	}
}

// ListByClient retrieves all country configs for a client ordered by country code
func (r *ClientCountryConfigRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]*models.ClientCountryConfig, error) {
	filter := models.ClientCountryConfigFilter{ClientID: &clientID}
	return r.ByFilter(ctx, filter, "country_code ASC", 0, 0)
}

// ByClientAndCountry retrieves one config row for a (client, country) pair
func (r *ClientCountryConfigRepositoryImpl) ByClientAndCountry(ctx context.Context, clientID uint, countryCode string) (*models.ClientCountryConfig, error) {
	filter := models.ClientCountryConfigFilter{
		ClientID:    &clientID,
		CountryCode: &countryCode,
	}
	configs, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(configs) == 0 {
		return nil, nil
	}

	return configs[0], nil
}

// Update updates a country config
func (r *ClientCountryConfigRepositoryImpl) Update(ctx context.Context, config models.ClientCountryConfig) error {
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
	config.UpdatedAt = &now

	err = db.Save(&config).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves country configs based on filter criteria
func (r *ClientCountryConfigRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientCountryConfigFilter, orderBy string, limit, offset int) ([]*models.ClientCountryConfig, error) {
	db := r.getDB(ctx)

	var configs []*models.ClientCountryConfig
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

	err := query.Find(&configs).Error
	if err != nil {
		return nil, err
	}

	return configs, nil
}

// Count returns the number of country configs matching the filter
func (r *ClientCountryConfigRepositoryImpl) Count(ctx context.Context, filter models.ClientCountryConfigFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var config models.ClientCountryConfig
	query := r.applyFilter(db.Model(&config), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any country config matching the filter exists
func (r *ClientCountryConfigRepositoryImpl) Exists(ctx context.Context, filter models.ClientCountryConfigFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ClientCountryConfigRepositoryImpl) applyFilter(db *gorm.DB, filter models.ClientCountryConfigFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}
	if filter.CountryCode != nil {
		db = db.Where("country_code = ?", *filter.CountryCode)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
