package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"github.com/templaito/templaito/utils"
	"gorm.io/gorm"
)

// ClientIntegrationRepositoryImpl implements the ClientIntegrationRepository interface
type ClientIntegrationRepositoryImpl struct {
	*BaseRepository[models.ClientIntegration, models.ClientIntegrationFilter]
}

// NewClientIntegrationRepository creates a new integration repository
func NewClientIntegrationRepository(db *gorm.DB) ClientIntegrationRepository {
	return &ClientIntegrationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ClientIntegration, models.ClientIntegrationFilter](db),
	}
}

// ByClientAndProvider retrieves the integration row for a (client, provider) pair
func (r *ClientIntegrationRepositoryImpl) ByClientAndProvider(ctx context.Context, clientID uint, provider string) (*models.ClientIntegration, error) {
	filter := models.ClientIntegrationFilter{
		ClientID: &clientID,
		Provider: &provider,
	}
	integrations, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(integrations) == 0 {
		return nil, nil
	}

	return integrations[0], nil
}

// Update updates an integration
func (r *ClientIntegrationRepositoryImpl) Update(ctx context.Context, integration models.ClientIntegration) error {
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
	integration.UpdatedAt = &now

	err = db.Save(&integration).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves integrations based on filter criteria
func (r *ClientIntegrationRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientIntegrationFilter, orderBy string, limit, offset int) ([]*models.ClientIntegration, error) {
	db := r.getDB(ctx)

	var integrations []*models.ClientIntegration
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

	err := query.Find(&integrations).Error
	if err != nil {
		return nil, err
	}

	return integrations, nil
}

// Count returns the number of integrations matching the filter
func (r *ClientIntegrationRepositoryImpl) Count(ctx context.Context, filter models.ClientIntegrationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var integration models.ClientIntegration
	query := r.applyFilter(db.Model(&integration), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any integration matching the filter exists
func (r *ClientIntegrationRepositoryImpl) Exists(ctx context.Context, filter models.ClientIntegrationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ClientIntegrationRepositoryImpl) applyFilter(db *gorm.DB, filter models.ClientIntegrationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Provider != nil {
		db = db.Where("provider = ?", *filter.Provider)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
