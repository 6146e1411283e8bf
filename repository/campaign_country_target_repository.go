package repository

import (
	"context"

	"github.com/templaito/templaito/models"
	"gorm.io/gorm"
)

// CampaignCountryTargetRepositoryImpl implements the CampaignCountryTargetRepository interface
type CampaignCountryTargetRepositoryImpl struct {
	*BaseRepository[models.CampaignCountryTarget, models.CampaignCountryTargetFilter]
}

// NewCampaignCountryTargetRepository creates a new country target repository
func NewCampaignCountryTargetRepository(db *gorm.DB) CampaignCountryTargetRepository {
	return &CampaignCountryTargetRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignCountryTarget, models.CampaignCountryTargetFilter](db),
	}
}

// ListByCampaign retrieves all country targets for one campaign
func (r *CampaignCountryTargetRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.CampaignCountryTarget, error) {
	filter := models.CampaignCountryTargetFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "country_code ASC", 0, 0)
}

// ExternalIDsByCampaigns returns a map of campaign_id -> published newsletter IDs
func (r *CampaignCountryTargetRepositoryImpl) ExternalIDsByCampaigns(ctx context.Context, campaignIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string)
	if len(campaignIDs) == 0 {
		return out, nil
	}
	type row struct {
		CampaignID uint
		ExternalID string
	}
	var rows []row
	db := r.getDB(ctx)
	if err := db.Table("campaign_country_targets").
		Select("campaign_id, external_id").
		Where("campaign_id IN ? AND external_id IS NOT NULL", campaignIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CampaignID] = append(out[r.CampaignID], r.ExternalID)
	}
	return out, nil
}

// ByFilter retrieves country targets based on filter criteria
func (r *CampaignCountryTargetRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignCountryTargetFilter, orderBy string, limit, offset int) ([]*models.CampaignCountryTarget, error) {
	db := r.getDB(ctx)

	var targets []*models.CampaignCountryTarget
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

	err := query.Find(&targets).Error
	if err != nil {
		return nil, err
	}

	return targets, nil
}

// Count returns the number of country targets matching the filter
func (r *CampaignCountryTargetRepositoryImpl) Count(ctx context.Context, filter models.CampaignCountryTargetFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var target models.CampaignCountryTarget
	query := r.applyFilter(db.Model(&target), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any country target matching the filter exists
func (r *CampaignCountryTargetRepositoryImpl) Exists(ctx context.Context, filter models.CampaignCountryTargetFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignCountryTargetRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignCountryTargetFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.CountryCode != nil {
		db = db.Where("country_code = ?", *filter.CountryCode)
	}
	if filter.ExternalID != nil {
		db = db.Where("external_id = ?", *filter.ExternalID)
	}

	return db
}
