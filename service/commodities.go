package service

import (
	"context"
	"fmt"
	"sort"
	"time"
	"vendtrack/db"
	"vendtrack/models"
)

// CommodityInput describes a catalog entry.
type CommodityInput struct {
	Name     string                 `json:"name" validate:"required"`
	Code     string                 `json:"code"`
	Unit     string                 `json:"unit"`
	Category string                 `json:"category"`
	Details  map[string]interface{} `json:"details"`
}

// CommodityService manages the commodity catalog.
type CommodityService struct {
	store db.Store
	audit *AuditLogger
	now   func() time.Time
}

func NewCommodityService(store db.Store, audit *AuditLogger) *CommodityService {
	return &CommodityService{store: store, audit: audit, now: time.Now}
}

func (s *CommodityService) GetAllCommodities(ctx context.Context) ([]models.Commodity, error) {
	snaps, err := s.store.All(ctx, db.CollectionCommodities)
	if err != nil {
		return nil, newError(KindInternal, "Failed to retrieve commodities", err)
	}

	items := decodeAll[models.Commodity](db.CollectionCommodities, snaps)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (s *CommodityService) GetCommodityByID(ctx context.Context, id string) (*models.Commodity, error) {
	var item models.Commodity
	if err := load(ctx, s.store, db.CollectionCommodities, id, &item, "Commodity not found"); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCommodity stores a new entry under a store-generated key.
func (s *CommodityService) CreateCommodity(ctx context.Context, input CommodityInput) (*models.Commodity, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id, err := s.store.NewID(ctx, db.CollectionCommodities)
	if err != nil {
		return nil, newError(KindInternal, "Failed to create commodity", err)
	}

	now := s.now().UTC()
	item := models.Commodity{
		ID:        id,
		Name:      input.Name,
		Code:      input.Code,
		Unit:      input.Unit,
		Category:  input.Category,
		Details:   input.Details,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Set(ctx, db.CollectionCommodities, id, item); err != nil {
		return nil, newError(KindInternal, "Failed to create commodity", err)
	}

	s.audit.Record(ctx, "create_commodity", fmt.Sprintf("created commodity %s (%s)", id, item.Name))
	return &item, nil
}

func (s *CommodityService) UpdateCommodity(ctx context.Context, id string, patch map[string]interface{}) (*models.Commodity, error) {
	current, err := s.GetCommodityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := preparePatch(patch, s.now().UTC())
	merged, err := mergePatch(*current, fields)
	if err != nil {
		return nil, err
	}
	if _, ok := fields["name"]; ok && merged.Name == "" {
		return nil, newError(KindValidation, "name is required", nil)
	}

	if err := s.store.Update(ctx, db.CollectionCommodities, id, fields); err != nil {
		return nil, newError(KindInternal, "Failed to update commodity", err)
	}
	s.audit.Record(ctx, "update_commodity", fmt.Sprintf("updated commodity %s", id))

	return s.GetCommodityByID(ctx, id)
}

func (s *CommodityService) DeleteCommodity(ctx context.Context, id string) error {
	if _, err := s.GetCommodityByID(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, db.CollectionCommodities, id); err != nil {
		return newError(KindInternal, "Failed to delete commodity", err)
	}
	s.audit.Record(ctx, "delete_commodity", fmt.Sprintf("deleted commodity %s", id))
	return nil
}
