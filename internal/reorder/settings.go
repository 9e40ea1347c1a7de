package reorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
)

// ResolveSettings returns the effective settings for the item: the active
// explicit row for the exact (item, warehouse) pair when present, else the
// item-global row (warehouse 0), else the item's own reorder defaults.
func (s *Service) ResolveSettings(ctx context.Context, orgID, itemID, warehouseID int64) (EffectiveSettings, error) {
	item, err := s.catalog.GetItem(ctx, orgID, itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return EffectiveSettings{}, ErrNotFound
		}
		return EffectiveSettings{}, err
	}

	row, err := s.repo.GetSettingsRow(ctx, orgID, itemID, warehouseID)
	if errors.Is(err, ErrNotFound) && warehouseID != 0 {
		row, err = s.repo.GetSettingsRow(ctx, orgID, itemID, 0)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return effectiveFromItem(item), nil
		}
		return EffectiveSettings{}, err
	}
	return effectiveFromRow(row), nil
}

// UpdateSettings writes a partial settings payload for the (item, warehouse)
// pair. The write is idempotent per key: repeating it updates the single
// stored row instead of duplicating it.
func (s *Service) UpdateSettings(ctx context.Context, orgID, itemID, warehouseID, actorID int64, patch SettingsPatch) (Settings, error) {
	if itemID == 0 {
		return Settings{}, fmt.Errorf("%w: item required", ErrValidation)
	}
	if _, err := s.catalog.GetItem(ctx, orgID, itemID); err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}

	row, err := s.repo.UpsertSettings(ctx, orgID, itemID, warehouseID, patch)
	if err != nil {
		return Settings{}, err
	}
	s.recordAudit(ctx, orgID, actorID, "REORDER_SETTINGS_UPSERT", itemID, map[string]any{
		"warehouse_id":  warehouseID,
		"reorder_level": row.ReorderLevel,
		"reorder_qty":   row.ReorderQty,
		"auto_reorder":  row.AutoReorder,
	})
	s.bumpReportCache(ctx, orgID)
	return row, nil
}

// BulkSettingsInput addresses one item in a bulk settings write.
type BulkSettingsInput struct {
	ItemID      int64         `json:"item_id" validate:"required,gt=0"`
	WarehouseID int64         `json:"warehouse_id"`
	Patch       SettingsPatch `json:"settings"`
}

// BulkUpdateSettings applies settings writes for several items. Unlike bulk PO
// creation this is all-or-nothing per call: the first invalid item aborts.
func (s *Service) BulkUpdateSettings(ctx context.Context, orgID, actorID int64, inputs []BulkSettingsInput) ([]Settings, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: minimal 1 item", ErrValidation)
	}
	updated := make([]Settings, 0, len(inputs))
	for _, input := range inputs {
		row, err := s.UpdateSettings(ctx, orgID, input.ItemID, input.WarehouseID, actorID, input.Patch)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", input.ItemID, err)
		}
		updated = append(updated, row)
	}
	return updated, nil
}

func effectiveFromRow(row Settings) EffectiveSettings {
	return EffectiveSettings{
		Source:            SourceExplicit,
		ReorderLevel:      row.ReorderLevel,
		ReorderQty:        row.ReorderQty,
		SafetyStock:       row.SafetyStock,
		LeadTimeDays:      row.LeadTimeDays,
		PreferredVendorID: row.PreferredVendorID,
		AutoReorder:       row.AutoReorder,
	}
}

func effectiveFromItem(item catalog.Item) EffectiveSettings {
	return EffectiveSettings{
		Source:       SourceItemDefault,
		ReorderLevel: item.ReorderLevel,
		ReorderQty:   item.ReorderQty,
	}
}

// settingsIndex picks the resolution row per item for a bulk sweep: the
// item-global row when present, else nothing (item defaults apply).
func settingsIndex(rows []Settings) map[int64]Settings {
	index := make(map[int64]Settings, len(rows))
	for _, row := range rows {
		if row.WarehouseID != 0 {
			continue
		}
		if _, ok := index[row.ItemID]; !ok {
			index[row.ItemID] = row
		}
	}
	return index
}
