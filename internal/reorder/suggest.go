package reorder

import (
	"context"
	"math"
	"sort"
)

// GetSuggestions scans every active, stock-tracked item in the organization
// and returns the ones at or below their effective reorder level. This is a
// full catalog scan on each invocation; callers must not assume sub-linear
// cost.
func (s *Service) GetSuggestions(ctx context.Context, orgID int64) ([]Suggestion, error) {
	items, err := s.catalog.ListTrackedItems(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Suggestion{}, nil
	}

	itemIDs := make([]int64, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	stock, err := s.stockByItem(ctx, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	settingsRows, err := s.repo.ListSettingsForItems(ctx, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	overrides := settingsIndex(settingsRows)

	suggestions := []Suggestion{}
	for _, item := range items {
		effective := effectiveFromItem(item)
		if row, ok := overrides[item.ID]; ok {
			effective = effectiveFromRow(row)
		}
		if effective.ReorderLevel <= 0 {
			continue
		}

		agg := stock[item.ID]
		available := agg.Available()
		if available > effective.ReorderLevel {
			continue
		}

		qty := effective.ReorderQty
		if qty <= 0 {
			qty = effective.ReorderLevel * 2
		}
		// Transiently negative availability never drives a negative order.
		qty = math.Max(qty, 0)

		suggestions = append(suggestions, Suggestion{
			ItemID:            item.ID,
			SKU:               item.SKU,
			Name:              item.Name,
			Unit:              item.Unit,
			CurrentStock:      agg.StockOnHand,
			AvailableStock:    available,
			ReorderLevel:      effective.ReorderLevel,
			SuggestedQty:      qty,
			CostPrice:         item.CostPrice,
			EstimatedCost:     qty * item.CostPrice,
			PreferredVendorID: effective.PreferredVendorID,
			LowWarehouseID:    lowStockWarehouse(agg.Positions, effective.ReorderLevel),
			Positions:         agg.Positions,
		})
	}

	// Deepest relative shortfall first so the most urgent items lead.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return shortfallRatio(suggestions[i]) > shortfallRatio(suggestions[j])
	})
	return suggestions, nil
}

func shortfallRatio(sug Suggestion) float64 {
	if sug.ReorderLevel <= 0 {
		return 0
	}
	return (sug.ReorderLevel - sug.AvailableStock) / sug.ReorderLevel
}
