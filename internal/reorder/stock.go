package reorder

import (
	"context"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
)

// stockByItem sums stock-on-hand and committed quantities per item across all
// warehouse positions, keeping the per-warehouse breakdown for display. It is
// a pure read; store errors propagate unchanged.
func (s *Service) stockByItem(ctx context.Context, orgID int64, itemIDs []int64) (map[int64]ItemStock, error) {
	levels, err := s.catalog.StockLevels(ctx, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.catalog.ListWarehouses(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return aggregateStock(levels, warehouses), nil
}

func aggregateStock(levels []catalog.StockLevel, warehouses []catalog.Warehouse) map[int64]ItemStock {
	codes := make(map[int64]string, len(warehouses))
	for _, wh := range warehouses {
		codes[wh.ID] = wh.Code
	}
	byItem := make(map[int64]ItemStock)
	for _, lvl := range levels {
		agg := byItem[lvl.ItemID]
		agg.ItemID = lvl.ItemID
		agg.StockOnHand += lvl.StockOnHand
		agg.CommittedStock += lvl.CommittedStock
		agg.Positions = append(agg.Positions, StockPosition{
			ItemID:         lvl.ItemID,
			WarehouseID:    lvl.WarehouseID,
			WarehouseCode:  codes[lvl.WarehouseID],
			StockOnHand:    lvl.StockOnHand,
			CommittedStock: lvl.CommittedStock,
		})
		byItem[lvl.ItemID] = agg
	}
	return byItem
}

// lowStockWarehouse selects the warehouse an alert points at: the first
// position at or below the reorder level, else the item's first known
// warehouse, else zero when the item has no positions at all.
func lowStockWarehouse(positions []StockPosition, reorderLevel float64) int64 {
	for _, pos := range positions {
		if pos.StockOnHand <= reorderLevel {
			return pos.WarehouseID
		}
	}
	if len(positions) > 0 {
		return positions[0].WarehouseID
	}
	return 0
}
