package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetItem loads a single item scoped to the organization.
func (r *Repository) GetItem(ctx context.Context, orgID, itemID int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT id, org_id, sku, name, unit, cost_price, reorder_level, reorder_qty, track_stock, is_active, created_at, updated_at
FROM items WHERE org_id=$1 AND id=$2`, orgID, itemID).
		Scan(&item.ID, &item.OrgID, &item.SKU, &item.Name, &item.Unit, &item.CostPrice, &item.ReorderLevel, &item.ReorderQty, &item.TrackStock, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// ListTrackedItems returns all active, stock-tracked items for the organization.
func (r *Repository) ListTrackedItems(ctx context.Context, orgID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, sku, name, unit, cost_price, reorder_level, reorder_qty, track_stock, is_active, created_at, updated_at
FROM items WHERE org_id=$1 AND is_active AND track_stock ORDER BY sku ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrgID, &item.SKU, &item.Name, &item.Unit, &item.CostPrice, &item.ReorderLevel, &item.ReorderQty, &item.TrackStock, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// StockLevels returns per-warehouse stock rows. An empty itemIDs slice selects
// every item in the organization. Rows come back ordered by item then
// warehouse so downstream aggregation sees a stable "first warehouse".
func (r *Repository) StockLevels(ctx context.Context, orgID int64, itemIDs []int64) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT sl.item_id, sl.warehouse_id, sl.stock_on_hand, sl.committed_stock, sl.updated_at
FROM stock_levels sl
JOIN items i ON i.id = sl.item_id
WHERE i.org_id=$1 AND (cardinality($2::bigint[]) = 0 OR sl.item_id = ANY($2::bigint[]))
ORDER BY sl.item_id ASC, sl.warehouse_id ASC`, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	levels := []StockLevel{}
	for rows.Next() {
		var lvl StockLevel
		if err := rows.Scan(&lvl.ItemID, &lvl.WarehouseID, &lvl.StockOnHand, &lvl.CommittedStock, &lvl.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

// ListWarehouses returns the organization's warehouses.
func (r *Repository) ListWarehouses(ctx context.Context, orgID int64) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, code, name, is_active FROM warehouses WHERE org_id=$1 ORDER BY id ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	warehouses := []Warehouse{}
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.OrgID, &wh.Code, &wh.Name, &wh.IsActive); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, rows.Err()
}
