package catalog

import (
	"fmt"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// Item represents a stocked catalog item.
type Item struct {
	ID           int64
	OrgID        int64
	SKU          string
	Name         string
	Unit         string
	CostPrice    float64
	ReorderLevel float64
	ReorderQty   float64
	TrackStock   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Warehouse represents a stock location.
type Warehouse struct {
	ID       int64
	OrgID    int64
	Code     string
	Name     string
	IsActive bool
}

// StockLevel is one item/warehouse stock position row.
type StockLevel struct {
	ItemID         int64
	WarehouseID    int64
	StockOnHand    float64
	CommittedStock float64
	UpdatedAt      time.Time
}

// ErrItemNotFound indicates the item is absent or outside the organization.
var ErrItemNotFound = fmt.Errorf("catalog: item %w", shared.ErrNotFound)
