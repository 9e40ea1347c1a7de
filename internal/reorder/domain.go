package reorder

import (
	"fmt"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// AlertStatus enumerates the reorder alert lifecycle.
type AlertStatus string

const (
	// AlertStatusPending is the initial state of a created alert.
	AlertStatusPending AlertStatus = "PENDING"
	// AlertStatusAcknowledged means a user has seen the alert.
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	// AlertStatusResolved is terminal; the situation was handled manually.
	AlertStatusResolved AlertStatus = "RESOLVED"
	// AlertStatusPOCreated is terminal; a purchase order was generated.
	AlertStatusPOCreated AlertStatus = "PO_CREATED"
)

// Open reports whether the alert still counts against the one-open-alert-per-item rule.
func (s AlertStatus) Open() bool {
	return s == AlertStatusPending || s == AlertStatusAcknowledged
}

// Terminal reports whether no further transition may leave this state.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusPOCreated
}

// SettingsSource tags which tier the effective settings came from.
type SettingsSource string

const (
	// SourceExplicit means a reorder_settings row matched.
	SourceExplicit SettingsSource = "EXPLICIT"
	// SourceItemDefault means the item's own reorder fields were used.
	SourceItemDefault SettingsSource = "ITEM_DEFAULT"
)

// Settings is a persisted per-item override. WarehouseID 0 marks the
// item-global row; at most one row exists per (item, warehouse) pair.
type Settings struct {
	ID                int64
	OrgID             int64
	ItemID            int64
	WarehouseID       int64
	ReorderLevel      float64
	ReorderQty        float64
	SafetyStock       float64
	LeadTimeDays      int
	PreferredVendorID int64
	AutoReorder       bool
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SettingsPatch carries a partial settings write; nil fields stay untouched.
type SettingsPatch struct {
	ReorderLevel      *float64 `json:"reorder_level" validate:"omitempty,gte=0"`
	ReorderQty        *float64 `json:"reorder_qty" validate:"omitempty,gte=0"`
	SafetyStock       *float64 `json:"safety_stock" validate:"omitempty,gte=0"`
	LeadTimeDays      *int     `json:"lead_time_days" validate:"omitempty,gte=0"`
	PreferredVendorID *int64   `json:"preferred_vendor_id" validate:"omitempty,gt=0"`
	AutoReorder       *bool    `json:"auto_reorder"`
	IsActive          *bool    `json:"is_active"`
}

// Empty reports whether the patch specifies nothing.
func (p SettingsPatch) Empty() bool {
	return p.ReorderLevel == nil && p.ReorderQty == nil && p.SafetyStock == nil &&
		p.LeadTimeDays == nil && p.PreferredVendorID == nil && p.AutoReorder == nil && p.IsActive == nil
}

// EffectiveSettings is the resolved two-tier settings result.
type EffectiveSettings struct {
	Source            SettingsSource
	ReorderLevel      float64
	ReorderQty        float64
	SafetyStock       float64
	LeadTimeDays      int
	PreferredVendorID int64
	AutoReorder       bool
}

// StockPosition is one item/warehouse stock row, preserved for display.
type StockPosition struct {
	ItemID         int64
	WarehouseID    int64
	WarehouseCode  string
	StockOnHand    float64
	CommittedStock float64
}

// Available returns stock on hand minus committed stock. May be negative
// transiently; suggestion math clamps it before computing quantities.
func (p StockPosition) Available() float64 {
	return p.StockOnHand - p.CommittedStock
}

// ItemStock aggregates an item's stock across warehouses.
type ItemStock struct {
	ItemID         int64
	StockOnHand    float64
	CommittedStock float64
	Positions      []StockPosition
}

// Available returns total stock on hand minus total committed stock.
func (s ItemStock) Available() float64 {
	return s.StockOnHand - s.CommittedStock
}

// Suggestion is one computed reorder recommendation; never persisted.
type Suggestion struct {
	ItemID            int64           `json:"item_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	CurrentStock      float64         `json:"current_stock"`
	AvailableStock    float64         `json:"available_stock"`
	ReorderLevel      float64         `json:"reorder_level"`
	SuggestedQty      float64         `json:"suggested_qty"`
	CostPrice         float64         `json:"cost_price"`
	EstimatedCost     float64         `json:"estimated_cost"`
	PreferredVendorID int64           `json:"preferred_vendor_id,omitempty"`
	LowWarehouseID    int64           `json:"low_warehouse_id,omitempty"`
	Positions         []StockPosition `json:"-"`
}

// Alert is a persisted low-stock notification.
type Alert struct {
	ID              int64
	OrgID           int64
	ItemID          int64
	WarehouseID     int64
	CurrentStock    float64
	ReorderLevel    float64
	SuggestedQty    float64
	Status          AlertStatus
	NotifiedAt      time.Time
	ResolvedAt      *time.Time
	PurchaseOrderID int64
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status AlertStatus
	ItemID int64
	Limit  int
}

// CheckResult summarises one reorder point sweep.
type CheckResult struct {
	Checked int     `json:"checked"`
	Created []Alert `json:"created"`
	Skipped int     `json:"skipped"`
}

// HistoryPoint is one observed month of demand.
type HistoryPoint struct {
	Period string  `json:"period"`
	Qty    float64 `json:"qty"`
}

// ForecastPoint is one projected month of demand.
type ForecastPoint struct {
	Period      string  `json:"period"`
	ForecastQty float64 `json:"forecast_qty"`
	Confidence  float64 `json:"confidence"`
	Method      string  `json:"method"`
}

// Forecast bundles the historical series with the projection.
type Forecast struct {
	ItemID     int64           `json:"item_id"`
	Historical []HistoryPoint  `json:"historical"`
	Forecast   []ForecastPoint `json:"forecast"`
}

// BulkPOOutcome is the per-alert result of a bulk PO run.
type BulkPOOutcome struct {
	AlertID     int64  `json:"alert_id"`
	OrderID     int64  `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BulkPOResult aggregates a bulk PO run. The run itself always succeeds;
// failures are carried per item.
type BulkPOResult struct {
	IdempotencyKey string          `json:"idempotency_key"`
	Created        int             `json:"created"`
	Failed         int             `json:"failed"`
	Results        []BulkPOOutcome `json:"results"`
}

// CoverageRow estimates how long current stock lasts at recent demand.
type CoverageRow struct {
	ItemID         int64   `json:"item_id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	CurrentStock   float64 `json:"current_stock"`
	AvgDailyDemand float64 `json:"avg_daily_demand"`
	CoverageDays   int     `json:"coverage_days"`
}

// Report is the aggregated reorder overview.
type Report struct {
	TotalSuggestions   int                 `json:"total_suggestions"`
	AlertCounts        map[AlertStatus]int `json:"alert_counts"`
	AutoReorderEnabled int                 `json:"auto_reorder_enabled"`
	Suggestions        []Suggestion        `json:"suggestions"`
	Coverage           []CoverageRow       `json:"coverage"`
}

// CoverageVeryLong is the sentinel for "stock but no recent demand".
const CoverageVeryLong = 999

// Sentinels wrap the shared classes so user-safe messaging sees through them.
var (
	// ErrNotFound indicates a record missing or outside the organization.
	ErrNotFound = fmt.Errorf("reorder: %w", shared.ErrNotFound)
	// ErrInvalidState occurs when an action violates the alert state machine.
	ErrInvalidState = fmt.Errorf("reorder: state transition: %w", shared.ErrInvalidState)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("reorder: %w", shared.ErrValidation)
	// ErrNoVendor means no vendor could be resolved for a purchase order.
	ErrNoVendor = fmt.Errorf("reorder: no vendor resolvable for item: %w", shared.ErrInvalidState)
	// ErrAlertOpen signals an open alert already exists for the item.
	ErrAlertOpen = fmt.Errorf("reorder: open alert already exists: %w", shared.ErrInvalidState)
)
