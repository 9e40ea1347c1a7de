package reorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
	"github.com/stockpilot-erp/stockpilot/internal/contacts"
	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
	"github.com/stockpilot-erp/stockpilot/internal/saleshist"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// RepositoryPort abstracts reorder persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetAlert(ctx context.Context, orgID, alertID int64) (Alert, error)
	ListAlerts(ctx context.Context, orgID int64, filter AlertFilter) ([]Alert, error)
	OpenAlertExists(ctx context.Context, orgID, itemID int64) (bool, error)
	CountAlertsByStatus(ctx context.Context, orgID int64) (map[AlertStatus]int, error)
	CountAutoReorderEnabled(ctx context.Context, orgID int64) (int, error)
	GetSettingsRow(ctx context.Context, orgID, itemID, warehouseID int64) (Settings, error)
	ListSettingsForItems(ctx context.Context, orgID int64, itemIDs []int64) ([]Settings, error)
	UpsertSettings(ctx context.Context, orgID, itemID, warehouseID int64, patch SettingsPatch) (Settings, error)
}

// CatalogPort exposes the item and stock lookups the core reads.
type CatalogPort interface {
	GetItem(ctx context.Context, orgID, itemID int64) (catalog.Item, error)
	ListTrackedItems(ctx context.Context, orgID int64) ([]catalog.Item, error)
	StockLevels(ctx context.Context, orgID int64, itemIDs []int64) ([]catalog.StockLevel, error)
	ListWarehouses(ctx context.Context, orgID int64) ([]catalog.Warehouse, error)
}

// ContactsPort validates vendors for purchase order generation.
type ContactsPort interface {
	GetContact(ctx context.Context, orgID, contactID int64) (contacts.Contact, error)
}

// PurchasingPort reads back generated orders for confirmation payloads.
type PurchasingPort interface {
	GetOrder(ctx context.Context, orgID, orderID int64) (purchasing.PurchaseOrder, []purchasing.POLine, error)
	ListOrders(ctx context.Context, orgID int64, limit int) ([]purchasing.PurchaseOrder, error)
}

// SalesHistoryPort aggregates historical demand.
type SalesHistoryPort interface {
	MonthlyQuantities(ctx context.Context, orgID, itemID int64, from, to time.Time) ([]saleshist.MonthlyDemand, error)
	AverageDailyDemand(ctx context.Context, orgID, itemID int64, days int) (float64, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates reorder automation: suggestion computation, the alert
// lifecycle, demand forecasting and auto-PO generation.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	vendors ContactsPort
	sales   SalesHistoryPort
	orders  PurchasingPort
	audit   AuditPort
	cache   *ReportCache
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds Service. Audit and cache are optional.
func NewService(repo RepositoryPort, cat CatalogPort, vendors ContactsPort, sales SalesHistoryPort, orders PurchasingPort, audit AuditPort, cache *ReportCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		vendors: vendors,
		sales:   sales,
		orders:  orders,
		audit:   audit,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Service) recordAudit(ctx context.Context, orgID, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "reorder",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func (s *Service) bumpReportCache(ctx context.Context, orgID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, orgID); err != nil {
		s.logger.Warn("bump report cache", slog.Int64("org_id", orgID), slog.Any("error", err))
	}
}
