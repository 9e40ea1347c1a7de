package reorder

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
	"github.com/stockpilot-erp/stockpilot/internal/contacts"
	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
	"github.com/stockpilot-erp/stockpilot/internal/saleshist"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

type settingsKey struct {
	orgID       int64
	itemID      int64
	warehouseID int64
}

// memoryRepo backs the service with maps. WithTx snapshots state and restores
// it when the callback fails, matching transactional rollback.
type memoryRepo struct {
	alerts     map[int64]Alert
	settings   map[settingsKey]Settings
	orders     map[int64]purchasing.PurchaseOrder
	orderLines map[int64][]purchasing.POLine
	counters   map[int64]int64
	nextID     int64

	failInsertLine bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		alerts:     make(map[int64]Alert),
		settings:   make(map[settingsKey]Settings),
		orders:     make(map[int64]purchasing.PurchaseOrder),
		orderLines: make(map[int64][]purchasing.POLine),
		counters:   make(map[int64]int64),
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (r *memoryRepo) snapshot() *memoryRepo {
	lines := make(map[int64][]purchasing.POLine, len(r.orderLines))
	for k, v := range r.orderLines {
		lines[k] = append([]purchasing.POLine(nil), v...)
	}
	return &memoryRepo{
		alerts:     cloneMap(r.alerts),
		settings:   cloneMap(r.settings),
		orders:     cloneMap(r.orders),
		orderLines: lines,
		counters:   cloneMap(r.counters),
		nextID:     r.nextID,
	}
}

func (r *memoryRepo) restore(snap *memoryRepo) {
	r.alerts = snap.alerts
	r.settings = snap.settings
	r.orders = snap.orders
	r.orderLines = snap.orderLines
	r.counters = snap.counters
	r.nextID = snap.nextID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) GetAlert(ctx context.Context, orgID, alertID int64) (Alert, error) {
	alert, ok := r.alerts[alertID]
	if !ok || alert.OrgID != orgID {
		return Alert{}, ErrNotFound
	}
	return alert, nil
}

func (r *memoryRepo) ListAlerts(ctx context.Context, orgID int64, filter AlertFilter) ([]Alert, error) {
	out := []Alert{}
	for _, alert := range r.alerts {
		if alert.OrgID != orgID {
			continue
		}
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		if filter.ItemID != 0 && alert.ItemID != filter.ItemID {
			continue
		}
		out = append(out, alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryRepo) OpenAlertExists(ctx context.Context, orgID, itemID int64) (bool, error) {
	for _, alert := range r.alerts {
		if alert.OrgID == orgID && alert.ItemID == itemID && alert.Status.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) CountAlertsByStatus(ctx context.Context, orgID int64) (map[AlertStatus]int, error) {
	counts := make(map[AlertStatus]int)
	for _, alert := range r.alerts {
		if alert.OrgID == orgID {
			counts[alert.Status]++
		}
	}
	return counts, nil
}

func (r *memoryRepo) CountAutoReorderEnabled(ctx context.Context, orgID int64) (int, error) {
	items := make(map[int64]struct{})
	for key, row := range r.settings {
		if key.orgID == orgID && row.AutoReorder && row.IsActive {
			items[row.ItemID] = struct{}{}
		}
	}
	return len(items), nil
}

func (r *memoryRepo) GetSettingsRow(ctx context.Context, orgID, itemID, warehouseID int64) (Settings, error) {
	row, ok := r.settings[settingsKey{orgID, itemID, warehouseID}]
	if !ok || !row.IsActive {
		return Settings{}, ErrNotFound
	}
	return row, nil
}

func (r *memoryRepo) ListSettingsForItems(ctx context.Context, orgID int64, itemIDs []int64) ([]Settings, error) {
	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	out := []Settings{}
	for key, row := range r.settings {
		if key.orgID != orgID || !row.IsActive {
			continue
		}
		if _, ok := wanted[row.ItemID]; !ok {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) UpsertSettings(ctx context.Context, orgID, itemID, warehouseID int64, patch SettingsPatch) (Settings, error) {
	key := settingsKey{orgID, itemID, warehouseID}
	row, ok := r.settings[key]
	if !ok {
		r.nextID++
		row = Settings{
			ID:          r.nextID,
			OrgID:       orgID,
			ItemID:      itemID,
			WarehouseID: warehouseID,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
	}
	if patch.ReorderLevel != nil {
		row.ReorderLevel = *patch.ReorderLevel
	}
	if patch.ReorderQty != nil {
		row.ReorderQty = *patch.ReorderQty
	}
	if patch.SafetyStock != nil {
		row.SafetyStock = *patch.SafetyStock
	}
	if patch.LeadTimeDays != nil {
		row.LeadTimeDays = *patch.LeadTimeDays
	}
	if patch.PreferredVendorID != nil {
		row.PreferredVendorID = *patch.PreferredVendorID
	}
	if patch.AutoReorder != nil {
		row.AutoReorder = *patch.AutoReorder
	}
	if patch.IsActive != nil {
		row.IsActive = *patch.IsActive
	}
	row.UpdatedAt = time.Now().UTC()
	r.settings[key] = row
	return row, nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, orgID, orderID int64) (purchasing.PurchaseOrder, []purchasing.POLine, error) {
	order, ok := r.orders[orderID]
	if !ok || order.OrgID != orgID {
		return purchasing.PurchaseOrder{}, nil, purchasing.ErrOrderNotFound
	}
	return order, append([]purchasing.POLine(nil), r.orderLines[orderID]...), nil
}

func (r *memoryRepo) ListOrders(ctx context.Context, orgID int64, limit int) ([]purchasing.PurchaseOrder, error) {
	out := []purchasing.PurchaseOrder{}
	for _, order := range r.orders {
		if order.OrgID == orgID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) GetAlertForUpdate(ctx context.Context, orgID, alertID int64) (Alert, error) {
	return tx.repo.GetAlert(ctx, orgID, alertID)
}

func (tx *memoryTx) UpdateAlertStatus(ctx context.Context, alertID int64, status AlertStatus, resolvedAt *time.Time) error {
	alert, ok := tx.repo.alerts[alertID]
	if !ok {
		return ErrNotFound
	}
	alert.Status = status
	alert.ResolvedAt = resolvedAt
	tx.repo.alerts[alertID] = alert
	return nil
}

func (tx *memoryTx) LinkAlertToOrder(ctx context.Context, alertID, orderID int64) error {
	alert, ok := tx.repo.alerts[alertID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	alert.Status = AlertStatusPOCreated
	alert.PurchaseOrderID = orderID
	alert.ResolvedAt = &now
	tx.repo.alerts[alertID] = alert
	return nil
}

func (tx *memoryTx) InsertAlert(ctx context.Context, alert Alert) (int64, error) {
	exists, _ := tx.repo.OpenAlertExists(ctx, alert.OrgID, alert.ItemID)
	if exists {
		return 0, ErrAlertOpen
	}
	tx.repo.nextID++
	alert.ID = tx.repo.nextID
	tx.repo.alerts[alert.ID] = alert
	return alert.ID, nil
}

func (tx *memoryTx) Purchasing() purchasing.TxRepository {
	return &memoryPurchTx{repo: tx.repo}
}

type memoryPurchTx struct {
	repo *memoryRepo
}

func (tx *memoryPurchTx) NextOrderNumber(ctx context.Context, orgID int64) (string, error) {
	tx.repo.counters[orgID]++
	return purchasing.FormatNumber(tx.repo.counters[orgID]), nil
}

func (tx *memoryPurchTx) CreateOrder(ctx context.Context, po purchasing.PurchaseOrder) (int64, error) {
	tx.repo.nextID++
	po.ID = tx.repo.nextID
	tx.repo.orders[po.ID] = po
	return po.ID, nil
}

func (tx *memoryPurchTx) InsertLine(ctx context.Context, line purchasing.POLine) error {
	if tx.repo.failInsertLine {
		return errors.New("simulated storage failure")
	}
	tx.repo.orderLines[line.POID] = append(tx.repo.orderLines[line.POID], line)
	return nil
}

type stubCatalog struct {
	items      map[int64]catalog.Item
	levels     []catalog.StockLevel
	warehouses []catalog.Warehouse
}

func (c *stubCatalog) GetItem(ctx context.Context, orgID, itemID int64) (catalog.Item, error) {
	item, ok := c.items[itemID]
	if !ok || item.OrgID != orgID {
		return catalog.Item{}, catalog.ErrItemNotFound
	}
	return item, nil
}

func (c *stubCatalog) ListTrackedItems(ctx context.Context, orgID int64) ([]catalog.Item, error) {
	out := []catalog.Item{}
	for _, item := range c.items {
		if item.OrgID == orgID && item.TrackStock && item.IsActive {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (c *stubCatalog) StockLevels(ctx context.Context, orgID int64, itemIDs []int64) ([]catalog.StockLevel, error) {
	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	out := []catalog.StockLevel{}
	for _, lvl := range c.levels {
		if len(wanted) > 0 {
			if _, ok := wanted[lvl.ItemID]; !ok {
				continue
			}
		}
		out = append(out, lvl)
	}
	return out, nil
}

func (c *stubCatalog) ListWarehouses(ctx context.Context, orgID int64) ([]catalog.Warehouse, error) {
	out := []catalog.Warehouse{}
	for _, wh := range c.warehouses {
		if wh.OrgID == orgID {
			out = append(out, wh)
		}
	}
	return out, nil
}

type stubContacts struct {
	contacts map[int64]contacts.Contact
}

func (c *stubContacts) GetContact(ctx context.Context, orgID, contactID int64) (contacts.Contact, error) {
	contact, ok := c.contacts[contactID]
	if !ok || contact.OrgID != orgID {
		return contacts.Contact{}, contacts.ErrContactNotFound
	}
	return contact, nil
}

type stubSales struct {
	monthly  map[int64][]saleshist.MonthlyDemand
	avgDaily map[int64]float64
}

func (s *stubSales) MonthlyQuantities(ctx context.Context, orgID, itemID int64, from, to time.Time) ([]saleshist.MonthlyDemand, error) {
	return s.monthly[itemID], nil
}

func (s *stubSales) AverageDailyDemand(ctx context.Context, orgID, itemID int64, days int) (float64, error) {
	return s.avgDaily[itemID], nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (a *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

// fixture bundles a service with all of its in-memory collaborators.
type fixture struct {
	repo    *memoryRepo
	catalog *stubCatalog
	vendors *stubContacts
	sales   *stubSales
	audit   *stubAudit
	service *Service
}

const testOrg int64 = 1

func newFixture() *fixture {
	f := &fixture{
		repo:    newMemoryRepo(),
		catalog: &stubCatalog{items: map[int64]catalog.Item{}},
		vendors: &stubContacts{contacts: map[int64]contacts.Contact{}},
		sales:   &stubSales{monthly: map[int64][]saleshist.MonthlyDemand{}, avgDaily: map[int64]float64{}},
		audit:   &stubAudit{},
	}
	f.service = NewService(f.repo, f.catalog, f.vendors, f.sales, f.repo, f.audit, nil, nil)
	return f
}

func (f *fixture) addItem(item catalog.Item) catalog.Item {
	if item.OrgID == 0 {
		item.OrgID = testOrg
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}
	item.TrackStock = true
	item.IsActive = true
	f.catalog.items[item.ID] = item
	return item
}

func (f *fixture) addStock(itemID, warehouseID int64, onHand, committed float64) {
	f.catalog.levels = append(f.catalog.levels, catalog.StockLevel{
		ItemID:         itemID,
		WarehouseID:    warehouseID,
		StockOnHand:    onHand,
		CommittedStock: committed,
	})
}

func (f *fixture) addWarehouse(id int64, code string) {
	f.catalog.warehouses = append(f.catalog.warehouses, catalog.Warehouse{ID: id, OrgID: testOrg, Code: code, Name: code, IsActive: true})
}

func (f *fixture) addVendor(id int64, typ contacts.ContactType) {
	f.vendors.contacts[id] = contacts.Contact{ID: id, OrgID: testOrg, Name: "Vendor", Type: typ, IsActive: true}
}

func (f *fixture) addAlert(alert Alert) Alert {
	if alert.OrgID == 0 {
		alert.OrgID = testOrg
	}
	if alert.Status == "" {
		alert.Status = AlertStatusPending
	}
	f.repo.nextID++
	alert.ID = f.repo.nextID
	f.repo.alerts[alert.ID] = alert
	return alert
}
