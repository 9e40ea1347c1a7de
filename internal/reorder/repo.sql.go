package reorder

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot-erp/stockpilot/internal/platform/db"
	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
)

// Repository persists reorder settings and alerts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. Purchase
// order writes share the same transaction so the PO/alert pair commits as one
// unit.
type TxRepository interface {
	GetAlertForUpdate(ctx context.Context, orgID, alertID int64) (Alert, error)
	UpdateAlertStatus(ctx context.Context, alertID int64, status AlertStatus, resolvedAt *time.Time) error
	LinkAlertToOrder(ctx context.Context, alertID, orderID int64) error
	InsertAlert(ctx context.Context, alert Alert) (int64, error)
	Purchasing() purchasing.TxRepository
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("reorder repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const alertColumns = `id, org_id, item_id, COALESCE(warehouse_id, 0), current_stock, reorder_level, suggested_qty, status, notified_at, resolved_at, COALESCE(purchase_order_id, 0)`

func scanAlert(row pgx.Row) (Alert, error) {
	var alert Alert
	err := row.Scan(&alert.ID, &alert.OrgID, &alert.ItemID, &alert.WarehouseID, &alert.CurrentStock, &alert.ReorderLevel, &alert.SuggestedQty, &alert.Status, &alert.NotifiedAt, &alert.ResolvedAt, &alert.PurchaseOrderID)
	return alert, err
}

// GetAlert loads one alert scoped to the organization.
func (r *Repository) GetAlert(ctx context.Context, orgID, alertID int64) (Alert, error) {
	alert, err := scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM reorder_alerts WHERE org_id=$1 AND id=$2`, orgID, alertID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Alert{}, ErrNotFound
		}
		return Alert{}, err
	}
	return alert, nil
}

// ListAlerts returns alerts matching the filter, newest first.
func (r *Repository) ListAlerts(ctx context.Context, orgID int64, filter AlertFilter) ([]Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+alertColumns+` FROM reorder_alerts
WHERE org_id=$1
  AND ($2 = '' OR status = $2)
  AND ($3 = 0 OR item_id = $3)
ORDER BY notified_at DESC, id DESC
LIMIT $4`, orgID, string(filter.Status), filter.ItemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	alerts := []Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// OpenAlertExists reports whether the item already has a PENDING or
// ACKNOWLEDGED alert.
func (r *Repository) OpenAlertExists(ctx context.Context, orgID, itemID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reorder_alerts WHERE org_id=$1 AND item_id=$2 AND status IN ('PENDING','ACKNOWLEDGED'))`, orgID, itemID).Scan(&exists)
	return exists, err
}

// CountAlertsByStatus groups the organization's alerts by status.
func (r *Repository) CountAlertsByStatus(ctx context.Context, orgID int64) (map[AlertStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM reorder_alerts WHERE org_id=$1 GROUP BY status`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[AlertStatus]int{}
	for rows.Next() {
		var status AlertStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountAutoReorderEnabled counts items with an active auto-reorder setting.
func (r *Repository) CountAutoReorderEnabled(ctx context.Context, orgID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT item_id) FROM reorder_settings WHERE org_id=$1 AND auto_reorder AND is_active`, orgID).Scan(&count)
	return count, err
}

const settingsColumns = `id, org_id, item_id, COALESCE(warehouse_id, 0), reorder_level, reorder_qty, safety_stock, lead_time_days, COALESCE(preferred_vendor_id, 0), auto_reorder, is_active, created_at, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(&s.ID, &s.OrgID, &s.ItemID, &s.WarehouseID, &s.ReorderLevel, &s.ReorderQty, &s.SafetyStock, &s.LeadTimeDays, &s.PreferredVendorID, &s.AutoReorder, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSettingsRow returns the active settings row for the exact (item, warehouse)
// pair; warehouseID 0 addresses the item-global row.
func (r *Repository) GetSettingsRow(ctx context.Context, orgID, itemID, warehouseID int64) (Settings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM reorder_settings
WHERE org_id=$1 AND item_id=$2 AND COALESCE(warehouse_id, 0)=$3 AND is_active
ORDER BY id ASC LIMIT 1`, orgID, itemID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

// ListSettingsForItems returns every active settings row for the given items,
// keyed for bulk resolution during catalog sweeps.
func (r *Repository) ListSettingsForItems(ctx context.Context, orgID int64, itemIDs []int64) ([]Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingsColumns+` FROM reorder_settings
WHERE org_id=$1 AND is_active AND (cardinality($2::bigint[]) = 0 OR item_id = ANY($2::bigint[]))
ORDER BY item_id ASC, COALESCE(warehouse_id, 0) ASC, id ASC`, orgID, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	settings := []Settings{}
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSettings writes a settings row for the (item, warehouse) pair. A second
// write with the same key updates the existing row; unspecified fields keep
// their stored values on update and materialise to documented defaults on
// first insert.
func (r *Repository) UpsertSettings(ctx context.Context, orgID, itemID, warehouseID int64, patch SettingsPatch) (Settings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx, `INSERT INTO reorder_settings AS rs
  (org_id, item_id, warehouse_id, reorder_level, reorder_qty, safety_stock, lead_time_days, preferred_vendor_id, auto_reorder, is_active, created_at, updated_at)
VALUES ($1, $2, $3, COALESCE($4, 0), COALESCE($5, 0), COALESCE($6, 0), COALESCE($7, 0), $8, COALESCE($9, FALSE), COALESCE($10, TRUE), NOW(), NOW())
ON CONFLICT (org_id, item_id, warehouse_id) DO UPDATE SET
  reorder_level = COALESCE($4, rs.reorder_level),
  reorder_qty = COALESCE($5, rs.reorder_qty),
  safety_stock = COALESCE($6, rs.safety_stock),
  lead_time_days = COALESCE($7, rs.lead_time_days),
  preferred_vendor_id = COALESCE($8, rs.preferred_vendor_id),
  auto_reorder = COALESCE($9, rs.auto_reorder),
  is_active = COALESCE($10, rs.is_active),
  updated_at = NOW()
RETURNING `+settingsColumns,
		orgID, itemID, warehouseID, patch.ReorderLevel, patch.ReorderQty, patch.SafetyStock, patch.LeadTimeDays, patch.PreferredVendorID, patch.AutoReorder, patch.IsActive))
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (r *txRepository) GetAlertForUpdate(ctx context.Context, orgID, alertID int64) (Alert, error) {
	alert, err := scanAlert(r.tx.QueryRow(ctx, `SELECT `+alertColumns+` FROM reorder_alerts WHERE org_id=$1 AND id=$2 FOR UPDATE`, orgID, alertID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Alert{}, ErrNotFound
		}
		return Alert{}, err
	}
	return alert, nil
}

func (r *txRepository) UpdateAlertStatus(ctx context.Context, alertID int64, status AlertStatus, resolvedAt *time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE reorder_alerts SET status=$2, resolved_at=$3 WHERE id=$1`, alertID, string(status), resolvedAt)
	return err
}

func (r *txRepository) LinkAlertToOrder(ctx context.Context, alertID, orderID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE reorder_alerts SET status='PO_CREATED', purchase_order_id=$2, resolved_at=NOW() WHERE id=$1`, alertID, orderID)
	return err
}

// InsertAlert creates a PENDING alert. The partial unique index on open alerts
// turns a concurrent duplicate into ErrAlertOpen instead of a second row.
func (r *txRepository) InsertAlert(ctx context.Context, alert Alert) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO reorder_alerts (org_id, item_id, warehouse_id, current_stock, reorder_level, suggested_qty, status, notified_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
		alert.OrgID, alert.ItemID, nullInt(alert.WarehouseID), alert.CurrentStock, alert.ReorderLevel, alert.SuggestedQty, string(alert.Status)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrAlertOpen
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) Purchasing() purchasing.TxRepository {
	return purchasing.NewTxRepository(r.tx)
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
