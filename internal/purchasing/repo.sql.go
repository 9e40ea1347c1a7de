package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides read access to purchase orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the write operations used inside a transaction shared
// with the caller (auto-PO generation commits order and alert together).
type TxRepository interface {
	NextOrderNumber(ctx context.Context, orgID int64) (string, error)
	CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line POLine) error
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds purchase order writes to an existing transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// NextOrderNumber allocates the next per-organization sequence value. The
// counter row is updated atomically; when missing it is seeded from the
// highest previously issued number so the visible sequence never regresses.
func (r *txRepository) NextOrderNumber(ctx context.Context, orgID int64) (string, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO po_counters AS c (org_id, seq)
VALUES ($1, COALESCE((SELECT MAX(NULLIF(substring(number FROM 4), '')::bigint) FROM purchase_orders WHERE org_id=$1), 0) + 1)
ON CONFLICT (org_id) DO UPDATE SET seq = c.seq + 1
RETURNING seq`, orgID).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatNumber(seq), nil
}

func (r *txRepository) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_orders (org_id, number, vendor_id, warehouse_id, status, order_date, expected_date, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW()),$7,$8,$9,NOW()) RETURNING id`,
		po.OrgID, po.Number, po.VendorID, nullInt(po.WarehouseID), string(po.Status), nullTime(po.OrderDate), nullTime(po.ExpectedDate), po.Note, nullInt(po.CreatedBy)).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, line POLine) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO purchase_order_lines (po_id, item_id, qty, unit_price, line_total)
VALUES ($1,$2,$3,$4,$5)`, line.POID, line.ItemID, line.Qty, line.UnitPrice, line.LineTotal)
	return err
}

// GetOrder returns the order header and lines scoped to the organization.
func (r *Repository) GetOrder(ctx context.Context, orgID, orderID int64) (PurchaseOrder, []POLine, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, org_id, number, vendor_id, COALESCE(warehouse_id, 0), status, order_date, COALESCE(expected_date, 'epoch'::timestamptz), note, COALESCE(created_by, 0), created_at
FROM purchase_orders WHERE org_id=$1 AND id=$2`, orgID, orderID).
		Scan(&po.ID, &po.OrgID, &po.Number, &po.VendorID, &po.WarehouseID, &po.Status, &po.OrderDate, &po.ExpectedDate, &po.Note, &po.CreatedBy, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrOrderNotFound
		}
		return PurchaseOrder{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, po_id, item_id, qty, unit_price, line_total FROM purchase_order_lines WHERE po_id=$1 ORDER BY id ASC`, orderID)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		var line POLine
		if err := rows.Scan(&line.ID, &line.POID, &line.ItemID, &line.Qty, &line.UnitPrice, &line.LineTotal); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, line)
	}
	return po, lines, rows.Err()
}

// ListOrders returns the organization's most recent orders.
func (r *Repository) ListOrders(ctx context.Context, orgID int64, limit int) ([]PurchaseOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, org_id, number, vendor_id, COALESCE(warehouse_id, 0), status, order_date, COALESCE(expected_date, 'epoch'::timestamptz), note, COALESCE(created_by, 0), created_at
FROM purchase_orders WHERE org_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []PurchaseOrder{}
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.OrgID, &po.Number, &po.VendorID, &po.WarehouseID, &po.Status, &po.OrderDate, &po.ExpectedDate, &po.Note, &po.CreatedBy, &po.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
