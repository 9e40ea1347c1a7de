package reorder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// POOverride optionally redirects a generated purchase order. Zero fields
// keep the resolved defaults.
type POOverride struct {
	VendorID    int64 `json:"vendor_id" validate:"omitempty,gt=0"`
	WarehouseID int64 `json:"warehouse_id" validate:"omitempty,gt=0"`
}

// CreatePOFromAlert generates a draft purchase order covering one alert's
// suggested quantity and marks the alert PO_CREATED. The order insert, the
// number allocation and the alert transition commit in a single transaction;
// if any step fails nothing is persisted, including the allocated number.
func (s *Service) CreatePOFromAlert(ctx context.Context, orgID, alertID, actorID int64, override POOverride) (purchasing.PurchaseOrder, error) {
	alert, err := s.repo.GetAlert(ctx, orgID, alertID)
	if err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	if alert.Status.Terminal() {
		return purchasing.PurchaseOrder{}, fmt.Errorf("%w: alert is %s", ErrInvalidState, alert.Status)
	}

	item, err := s.catalog.GetItem(ctx, orgID, alert.ItemID)
	if err != nil {
		return purchasing.PurchaseOrder{}, err
	}

	effective, err := s.ResolveSettings(ctx, orgID, alert.ItemID, alert.WarehouseID)
	if err != nil {
		return purchasing.PurchaseOrder{}, err
	}

	vendorID := override.VendorID
	if vendorID == 0 {
		vendorID = effective.PreferredVendorID
	}
	if vendorID == 0 {
		return purchasing.PurchaseOrder{}, fmt.Errorf("%w: item %d", ErrNoVendor, alert.ItemID)
	}
	vendor, err := s.vendors.GetContact(ctx, orgID, vendorID)
	if err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	if !vendor.CanSupply() {
		return purchasing.PurchaseOrder{}, fmt.Errorf("%w: contact %d is not a vendor", ErrNoVendor, vendorID)
	}

	qty := alert.SuggestedQty
	if qty <= 0 {
		return purchasing.PurchaseOrder{}, fmt.Errorf("%w: alert %d has no suggested quantity", ErrValidation, alertID)
	}

	warehouseID := alert.WarehouseID
	if override.WarehouseID != 0 {
		warehouseID = override.WarehouseID
	}

	ref := alertPORef(orgID, alertID)
	now := s.now().UTC()
	order := purchasing.PurchaseOrder{
		OrgID:       orgID,
		VendorID:    vendorID,
		WarehouseID: warehouseID,
		Status:      purchasing.POStatusDraft,
		OrderDate:   now,
		Note:        fmt.Sprintf("Auto-generated from reorder alert #%d (ref %s)", alertID, ref),
		CreatedBy:   actorID,
		CreatedAt:   now,
	}
	if effective.LeadTimeDays > 0 {
		order.ExpectedDate = now.AddDate(0, 0, effective.LeadTimeDays)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAlertForUpdate(ctx, orgID, alertID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: alert is %s", ErrInvalidState, current.Status)
		}

		po := tx.Purchasing()
		number, err := po.NextOrderNumber(ctx, orgID)
		if err != nil {
			return err
		}
		order.Number = number

		orderID, err := po.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID

		line := purchasing.POLine{
			POID:      orderID,
			ItemID:    alert.ItemID,
			Qty:       qty,
			UnitPrice: item.CostPrice,
			LineTotal: qty * item.CostPrice,
		}
		if err := po.InsertLine(ctx, line); err != nil {
			return err
		}
		return tx.LinkAlertToOrder(ctx, alertID, orderID)
	})
	if err != nil {
		return purchasing.PurchaseOrder{}, err
	}

	s.recordAudit(ctx, orgID, actorID, "REORDER_PO_CREATE", alertID, map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"vendor_id":    vendorID,
		"qty":          qty,
		"ref":          ref,
	})
	s.bumpReportCache(ctx, orgID)
	s.logger.Info("purchase order generated from alert",
		slog.Int64("org_id", orgID),
		slog.Int64("alert_id", alertID),
		slog.String("number", order.Number))
	return order, nil
}

// GetPurchaseOrder reads back a generated order with its lines.
func (s *Service) GetPurchaseOrder(ctx context.Context, orgID, orderID int64) (purchasing.PurchaseOrder, []purchasing.POLine, error) {
	if s.orders == nil {
		return purchasing.PurchaseOrder{}, nil, purchasing.ErrOrderNotFound
	}
	return s.orders.GetOrder(ctx, orgID, orderID)
}

// ListPurchaseOrders lists recent orders for the organization.
func (s *Service) ListPurchaseOrders(ctx context.Context, orgID int64, limit int) ([]purchasing.PurchaseOrder, error) {
	if s.orders == nil {
		return []purchasing.PurchaseOrder{}, nil
	}
	return s.orders.ListOrders(ctx, orgID, limit)
}

// alertPORef derives the stable reference id linking a generated purchase
// order back to its alert. Same alert, same id, so retries and audit rows
// stay correlated.
func alertPORef(orgID, alertID int64) string {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("ALERT:%d:%d", orgID, alertID))).String()
}

// bulkRunKey derives the idempotency key for one bulk PO run over a fixed
// set of alerts.
func bulkRunKey(orgID int64, alertIDs []int64) string {
	ids := append([]int64(nil), alertIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var b strings.Builder
	fmt.Fprintf(&b, "BULKPO:%d", orgID)
	for _, id := range ids {
		fmt.Fprintf(&b, ":%d", id)
	}
	return uuid.NewSHA1(uuid.Nil, []byte(b.String())).String()
}

// BulkCreatePOs generates purchase orders for several alerts. Each alert is
// processed independently; one failure never aborts the rest, and the outcome
// for every alert is reported back.
func (s *Service) BulkCreatePOs(ctx context.Context, orgID, actorID int64, alertIDs []int64) (BulkPOResult, error) {
	if len(alertIDs) == 0 {
		return BulkPOResult{}, fmt.Errorf("%w: no alert ids given", ErrValidation)
	}

	result := BulkPOResult{
		IdempotencyKey: bulkRunKey(orgID, alertIDs),
		Results:        make([]BulkPOOutcome, 0, len(alertIDs)),
	}
	for _, alertID := range alertIDs {
		order, err := s.CreatePOFromAlert(ctx, orgID, alertID, actorID, POOverride{})
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, BulkPOOutcome{
				AlertID: alertID,
				Error:   shared.UserSafeMessage(err),
			})
			continue
		}
		result.Created++
		result.Results = append(result.Results, BulkPOOutcome{
			AlertID:     alertID,
			OrderID:     order.ID,
			OrderNumber: order.Number,
		})
	}
	s.recordAudit(ctx, orgID, actorID, "REORDER_PO_BULK", 0, map[string]any{
		"idempotency_key": result.IdempotencyKey,
		"created":         result.Created,
		"failed":          result.Failed,
	})
	return result, nil
}
