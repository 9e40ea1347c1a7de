package reorder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot-erp/stockpilot/internal/catalog"
	"github.com/stockpilot-erp/stockpilot/internal/contacts"
	"github.com/stockpilot-erp/stockpilot/internal/platform/httpx"
	"github.com/stockpilot-erp/stockpilot/internal/purchasing"
	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// Handler wires HTTP endpoints for the reorder module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the reorder handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers reorder routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suggestions", h.handleSuggestions)
	r.Post("/check", h.handleCheck)

	r.Post("/settings/bulk", h.handleBulkSettings)
	r.Get("/settings/{itemID}", h.handleGetSettings)
	r.Put("/settings/{itemID}", h.handlePutSettings)

	r.Get("/alerts", h.handleListAlerts)
	r.Post("/alerts/{alertID}/acknowledge", h.handleAcknowledge)
	r.Post("/alerts/{alertID}/resolve", h.handleResolve)
	r.Post("/alerts/{alertID}/purchase-order", h.handleCreatePO)
	r.Post("/purchase-orders/bulk", h.handleBulkPOs)
	r.Get("/purchase-orders", h.handleListOrders)
	r.Get("/purchase-orders/{orderID}", h.handleGetOrder)

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByRealIP)))
		r.Get("/forecast/{itemID}", h.handleForecast)
		r.Get("/report", h.handleReport)
	})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (shared.Scope, bool) {
	scope := shared.ScopeFromContext(r.Context())
	if scope.OrgID == 0 {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "organization scope required")
		return shared.Scope{}, false
	}
	return scope, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, contacts.ErrContactNotFound),
		errors.Is(err, purchasing.ErrOrderNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNoVendor):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid State", shared.UserSafeMessage(err))
	case errors.Is(err, ErrAlertOpen):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	default:
		h.logger.Error("reorder request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	suggestions, err := h.service.GetSuggestions(r.Context(), scope.OrgID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suggestions": suggestions, "count": len(suggestions)})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	result, err := h.service.CheckReorderPoints(r.Context(), scope.OrgID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	var warehouseID int64
	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		warehouseID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
			return
		}
	}
	effective, err := h.service.ResolveSettings(r.Context(), scope.OrgID, itemID, warehouseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":             itemID,
		"warehouse_id":        warehouseID,
		"source":              effective.Source,
		"reorder_level":       effective.ReorderLevel,
		"reorder_qty":         effective.ReorderQty,
		"safety_stock":        effective.SafetyStock,
		"lead_time_days":      effective.LeadTimeDays,
		"preferred_vendor_id": effective.PreferredVendorID,
		"auto_reorder":        effective.AutoReorder,
	})
}

type settingsRequest struct {
	WarehouseID int64         `json:"warehouse_id"`
	Settings    SettingsPatch `json:"settings"`
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req.Settings); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	row, err := h.service.UpdateSettings(r.Context(), scope.OrgID, itemID, req.WarehouseID, scope.ActorID, req.Settings)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsPayload(row))
}

type bulkSettingsRequest struct {
	Items []BulkSettingsInput `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleBulkSettings(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req bulkSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows, err := h.service.BulkUpdateSettings(r.Context(), scope.OrgID, scope.ActorID, req.Items)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	payloads := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, settingsPayload(row))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": payloads, "count": len(payloads)})
}

func settingsPayload(row Settings) map[string]any {
	return map[string]any{
		"id":                  row.ID,
		"item_id":             row.ItemID,
		"warehouse_id":        row.WarehouseID,
		"reorder_level":       row.ReorderLevel,
		"reorder_qty":         row.ReorderQty,
		"safety_stock":        row.SafetyStock,
		"lead_time_days":      row.LeadTimeDays,
		"preferred_vendor_id": row.PreferredVendorID,
		"auto_reorder":        row.AutoReorder,
		"is_active":           row.IsActive,
		"updated_at":          row.UpdatedAt,
	}
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	filter := AlertFilter{}
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filter.Status = AlertStatus(status)
	}
	if raw := q.Get("item_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ItemID = id
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	alerts, err := h.service.ListAlerts(r.Context(), scope.OrgID, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": alertPayloads(alerts), "count": len(alerts)})
}

func alertPayloads(alerts []Alert) []map[string]any {
	out := make([]map[string]any, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, alertPayload(alert))
	}
	return out
}

func alertPayload(alert Alert) map[string]any {
	payload := map[string]any{
		"id":            alert.ID,
		"item_id":       alert.ItemID,
		"warehouse_id":  alert.WarehouseID,
		"current_stock": alert.CurrentStock,
		"reorder_level": alert.ReorderLevel,
		"suggested_qty": alert.SuggestedQty,
		"status":        alert.Status,
		"notified_at":   alert.NotifiedAt,
	}
	if alert.ResolvedAt != nil {
		payload["resolved_at"] = alert.ResolvedAt
	}
	if alert.PurchaseOrderID != 0 {
		payload["purchase_order_id"] = alert.PurchaseOrderID
	}
	return payload
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, h.service.AcknowledgeAlert)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, h.service.ResolveAlert)
}

func (h *Handler) transitionAlert(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, orgID, alertID, actorID int64) (Alert, error)) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	alertID, err := pathID(r, "alertID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid alert id")
		return
	}
	alert, err := fn(r.Context(), scope.OrgID, alertID, scope.ActorID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alertPayload(alert))
}

func (h *Handler) handleCreatePO(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	alertID, err := pathID(r, "alertID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid alert id")
		return
	}
	var override POOverride
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &override); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
		if err := h.validate.Struct(override); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
	}
	order, err := h.service.CreatePOFromAlert(r.Context(), scope.OrgID, alertID, scope.ActorID, override)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"vendor_id":    order.VendorID,
		"status":       order.Status,
	})
}

func (h *Handler) handleBulkPOs(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req struct {
		AlertIDs []int64 `json:"alert_ids" validate:"required,min=1"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.BulkCreatePOs(r.Context(), scope.OrgID, scope.ActorID, req.AlertIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "orderID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, lines, err := h.service.GetPurchaseOrder(r.Context(), scope.OrgID, orderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderPayload(order, lines))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	orders, err := h.service.ListPurchaseOrders(r.Context(), scope.OrgID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}

func orderPayload(order purchasing.PurchaseOrder, lines []purchasing.POLine) map[string]any {
	lineViews := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		lineViews = append(lineViews, map[string]any{
			"item_id":    line.ItemID,
			"qty":        line.Qty,
			"unit_price": line.UnitPrice,
			"line_total": line.LineTotal,
		})
	}
	payload := map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"vendor_id":    order.VendorID,
		"status":       order.Status,
		"order_date":   order.OrderDate,
		"note":         order.Note,
		"lines":        lineViews,
	}
	if order.WarehouseID != 0 {
		payload["warehouse_id"] = order.WarehouseID
	}
	if !order.ExpectedDate.IsZero() {
		payload["expected_date"] = order.ExpectedDate
	}
	return payload
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	periods := 0
	if raw := r.URL.Query().Get("periods"); raw != "" {
		periods, err = strconv.Atoi(raw)
		if err != nil || periods < 1 || periods > 24 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "periods must be between 1 and 24")
			return
		}
	}
	forecast, err := h.service.ForecastDemand(r.Context(), scope.OrgID, itemID, periods)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, forecast)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.GetReport(r.Context(), scope.OrgID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
