package purchasing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// POStatus enumerates purchase order lifecycle states.
type POStatus string

const (
	// POStatusDraft is the initial state of generated orders.
	POStatusDraft POStatus = "DRAFT"
	// POStatusSubmitted means the order awaits approval.
	POStatusSubmitted POStatus = "SUBMITTED"
	// POStatusApproved means the order may be sent to the vendor.
	POStatusApproved POStatus = "APPROVED"
	// POStatusClosed means the order is fully received.
	POStatusClosed POStatus = "CLOSED"
	// POStatusCancelled means the order was withdrawn.
	POStatusCancelled POStatus = "CANCELLED"
)

// PurchaseOrder models the order header.
type PurchaseOrder struct {
	ID           int64
	OrgID        int64
	Number       string
	VendorID     int64
	WarehouseID  int64
	Status       POStatus
	OrderDate    time.Time
	ExpectedDate time.Time
	Note         string
	CreatedBy    int64
	CreatedAt    time.Time
}

// POLine models one order line.
type POLine struct {
	ID        int64
	POID      int64
	ItemID    int64
	Qty       float64
	UnitPrice float64
	LineTotal float64
}

const numberPrefix = "PO-"

// FormatNumber renders a sequence value in the PO-000123 order number format.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", numberPrefix, seq)
}

// NumberSeq extracts the numeric suffix of an order number. Zero when the
// number does not follow the generated format.
func NumberSeq(number string) int64 {
	raw := strings.TrimPrefix(number, numberPrefix)
	if raw == number {
		return 0
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// ErrOrderNotFound indicates the order is absent or outside the organization.
var ErrOrderNotFound = fmt.Errorf("purchasing: order %w", shared.ErrNotFound)
