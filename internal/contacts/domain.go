package contacts

import (
	"fmt"
	"time"

	"github.com/stockpilot-erp/stockpilot/internal/shared"
)

// ContactType classifies a contact's commercial role.
type ContactType string

const (
	// TypeCustomer marks a buying counterparty.
	TypeCustomer ContactType = "CUSTOMER"
	// TypeVendor marks a supplying counterparty.
	TypeVendor ContactType = "VENDOR"
	// TypeBoth marks a contact acting as both customer and vendor.
	TypeBoth ContactType = "BOTH"
)

// Contact represents a business counterparty.
type Contact struct {
	ID        int64
	OrgID     int64
	Code      string
	Name      string
	Type      ContactType
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanSupply reports whether the contact may appear as a vendor on a purchase order.
func (c Contact) CanSupply() bool {
	return c.Type == TypeVendor || c.Type == TypeBoth
}

// ErrContactNotFound indicates the contact is absent or outside the organization.
var ErrContactNotFound = fmt.Errorf("contacts: contact %w", shared.ErrNotFound)
