package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeReason classifies an inventory log entry. The inventory log records
// every non-sale quantity or cost-basis movement; sale-driven decrements are
// intentionally absent (the log tracks the purchase side only).
type ChangeReason string

const (
	ReasonInitialStock     ChangeReason = "Initial Stock"
	ReasonRestock          ChangeReason = "Restock"
	ReasonCorrection       ChangeReason = "Correction"
	ReasonPriceRevaluation ChangeReason = "Price Revaluation"
	ReasonBillReversal     ChangeReason = "Bill Deletion Reversal"
)

// InventoryItem is a stock item. Quantity reflects on-hand stock net of all
// open bill reservations.
type InventoryItem struct {
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int64           `json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InventoryLogEntry is one append-only row of the inventory ledger. Entries
// are never updated or deleted once written. A QuantityChange of 0 with a
// nonzero PurchaseCostChange is a pure cost-basis revaluation.
type InventoryLogEntry struct {
	LogID              string          `json:"log_id"`
	ItemID             string          `json:"item_id"`
	ItemName           string          `json:"item_name"` // snapshot at log time
	QuantityChange     int64           `json:"quantity_change"`
	PurchaseCostChange decimal.Decimal `json:"purchase_cost_change"`
	Reason             ChangeReason    `json:"reason"`
	Notes              string          `json:"notes,omitempty"`
	LoggedAt           time.Time       `json:"logged_at"`
}

// NewItemInput carries validated input for CreateItem.
type NewItemInput struct {
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int64           `json:"quantity"`
}

// Normalize trims whitespace from free-text fields.
func (in *NewItemInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

// Validate enforces the item creation rules: non-empty name, non-negative
// prices, selling price at least the purchase price, and at least one unit of
// initial stock. The price floor applies at creation time only; later price
// edits are unchecked.
func (in NewItemInput) Validate() error {
	if in.Name == "" {
		return validationf("item name must not be empty")
	}
	if in.PurchasePrice.IsNegative() {
		return validationf("purchase price must not be negative")
	}
	if in.SellingPrice.IsNegative() {
		return validationf("selling price must not be negative")
	}
	if in.SellingPrice.LessThan(in.PurchasePrice) {
		return validationf("selling price %s is below purchase price %s",
			in.SellingPrice.StringFixed(2), in.PurchasePrice.StringFixed(2))
	}
	if in.Quantity < 1 {
		return validationf("initial quantity must be at least 1")
	}
	return nil
}

// UpdateItemInput carries the combined update form: optional price changes
// applied together with an optional quantity delta in one atomic operation.
// A nil price pointer means "leave unchanged".
type UpdateItemInput struct {
	ItemID           string           `json:"item_id"`
	NewPurchasePrice *decimal.Decimal `json:"new_purchase_price,omitempty"`
	NewSellingPrice  *decimal.Decimal `json:"new_selling_price,omitempty"`
	QuantityDelta    int64            `json:"quantity_delta"`
	Reason           ChangeReason     `json:"reason,omitempty"` // required when QuantityDelta != 0
}

// Validate checks the field-level rules that need no database state.
func (in UpdateItemInput) Validate() error {
	if in.ItemID == "" {
		return validationf("item id must not be empty")
	}
	if in.NewPurchasePrice != nil && in.NewPurchasePrice.IsNegative() {
		return validationf("purchase price must not be negative")
	}
	if in.NewSellingPrice != nil && in.NewSellingPrice.IsNegative() {
		return validationf("selling price must not be negative")
	}
	if in.QuantityDelta != 0 && in.Reason != ReasonRestock && in.Reason != ReasonCorrection {
		return validationf("quantity change reason must be %q or %q", ReasonRestock, ReasonCorrection)
	}
	return nil
}

// newID generates a prefixed unique identifier, e.g. "ITEM-7f9c…".
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
