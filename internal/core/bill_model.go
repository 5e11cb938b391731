package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash PaymentMode = "Cash"
	PaymentUPI  PaymentMode = "UPI"
)

type PaymentStatus string

const (
	StatusPaid   PaymentStatus = "Paid"
	StatusUnpaid PaymentStatus = "Unpaid"
)

// BillLine is one persisted line of a bill. Item name and selling price are
// snapshots taken at bill creation; the purchase price is deliberately not
// stored on the line (cost lives in the bill header total only).
type BillLine struct {
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	Quantity     int64           `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Bill is a persisted sale. An open bill holds a stock reservation: creating
// it decremented each referenced item's quantity, and deleting or editing it
// must release or re-apply that decrement exactly.
type Bill struct {
	BillID            string          `json:"bill_id"`
	Lines             []BillLine      `json:"items"`
	TotalPurchaseCost decimal.Decimal `json:"total_purchase_cost"`
	TotalSellPrice    decimal.Decimal `json:"total_sell_price"`
	Profit            decimal.Decimal `json:"profit"`
	PaymentMode       PaymentMode     `json:"payment_mode"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	CustomerName      string          `json:"customer_name,omitempty"`
	CreatedBy         string          `json:"created_by"`
	LastEditedBy      string          `json:"last_edited_by,omitempty"`
	BilledAt          time.Time       `json:"billed_at"`
}

// BillLineInput is one requested line: the item and how many units to sell.
type BillLineInput struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// BillInput carries validated input for CreateBill and EditBill. The total
// sell price is user-overridable and need not equal the sum of line prices
// (at-cost and negotiated sales are normal).
type BillInput struct {
	Lines          []BillLineInput `json:"items"`
	TotalSellPrice decimal.Decimal `json:"total_sell_price"`
	PaymentMode    PaymentMode     `json:"payment_mode"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	CustomerName   string          `json:"customer_name,omitempty"`
}

// Normalize trims free-text fields and defaults the payment status to Paid,
// matching the billing form's default.
func (in *BillInput) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.PaymentStatus == "" {
		in.PaymentStatus = StatusPaid
	}
}

// Validate enforces bill input rules: at least one line, positive quantities,
// no item listed twice, a positive total, and known payment enums.
func (in BillInput) Validate() error {
	if len(in.Lines) == 0 {
		return validationf("bill must have at least one line item")
	}
	seen := make(map[string]bool, len(in.Lines))
	for i, line := range in.Lines {
		if line.ItemID == "" {
			return validationf("line %d: item id must not be empty", i+1)
		}
		if line.Quantity < 1 {
			return validationf("line %d: quantity must be at least 1", i+1)
		}
		if seen[line.ItemID] {
			return validationf("line %d: item %s appears more than once", i+1, line.ItemID)
		}
		seen[line.ItemID] = true
	}
	if !in.TotalSellPrice.IsPositive() {
		return validationf("total sell price must be positive")
	}
	if in.PaymentMode != PaymentCash && in.PaymentMode != PaymentUPI {
		return validationf("payment mode must be %q or %q", PaymentCash, PaymentUPI)
	}
	if in.PaymentStatus != StatusPaid && in.PaymentStatus != StatusUnpaid {
		return validationf("payment status must be %q or %q", StatusPaid, StatusUnpaid)
	}
	return nil
}
