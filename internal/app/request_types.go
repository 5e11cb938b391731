package app

import (
	"github.com/shopspring/decimal"

	"stockbook/internal/core"
)

// AddItemRequest is the input for registering a new inventory item.
type AddItemRequest struct {
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int64           `json:"quantity"`
}

// UpdateItemRequest is the combined item update form: optional price changes
// and an optional quantity delta, applied atomically. A nil price means
// "leave unchanged".
type UpdateItemRequest struct {
	ItemID           string            `json:"item_id"`
	NewPurchasePrice *decimal.Decimal  `json:"new_purchase_price,omitempty"`
	NewSellingPrice  *decimal.Decimal  `json:"new_selling_price,omitempty"`
	QuantityDelta    int64             `json:"quantity_delta"`
	Reason           core.ChangeReason `json:"reason,omitempty"`
}

// BillLineRequest is one line of a bill: which item and how many units.
type BillLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// CreateBillRequest is the input for creating a bill. TotalSellPrice is the
// final (possibly discounted) amount charged, entered by the biller.
type CreateBillRequest struct {
	Lines          []BillLineRequest `json:"items"`
	TotalSellPrice decimal.Decimal   `json:"total_sell_price"`
	PaymentMode    string            `json:"payment_mode"`
	PaymentStatus  string            `json:"payment_status"`
	CustomerName   string            `json:"customer_name,omitempty"`
	Actor          string            `json:"-"` // authenticated username
}

// EditBillRequest replaces a bill's lines and metadata wholesale.
type EditBillRequest struct {
	BillID string `json:"bill_id"`
	CreateBillRequest
}

func (r CreateBillRequest) toInput() core.BillInput {
	lines := make([]core.BillLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = core.BillLineInput{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return core.BillInput{
		Lines:          lines,
		TotalSellPrice: r.TotalSellPrice,
		PaymentMode:    core.PaymentMode(r.PaymentMode),
		PaymentStatus:  core.PaymentStatus(r.PaymentStatus),
		CustomerName:   r.CustomerName,
	}
}
