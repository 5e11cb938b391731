package app

import (
	"context"

	"stockbook/internal/core"
)

// ApplicationService is the single interface all UI adapters call. It
// decouples presentation from business logic. Implementations must contain
// no HTTP status codes and no display logic of any kind.
type ApplicationService interface {
	// ── Inventory ──────────────────────────────────────────────

	// ListItems returns every inventory item, newest first.
	ListItems(ctx context.Context) (*ItemListResult, error)

	// GetItem returns a single item by its id.
	GetItem(ctx context.Context, itemID string) (*ItemResult, error)

	// AddItem registers a new item and writes its opening-stock log entry.
	AddItem(ctx context.Context, req AddItemRequest) (*ItemResult, error)

	// UpdateItem applies a price change and/or a quantity delta to an item
	// in one atomic step, logging each movement.
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*ItemResult, error)

	// AdjustItemQuantity applies a bare quantity delta at the item's current
	// prices. A zero delta is a silent no-op.
	AdjustItemQuantity(ctx context.Context, itemID string, delta int64, reason core.ChangeReason) (*ItemResult, error)

	// GetInventoryLog returns the stock movement log, newest first,
	// optionally filtered to one item.
	GetInventoryLog(ctx context.Context, itemID string) (*LogResult, error)

	// ── Billing ────────────────────────────────────────────────

	// CreateBill creates a bill and reserves stock for every line.
	CreateBill(ctx context.Context, req CreateBillRequest) (*BillResult, error)

	// EditBill replaces a bill's lines and metadata, adjusting stock by the
	// net difference per item.
	EditBill(ctx context.Context, req EditBillRequest) (*BillResult, error)

	// DeleteBill removes a bill and returns its stock, writing a reversal
	// log entry per line.
	DeleteBill(ctx context.Context, billID string) error

	// MarkBillPaid flips an unpaid bill to paid.
	MarkBillPaid(ctx context.Context, billID string) error

	// GetBill returns a single bill with its lines.
	GetBill(ctx context.Context, billID string) (*BillResult, error)

	// ListBills returns bills newest first, optionally filtered by payment
	// status ("Paid" or "Unpaid").
	ListBills(ctx context.Context, status string) (*BillListResult, error)

	// ListEditableBills returns bills from the current business day, the
	// only ones open for editing.
	ListEditableBills(ctx context.Context) (*BillListResult, error)

	// GetBillEditAvailability returns the item list as the editor of billID
	// must see it: current stock with the bill's own reservations added back.
	GetBillEditAvailability(ctx context.Context, billID string) (*ItemListResult, error)

	// ── Reporting ──────────────────────────────────────────────

	// GetDailyProfit returns realized profit per business day, paid bills only.
	GetDailyProfit(ctx context.Context) (*DailyProfitResult, error)

	// GetDailyFlow returns sales revenue and purchase spend per business day.
	GetDailyFlow(ctx context.Context) (*DailyFlowResult, error)

	// GetOutstandingRevenue returns the sum owed across unpaid bills.
	GetOutstandingRevenue(ctx context.Context) (*OutstandingResult, error)

	// GetProfitPerBill returns per-bill profit, optionally filtered by status.
	GetProfitPerBill(ctx context.Context, status string) (*BillProfitResult, error)

	// GetLogBook returns the bill audit trail: who created and last edited
	// each bill, and when.
	GetLogBook(ctx context.Context) (*LogBookResult, error)

	// ExportDailyReport builds the spreadsheet for the previous business day.
	ExportDailyReport(ctx context.Context) (*ExportResult, error)

	// ── Identity ───────────────────────────────────────────────

	// Login checks credentials and returns the account on success.
	Login(ctx context.Context, username, password string) (*UserResult, error)

	// VerifyPassphrase checks the step-up passphrase guarding sensitive
	// read surfaces. Returns ErrBadCredentials on mismatch.
	VerifyPassphrase(passphrase string) error

	CreateUser(ctx context.Context, req core.NewUserInput) (*UserResult, error)
	UpdateUser(ctx context.Context, username string, req core.UpdateUserInput) (*UserResult, error)
	DeleteUser(ctx context.Context, username string) error
	ChangePassword(ctx context.Context, username, newPassword string) error
	ListUsers(ctx context.Context) (*UserListResult, error)

	// Heartbeat records account activity for the online/offline indicator.
	Heartbeat(ctx context.Context, username string) error

	// ── Maintenance ────────────────────────────────────────────

	// ResetBills deletes every bill after restoring the stock each one
	// consumed. Returns the number of bills removed.
	ResetBills(ctx context.Context) (*ResetResult, error)

	// PurgeAllData wipes items, logs and bills. Users survive.
	PurgeAllData(ctx context.Context) error
}
