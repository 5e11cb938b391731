package app

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core"
)

// ItemResult is returned by single-item operations.
type ItemResult struct {
	Item *core.InventoryItem `json:"item"`
}

// ItemListResult is returned by ListItems. The totals value the whole
// inventory at purchase cost and at selling price.
type ItemListResult struct {
	Items              []core.InventoryItem `json:"items"`
	TotalPurchaseValue decimal.Decimal      `json:"total_purchase_value"`
	TotalSellingValue  decimal.Decimal      `json:"total_selling_value"`
}

// LogResult is returned by GetInventoryLog.
type LogResult struct {
	Entries []core.InventoryLogEntry `json:"entries"`
}

// BillResult is returned by bill lifecycle operations.
type BillResult struct {
	Bill *core.Bill `json:"bill"`
}

// BillListResult is returned by ListBills and ListEditableBills.
type BillListResult struct {
	Bills []core.Bill `json:"bills"`
}

// DailyProfitResult is returned by GetDailyProfit.
type DailyProfitResult struct {
	Days        []core.DailyProfitRow `json:"days"`
	TotalProfit decimal.Decimal       `json:"total_profit"`
}

// DailyFlowResult is returned by GetDailyFlow.
type DailyFlowResult struct {
	Days []core.DailyFlowRow `json:"days"`
}

// OutstandingResult is returned by GetOutstandingRevenue.
type OutstandingResult struct {
	Outstanding decimal.Decimal `json:"outstanding"`
}

// BillProfitResult is returned by GetProfitPerBill.
type BillProfitResult struct {
	Bills []core.BillProfitRow `json:"bills"`
}

// LogBookResult is returned by GetLogBook.
type LogBookResult struct {
	Entries []core.AuditRow `json:"entries"`
}

// ExportResult carries a rendered spreadsheet and its download filename.
type ExportResult struct {
	Data     []byte
	Filename string
}

// UserView is a user as presented to adapters: the stored account plus the
// derived online/offline status. The password digest never leaves core.
type UserView struct {
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      core.Role  `json:"role"`
	Status    string     `json:"status"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserResult is returned by Login and user CRUD operations.
type UserResult struct {
	User UserView `json:"user"`
}

// UserListResult is returned by ListUsers.
type UserListResult struct {
	Users []UserView `json:"users"`
}

// ResetResult is returned by ResetBills.
type ResetResult struct {
	BillsDeleted int64 `json:"bills_deleted"`
}

func toUserView(u *core.User, now time.Time) UserView {
	return UserView{
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status(now),
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}
