package app

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/shopspring/decimal"

	"stockbook/internal/core"
)

// Options carries the behavior switches read from the environment at startup.
type Options struct {
	// StepUpPassphrase guards the sensitive read surfaces (item history,
	// profit reports, log book).
	StepUpPassphrase string
	// ResetWritesLog controls whether the bulk bill reset records its stock
	// restores in the inventory log.
	ResetWritesLog bool
}

type appService struct {
	inventory core.InventoryService
	billing   core.BillingService
	reporting core.ReportingService
	export    core.ExportService
	users     core.UserService
	opts      Options
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	inventory core.InventoryService,
	billing core.BillingService,
	reporting core.ReportingService,
	export core.ExportService,
	users core.UserService,
	opts Options,
) ApplicationService {
	return &appService{
		inventory: inventory,
		billing:   billing,
		reporting: reporting,
		export:    export,
		users:     users,
		opts:      opts,
	}
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) ListItems(ctx context.Context) (*ItemListResult, error) {
	items, err := s.inventory.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	res := &ItemListResult{Items: items}
	for _, it := range items {
		qty := decimal.NewFromInt(it.Quantity)
		res.TotalPurchaseValue = res.TotalPurchaseValue.Add(it.PurchasePrice.Mul(qty))
		res.TotalSellingValue = res.TotalSellingValue.Add(it.SellingPrice.Mul(qty))
	}
	return res, nil
}

func (s *appService) GetItem(ctx context.Context, itemID string) (*ItemResult, error) {
	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) AddItem(ctx context.Context, req AddItemRequest) (*ItemResult, error) {
	item, err := s.inventory.CreateItem(ctx, core.NewItemInput{
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) UpdateItem(ctx context.Context, req UpdateItemRequest) (*ItemResult, error) {
	item, err := s.inventory.UpdateItem(ctx, core.UpdateItemInput{
		ItemID:           req.ItemID,
		NewPurchasePrice: req.NewPurchasePrice,
		NewSellingPrice:  req.NewSellingPrice,
		QuantityDelta:    req.QuantityDelta,
		Reason:           req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) AdjustItemQuantity(ctx context.Context, itemID string, delta int64, reason core.ChangeReason) (*ItemResult, error) {
	if err := s.inventory.AdjustQuantity(ctx, itemID, delta, reason); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, itemID)
}

func (s *appService) GetInventoryLog(ctx context.Context, itemID string) (*LogResult, error) {
	entries, err := s.inventory.GetLog(ctx)
	if err != nil {
		return nil, err
	}
	if itemID == "" {
		return &LogResult{Entries: entries}, nil
	}
	filtered := make([]core.InventoryLogEntry, 0, len(entries))
	for _, e := range entries {
		if e.ItemID == itemID {
			filtered = append(filtered, e)
		}
	}
	return &LogResult{Entries: filtered}, nil
}

// ── Billing ───────────────────────────────────────────────────────────────────

func (s *appService) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResult, error) {
	bill, err := s.billing.CreateBill(ctx, req.toInput(), req.Actor)
	if err != nil {
		return nil, err
	}
	return &BillResult{Bill: bill}, nil
}

func (s *appService) EditBill(ctx context.Context, req EditBillRequest) (*BillResult, error) {
	bill, err := s.billing.EditBill(ctx, req.BillID, req.toInput(), req.Actor)
	if err != nil {
		return nil, err
	}
	return &BillResult{Bill: bill}, nil
}

func (s *appService) DeleteBill(ctx context.Context, billID string) error {
	return s.billing.DeleteBill(ctx, billID)
}

func (s *appService) MarkBillPaid(ctx context.Context, billID string) error {
	return s.billing.MarkPaid(ctx, billID)
}

func (s *appService) GetBill(ctx context.Context, billID string) (*BillResult, error) {
	bill, err := s.billing.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &BillResult{Bill: bill}, nil
}

func parseStatusFilter(status string) (*core.PaymentStatus, error) {
	switch core.PaymentStatus(status) {
	case "":
		return nil, nil
	case core.StatusPaid, core.StatusUnpaid:
		st := core.PaymentStatus(status)
		return &st, nil
	default:
		return nil, core.InvalidPaymentStatus(status)
	}
}

func (s *appService) ListBills(ctx context.Context, status string) (*BillListResult, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	bills, err := s.billing.GetBills(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &BillListResult{Bills: bills}, nil
}

func (s *appService) ListEditableBills(ctx context.Context) (*BillListResult, error) {
	bills, err := s.billing.GetBills(ctx, nil)
	if err != nil {
		return nil, err
	}
	today := core.BusinessDay(time.Now())
	editable := make([]core.Bill, 0, len(bills))
	for _, b := range bills {
		if core.BusinessDay(b.BilledAt).Equal(today) {
			editable = append(editable, b)
		}
	}
	return &BillListResult{Bills: editable}, nil
}

func (s *appService) GetBillEditAvailability(ctx context.Context, billID string) (*ItemListResult, error) {
	items, err := s.billing.AvailableForEdit(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items}, nil
}

// ── Reporting ─────────────────────────────────────────────────────────────────

func (s *appService) GetDailyProfit(ctx context.Context) (*DailyProfitResult, error) {
	days, err := s.reporting.DailyProfit(ctx)
	if err != nil {
		return nil, err
	}
	res := &DailyProfitResult{Days: days}
	for _, d := range days {
		res.TotalProfit = res.TotalProfit.Add(d.Profit)
	}
	return res, nil
}

func (s *appService) GetDailyFlow(ctx context.Context) (*DailyFlowResult, error) {
	days, err := s.reporting.DailySalesAndPurchases(ctx)
	if err != nil {
		return nil, err
	}
	return &DailyFlowResult{Days: days}, nil
}

func (s *appService) GetOutstandingRevenue(ctx context.Context) (*OutstandingResult, error) {
	total, err := s.reporting.OutstandingRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &OutstandingResult{Outstanding: total}, nil
}

func (s *appService) GetProfitPerBill(ctx context.Context, status string) (*BillProfitResult, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	rows, err := s.reporting.ProfitPerBill(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &BillProfitResult{Bills: rows}, nil
}

func (s *appService) GetLogBook(ctx context.Context) (*LogBookResult, error) {
	rows, err := s.reporting.LogBook(ctx)
	if err != nil {
		return nil, err
	}
	return &LogBookResult{Entries: rows}, nil
}

func (s *appService) ExportDailyReport(ctx context.Context) (*ExportResult, error) {
	data, filename, err := s.export.DailyReport(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return &ExportResult{Data: data, Filename: filename}, nil
}

// ── Identity ──────────────────────────────────────────────────────────────────

func (s *appService) Login(ctx context.Context, username, password string) (*UserResult, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastSeen(ctx, u.Username); err != nil {
		return nil, err
	}
	return &UserResult{User: toUserView(u, time.Now())}, nil
}

func (s *appService) VerifyPassphrase(passphrase string) error {
	if subtle.ConstantTimeCompare([]byte(passphrase), []byte(s.opts.StepUpPassphrase)) != 1 {
		return core.ErrBadCredentials
	}
	return nil
}

func (s *appService) CreateUser(ctx context.Context, req core.NewUserInput) (*UserResult, error) {
	u, err := s.users.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: toUserView(u, time.Now())}, nil
}

func (s *appService) UpdateUser(ctx context.Context, username string, req core.UpdateUserInput) (*UserResult, error) {
	u, err := s.users.UpdateUser(ctx, username, req)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: toUserView(u, time.Now())}, nil
}

func (s *appService) DeleteUser(ctx context.Context, username string) error {
	return s.users.DeleteUser(ctx, username)
}

func (s *appService) ChangePassword(ctx context.Context, username, newPassword string) error {
	return s.users.ChangePassword(ctx, username, newPassword)
}

func (s *appService) ListUsers(ctx context.Context) (*UserListResult, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]UserView, len(users))
	for i := range users {
		views[i] = toUserView(&users[i], now)
	}
	return &UserListResult{Users: views}, nil
}

func (s *appService) Heartbeat(ctx context.Context, username string) error {
	return s.users.TouchLastSeen(ctx, username)
}

// ── Maintenance ───────────────────────────────────────────────────────────────

func (s *appService) ResetBills(ctx context.Context) (*ResetResult, error) {
	n, err := s.inventory.ResetAllStock(ctx, s.opts.ResetWritesLog)
	if err != nil {
		return nil, err
	}
	return &ResetResult{BillsDeleted: n}, nil
}

func (s *appService) PurgeAllData(ctx context.Context) error {
	return s.inventory.PurgeAllData(ctx)
}
