package core_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockbook/internal/core"
)

// insertBillAt writes a bill row directly so the test controls billed_at;
// the services always stamp NOW().
func insertBillAt(t *testing.T, ctx context.Context, pool *pgxpool.Pool,
	billID, billedAt, status, sellPrice, cost string) {
	t.Helper()
	_, err := pool.Exec(ctx, `
		INSERT INTO bills (bill_id, total_purchase_cost, total_sell_price, profit,
		                   payment_mode, payment_status, created_by, billed_at)
		VALUES ($1, $2, $3, $3::numeric - $2::numeric, 'Cash', $4, 'alice', $5::timestamptz)
	`, billID, cost, sellPrice, status, billedAt)
	if err != nil {
		t.Fatalf("failed to insert bill %s: %v", billID, err)
	}
}

func TestReporting_DailyProfitBucketsBySixAMCutover(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	// Two evening sales on March 9th, one night sale at 05:30 that still
	// belongs to March 9th, and one morning sale opening March 10th.
	insertBillAt(t, ctx, pool, "BILL-r1", "2026-03-09 14:00:00", "Paid", "100", "60")
	insertBillAt(t, ctx, pool, "BILL-r2", "2026-03-09 22:30:00", "Paid", "200", "120")
	insertBillAt(t, ctx, pool, "BILL-r3", "2026-03-10 05:30:00", "Paid", "50", "30")
	insertBillAt(t, ctx, pool, "BILL-r4", "2026-03-10 06:30:00", "Paid", "80", "40")
	// Unpaid revenue must not count as realized profit.
	insertBillAt(t, ctx, pool, "BILL-r5", "2026-03-09 15:00:00", "Unpaid", "999", "500")

	rows, err := reporting.DailyProfit(ctx)
	if err != nil {
		t.Fatalf("DailyProfit failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 business days, got %d", len(rows))
	}

	// March 9th: (100−60) + (200−120) + (50−30) = 140.
	if got := rows[0].BusinessDay.Format("2006-01-02"); got != "2026-03-09" {
		t.Errorf("first bucket = %s, want 2026-03-09", got)
	}
	if !rows[0].Profit.Equal(dec("140")) {
		t.Errorf("March 9 profit = %s, want 140", rows[0].Profit)
	}

	// March 10th: 80 − 40 = 40.
	if got := rows[1].BusinessDay.Format("2006-01-02"); got != "2026-03-10" {
		t.Errorf("second bucket = %s, want 2026-03-10", got)
	}
	if !rows[1].Profit.Equal(dec("40")) {
		t.Errorf("March 10 profit = %s, want 40", rows[1].Profit)
	}
}

func TestReporting_DailyFlowMergesSalesAndPurchases(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	insertBillAt(t, ctx, pool, "BILL-f1", "2026-03-09 12:00:00", "Paid", "300", "180")

	// A purchase-side movement on a day with no sales at all.
	_, err := pool.Exec(ctx, `
		INSERT INTO inventory_log (log_id, item_id, item_name, quantity_change, purchase_cost_change, reason, logged_at)
		VALUES ('LOG-f1', 'ITEM-x', 'Notebook', 10, 500, 'Restock', '2026-03-11 10:00:00'::timestamptz)
	`)
	if err != nil {
		t.Fatalf("failed to insert log entry: %v", err)
	}

	rows, err := reporting.DailySalesAndPurchases(ctx)
	if err != nil {
		t.Fatalf("DailySalesAndPurchases failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 business days, got %d", len(rows))
	}

	if !rows[0].Sales.Equal(dec("300")) || !rows[0].Purchases.IsZero() {
		t.Errorf("March 9 = sales %s / purchases %s, want 300 / 0", rows[0].Sales, rows[0].Purchases)
	}
	if !rows[1].Sales.IsZero() || !rows[1].Purchases.Equal(dec("500")) {
		t.Errorf("March 11 = sales %s / purchases %s, want 0 / 500", rows[1].Sales, rows[1].Purchases)
	}
}

func TestReporting_OutstandingRevenue(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	total, err := reporting.OutstandingRevenue(ctx)
	if err != nil {
		t.Fatalf("OutstandingRevenue failed: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("empty DB outstanding = %s, want 0", total)
	}

	insertBillAt(t, ctx, pool, "BILL-o1", "2026-03-09 12:00:00", "Unpaid", "150", "90")
	insertBillAt(t, ctx, pool, "BILL-o2", "2026-03-09 13:00:00", "Unpaid", "250", "120")
	insertBillAt(t, ctx, pool, "BILL-o3", "2026-03-09 14:00:00", "Paid", "999", "500")

	total, err = reporting.OutstandingRevenue(ctx)
	if err != nil {
		t.Fatalf("OutstandingRevenue failed: %v", err)
	}
	if !total.Equal(dec("400")) {
		t.Errorf("outstanding = %s, want 400", total)
	}
}

func TestReporting_ProfitPerBillFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	insertBillAt(t, ctx, pool, "BILL-p1", "2026-03-09 12:00:00", "Paid", "100", "60")
	insertBillAt(t, ctx, pool, "BILL-p2", "2026-03-09 13:00:00", "Unpaid", "200", "150")

	all, err := reporting.ProfitPerBill(ctx, nil)
	if err != nil {
		t.Fatalf("ProfitPerBill failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
	// Newest first.
	if all[0].BillID != "BILL-p2" {
		t.Errorf("first row = %s, want BILL-p2", all[0].BillID)
	}
	if !all[0].Profit.Equal(dec("50")) {
		t.Errorf("BILL-p2 profit = %s, want 50", all[0].Profit)
	}

	paid := core.StatusPaid
	only, err := reporting.ProfitPerBill(ctx, &paid)
	if err != nil {
		t.Fatalf("ProfitPerBill failed: %v", err)
	}
	if len(only) != 1 || only[0].BillID != "BILL-p1" {
		t.Errorf("paid filter returned %+v, want only BILL-p1", only)
	}
}

func TestReporting_LogBookTracksActors(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	billing := core.NewBillingService(pool, inv)
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Notebook", "50", "80", 10)
	bill, err := billing.CreateBill(ctx, core.BillInput{
		Lines:          []core.BillLineInput{{ItemID: item.ItemID, Quantity: 1}},
		TotalSellPrice: dec("80"),
		PaymentMode:    core.PaymentCash,
	}, "alice")
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	if _, err := billing.EditBill(ctx, bill.BillID, core.BillInput{
		Lines:          []core.BillLineInput{{ItemID: item.ItemID, Quantity: 2}},
		TotalSellPrice: dec("160"),
		PaymentMode:    core.PaymentCash,
	}, "bob"); err != nil {
		t.Fatalf("EditBill failed: %v", err)
	}

	rows, err := reporting.LogBook(ctx)
	if err != nil {
		t.Fatalf("LogBook failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CreatedBy != "alice" || rows[0].LastEditedBy != "bob" {
		t.Errorf("actors = %s/%s, want alice/bob", rows[0].CreatedBy, rows[0].LastEditedBy)
	}
}
