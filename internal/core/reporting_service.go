package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// DailyProfitRow is the realized profit of one business day, from Paid bills.
type DailyProfitRow struct {
	BusinessDay time.Time       `json:"business_day"`
	Profit      decimal.Decimal `json:"profit"`
}

// DailyFlowRow pairs one business day's paid sales revenue with the purchase
// cost movements recorded in the inventory log that day.
type DailyFlowRow struct {
	BusinessDay time.Time       `json:"business_day"`
	Sales       decimal.Decimal `json:"sales"`
	Purchases   decimal.Decimal `json:"purchases"`
}

// BillProfitRow is one row of the per-bill profit table.
type BillProfitRow struct {
	BillID            string          `json:"bill_id"`
	BilledAt          time.Time       `json:"billed_at"`
	TotalSellPrice    decimal.Decimal `json:"total_sell_price"`
	TotalPurchaseCost decimal.Decimal `json:"total_purchase_cost"`
	Profit            decimal.Decimal `json:"profit"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
}

// AuditRow is one row of the bill audit log ("log book").
type AuditRow struct {
	BillID       string    `json:"bill_id"`
	CreatedBy    string    `json:"created_by"`
	LastEditedBy string    `json:"last_edited_by,omitempty"`
	BilledAt     time.Time `json:"billed_at"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregation over bills and the
// inventory log. Everything is recomputed on demand from the base tables;
// there are no cached aggregates. All grouping uses the business-day rule:
// timestamps before 06:00 belong to the previous calendar date.
type ReportingService interface {
	// DailyProfit returns realized profit per business day from Paid bills,
	// oldest first.
	DailyProfit(ctx context.Context) ([]DailyProfitRow, error)

	// DailySalesAndPurchases returns paid sales revenue versus inventory-log
	// purchase cost per business day, oldest first. Days with activity on
	// only one side report zero on the other.
	DailySalesAndPurchases(ctx context.Context) ([]DailyFlowRow, error)

	// OutstandingRevenue returns the total sell price of Unpaid bills.
	OutstandingRevenue(ctx context.Context) (decimal.Decimal, error)

	// ProfitPerBill returns the per-bill profit table, newest first,
	// optionally filtered by payment status.
	ProfitPerBill(ctx context.Context, status *PaymentStatus) ([]BillProfitRow, error)

	// LogBook returns who created and last edited each bill, newest first.
	LogBook(ctx context.Context) ([]AuditRow, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

// The SQL realization of BusinessDay: shifting by the cutover hour before
// truncating to a date buckets 05:59 into yesterday and 06:01 into today.
const businessDayExpr = "(%s - interval '6 hours')::date"

func (s *reportingService) DailyProfit(ctx context.Context) ([]DailyProfitRow, error) {
	q := fmt.Sprintf(`
		SELECT `+businessDayExpr+` AS business_day, SUM(profit)
		FROM bills
		WHERE payment_status = $1
		GROUP BY business_day
		ORDER BY business_day
	`, "billed_at")

	rows, err := s.pool.Query(ctx, q, string(StatusPaid))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily profit: %w", err)
	}
	defer rows.Close()

	var out []DailyProfitRow
	for rows.Next() {
		var r DailyProfitRow
		if err := rows.Scan(&r.BusinessDay, &r.Profit); err != nil {
			return nil, fmt.Errorf("failed to scan daily profit row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *reportingService) DailySalesAndPurchases(ctx context.Context) ([]DailyFlowRow, error) {
	byDay := make(map[string]*DailyFlowRow)

	get := func(day time.Time) *DailyFlowRow {
		key := day.Format("2006-01-02")
		if r, ok := byDay[key]; ok {
			return r
		}
		r := &DailyFlowRow{BusinessDay: day, Sales: decimal.Zero, Purchases: decimal.Zero}
		byDay[key] = r
		return r
	}

	salesQ := fmt.Sprintf(`
		SELECT `+businessDayExpr+` AS business_day, SUM(total_sell_price)
		FROM bills
		WHERE payment_status = $1
		GROUP BY business_day
	`, "billed_at")
	rows, err := s.pool.Query(ctx, salesQ, string(StatusPaid))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	for rows.Next() {
		var day time.Time
		var sales decimal.Decimal
		if err := rows.Scan(&day, &sales); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan daily sales row: %w", err)
		}
		get(day).Sales = sales
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily sales: %w", err)
	}

	purchasesQ := fmt.Sprintf(`
		SELECT `+businessDayExpr+` AS business_day, SUM(purchase_cost_change)
		FROM inventory_log
		GROUP BY business_day
	`, "logged_at")
	rows, err = s.pool.Query(ctx, purchasesQ)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily purchases: %w", err)
	}
	for rows.Next() {
		var day time.Time
		var purchases decimal.Decimal
		if err := rows.Scan(&day, &purchases); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan daily purchases row: %w", err)
		}
		get(day).Purchases = purchases
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily purchases: %w", err)
	}

	out := make([]DailyFlowRow, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessDay.Before(out[j].BusinessDay) })
	return out, nil
}

func (s *reportingService) OutstandingRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_sell_price), 0)
		FROM bills
		WHERE payment_status = $1
	`, string(StatusUnpaid)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query outstanding revenue: %w", err)
	}
	return total, nil
}

func (s *reportingService) ProfitPerBill(ctx context.Context, status *PaymentStatus) ([]BillProfitRow, error) {
	query := `
		SELECT bill_id, billed_at, total_sell_price, total_purchase_cost, profit, payment_status
		FROM bills
	`
	var args []any
	if status != nil {
		query += " WHERE payment_status = $1"
		args = append(args, string(*status))
	}
	query += " ORDER BY billed_at DESC, bill_id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query per-bill profit: %w", err)
	}
	defer rows.Close()

	var out []BillProfitRow
	for rows.Next() {
		var r BillProfitRow
		var st string
		if err := rows.Scan(&r.BillID, &r.BilledAt, &r.TotalSellPrice, &r.TotalPurchaseCost, &r.Profit, &st); err != nil {
			return nil, fmt.Errorf("failed to scan per-bill profit row: %w", err)
		}
		r.PaymentStatus = PaymentStatus(st)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *reportingService) LogBook(ctx context.Context) ([]AuditRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bill_id, created_by, last_edited_by, billed_at
		FROM bills
		ORDER BY billed_at DESC, bill_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query log book: %w", err)
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var r AuditRow
		if err := rows.Scan(&r.BillID, &r.CreatedBy, &r.LastEditedBy, &r.BilledAt); err != nil {
			return nil, fmt.Errorf("failed to scan log book row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
