package core

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportService generates the downloadable daily report: an xlsx workbook
// with the current inventory snapshot and the prior business day's bills.
type ExportService interface {
	// DailyReport renders the workbook and returns its bytes plus a dated
	// suggested filename.
	DailyReport(ctx context.Context, now time.Time) ([]byte, string, error)
}

type exportService struct {
	pool *pgxpool.Pool
}

func NewExportService(pool *pgxpool.Pool) ExportService {
	return &exportService{pool: pool}
}

const (
	sheetInventory = "Inventory Status"
	sheetBills     = "Yesterday's Transactions"
)

func (s *exportService) DailyReport(ctx context.Context, now time.Time) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetInventory); err != nil {
		return nil, "", fmt.Errorf("failed to name inventory sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetBills); err != nil {
		return nil, "", fmt.Errorf("failed to create bills sheet: %w", err)
	}

	if err := s.writeInventorySheet(ctx, f); err != nil {
		return nil, "", err
	}

	// The report period is the business day before today's: 06:00 two
	// calendar mornings ago up to 06:00 yesterday morning.
	yesterday := BusinessDay(now).AddDate(0, 0, -1)
	start, end := BusinessDayWindow(yesterday)
	if err := s.writeBillsSheet(ctx, f, start, end); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("daily_report_%s.xlsx", now.Format("2006-01-02")), nil
}

func (s *exportService) writeInventorySheet(ctx context.Context, f *excelize.File) error {
	headers := []string{"Item ID", "Name", "Quantity", "Purchase Price", "Selling Price", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetInventory, cell, h); err != nil {
			return fmt.Errorf("failed to write inventory header: %w", err)
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT item_id, name, quantity, purchase_price, selling_price, created_at
		FROM inventory_items
		ORDER BY name, item_id
	`)
	if err != nil {
		return fmt.Errorf("failed to query inventory for export: %w", err)
	}
	defer rows.Close()

	rowNo := 2
	for rows.Next() {
		var itemID, name string
		var quantity int64
		var purchase, selling decimal.Decimal
		var createdAt time.Time
		if err := rows.Scan(&itemID, &name, &quantity, &purchase, &selling, &createdAt); err != nil {
			return fmt.Errorf("failed to scan inventory export row: %w", err)
		}
		values := []any{itemID, name, quantity,
			purchase.StringFixed(2), selling.StringFixed(2),
			createdAt.Format("2006-01-02 15:04:05")}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNo)
			if err := f.SetCellValue(sheetInventory, cell, v); err != nil {
				return fmt.Errorf("failed to write inventory cell: %w", err)
			}
		}
		rowNo++
	}
	return rows.Err()
}

func (s *exportService) writeBillsSheet(ctx context.Context, f *excelize.File, start, end time.Time) error {
	headers := []string{"Bill ID", "Billed At", "Total Sell Price", "Cost of Goods", "Profit",
		"Payment Mode", "Payment Status", "Customer", "Created By"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetBills, cell, h); err != nil {
			return fmt.Errorf("failed to write bills header: %w", err)
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT bill_id, billed_at, total_sell_price, total_purchase_cost, profit,
		       payment_mode, payment_status, customer_name, created_by
		FROM bills
		WHERE billed_at >= $1 AND billed_at < $2
		ORDER BY billed_at
	`, start, end)
	if err != nil {
		return fmt.Errorf("failed to query bills for export: %w", err)
	}
	defer rows.Close()

	rowNo := 2
	for rows.Next() {
		var billID, mode, status, customer, createdBy string
		var billedAt time.Time
		var sell, cost, profit decimal.Decimal
		if err := rows.Scan(&billID, &billedAt, &sell, &cost, &profit, &mode, &status, &customer, &createdBy); err != nil {
			return fmt.Errorf("failed to scan bill export row: %w", err)
		}
		values := []any{billID, billedAt.Format("2006-01-02 15:04:05"),
			sell.StringFixed(2), cost.StringFixed(2), profit.StringFixed(2),
			mode, status, customer, createdBy}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNo)
			if err := f.SetCellValue(sheetBills, cell, v); err != nil {
				return fmt.Errorf("failed to write bill cell: %w", err)
			}
		}
		rowNo++
	}
	return rows.Err()
}
