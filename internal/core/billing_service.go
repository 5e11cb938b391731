package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BillingService manages the bill lifecycle. Every bill is a reservation of
// stock: creation decrements each referenced item's quantity, editing applies
// the net delta, deletion releases the reservation and logs the re-acquired
// cost basis. Each operation runs in one transaction; an edit or sale that
// would drive any quantity negative is rejected whole.
type BillingService interface {
	CreateBill(ctx context.Context, in BillInput, actor string) (*Bill, error)
	EditBill(ctx context.Context, billID string, in BillInput, actor string) (*Bill, error)
	DeleteBill(ctx context.Context, billID string) error
	MarkPaid(ctx context.Context, billID string) error

	GetBill(ctx context.Context, billID string) (*Bill, error)
	GetBills(ctx context.Context, status *PaymentStatus) ([]Bill, error)

	// AvailableForEdit returns the item list as the editor of billID must see
	// it: current stock with the bill's own reserved quantities added back.
	AvailableForEdit(ctx context.Context, billID string) ([]InventoryItem, error)
}

type billingService struct {
	pool *pgxpool.Pool
	inv  InventoryService
}

func NewBillingService(pool *pgxpool.Pool, inv InventoryService) BillingService {
	return &billingService{pool: pool, inv: inv}
}

// snapshotLine is a bill line resolved against the live item at write time.
type snapshotLine struct {
	BillLine
	purchasePrice decimal.Decimal
}

// resolveAndReserveTx locks each requested item in deterministic order,
// snapshots its name and prices, and applies the given per-item stock deltas.
// deltas is keyed by item id; a missing key means the item is only read for
// its price snapshot, not adjusted.
func (s *billingService) resolveAndReserveTx(ctx context.Context, tx pgx.Tx,
	lines []BillLineInput, deltas map[string]int64) ([]snapshotLine, decimal.Decimal, error) {

	// Collect every item the operation touches, then lock in sorted order so
	// two concurrent bills over the same items cannot deadlock.
	itemIDs := make(map[string]bool, len(lines)+len(deltas))
	for _, l := range lines {
		itemIDs[l.ItemID] = true
	}
	for id := range deltas {
		itemIDs[id] = true
	}
	ordered := make([]string, 0, len(itemIDs))
	for id := range itemIDs {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	type lockedItem struct {
		name          string
		purchasePrice decimal.Decimal
		sellingPrice  decimal.Decimal
		quantity      int64
	}
	locked := make(map[string]lockedItem, len(ordered))

	for _, id := range ordered {
		var li lockedItem
		err := tx.QueryRow(ctx, `
			SELECT name, purchase_price, selling_price, quantity
			FROM inventory_items
			WHERE item_id = $1
			FOR UPDATE
		`, id).Scan(&li.name, &li.purchasePrice, &li.sellingPrice, &li.quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("item %s: %w", id, ErrNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("failed to lock item %s: %w", id, err)
		}

		if delta, ok := deltas[id]; ok && delta != 0 {
			newQty := li.quantity + delta
			if newQty < 0 {
				return nil, decimal.Zero, fmt.Errorf("item %s: %d on hand, short by %d: %w",
					li.name, li.quantity, -newQty, ErrInsufficientStock)
			}
			if _, err := tx.Exec(ctx,
				"UPDATE inventory_items SET quantity = $1 WHERE item_id = $2", newQty, id,
			); err != nil {
				return nil, decimal.Zero, fmt.Errorf("failed to adjust stock for item %s: %w", id, err)
			}
		}
		locked[id] = li
	}

	var totalPurchaseCost decimal.Decimal
	snapshots := make([]snapshotLine, 0, len(lines))
	for _, l := range lines {
		li := locked[l.ItemID]
		qty := decimal.NewFromInt(l.Quantity)
		totalPurchaseCost = totalPurchaseCost.Add(li.purchasePrice.Mul(qty))
		snapshots = append(snapshots, snapshotLine{
			BillLine: BillLine{
				ItemID:       l.ItemID,
				ItemName:     li.name,
				Quantity:     l.Quantity,
				SellingPrice: li.sellingPrice,
			},
			purchasePrice: li.purchasePrice,
		})
	}
	return snapshots, totalPurchaseCost, nil
}

func insertBillLinesTx(ctx context.Context, tx pgx.Tx, billID string, lines []snapshotLine) error {
	for i, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO bill_lines (bill_id, line_number, item_id, item_name, quantity, selling_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, billID, i+1, l.ItemID, l.ItemName, l.Quantity, l.SellingPrice)
		if err != nil {
			return fmt.Errorf("failed to insert bill line %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *billingService) CreateBill(ctx context.Context, in BillInput, actor string) (*Bill, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deltas := make(map[string]int64, len(in.Lines))
	for _, l := range in.Lines {
		deltas[l.ItemID] = -l.Quantity
	}

	lines, totalPurchaseCost, err := s.resolveAndReserveTx(ctx, tx, in.Lines, deltas)
	if err != nil {
		return nil, err
	}

	billID := newID("BILL")
	profit := in.TotalSellPrice.Sub(totalPurchaseCost)
	_, err = tx.Exec(ctx, `
		INSERT INTO bills (bill_id, total_purchase_cost, total_sell_price, profit,
		                   payment_mode, payment_status, customer_name, created_by, billed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, billID, totalPurchaseCost, in.TotalSellPrice, profit,
		string(in.PaymentMode), string(in.PaymentStatus), in.CustomerName, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertBillLinesTx(ctx, tx, billID, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bill creation: %w", err)
	}
	return s.GetBill(ctx, billID)
}

func (s *billingService) EditBill(ctx context.Context, billID string, in BillInput, actor string) (*Bill, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT true FROM bills WHERE bill_id = $1 FOR UPDATE", billID,
	).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", billID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock bill %s: %w", billID, err)
	}

	oldLines, err := fetchBillLinesQ(ctx, tx, billID)
	if err != nil {
		return nil, err
	}

	// Net per-item delta: add back what the bill already reserved, subtract
	// the new reservation. Items on both sides collapse to the difference, so
	// re-saving an unchanged bill touches nothing.
	deltas := make(map[string]int64)
	for _, l := range oldLines {
		deltas[l.ItemID] += l.Quantity
	}
	for _, l := range in.Lines {
		deltas[l.ItemID] -= l.Quantity
	}
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}

	lines, totalPurchaseCost, err := s.resolveAndReserveTx(ctx, tx, in.Lines, deltas)
	if err != nil {
		return nil, err
	}

	profit := in.TotalSellPrice.Sub(totalPurchaseCost)
	_, err = tx.Exec(ctx, `
		UPDATE bills
		SET total_purchase_cost = $1, total_sell_price = $2, profit = $3,
		    payment_mode = $4, payment_status = $5, customer_name = $6,
		    last_edited_by = $7, billed_at = NOW()
		WHERE bill_id = $8
	`, totalPurchaseCost, in.TotalSellPrice, profit,
		string(in.PaymentMode), string(in.PaymentStatus), in.CustomerName, actor, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to update bill %s: %w", billID, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM bill_lines WHERE bill_id = $1", billID); err != nil {
		return nil, fmt.Errorf("failed to clear bill lines: %w", err)
	}
	if err := insertBillLinesTx(ctx, tx, billID, lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bill edit: %w", err)
	}
	return s.GetBill(ctx, billID)
}

func (s *billingService) DeleteBill(ctx context.Context, billID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT true FROM bills WHERE bill_id = $1 FOR UPDATE", billID,
	).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("bill %s: %w", billID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock bill %s: %w", billID, err)
	}

	lines, err := fetchBillLinesQ(ctx, tx, billID)
	if err != nil {
		return err
	}

	// The one sale-side path that writes ledger entries: deletion restores
	// stock and records the re-acquired cost basis per line.
	for _, l := range lines {
		if err := s.inv.ReverseForBillDeletionTx(ctx, tx, l.ItemID, l.ItemName, l.Quantity, billID); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM bills WHERE bill_id = $1", billID); err != nil {
		return fmt.Errorf("failed to delete bill %s: %w", billID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit bill deletion: %w", err)
	}
	return nil
}

func (s *billingService) MarkPaid(ctx context.Context, billID string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE bills SET payment_status = $1 WHERE bill_id = $2", string(StatusPaid), billID)
	if err != nil {
		return fmt.Errorf("failed to mark bill %s paid: %w", billID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", billID, ErrNotFound)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *billingService) GetBill(ctx context.Context, billID string) (*Bill, error) {
	b := &Bill{}
	var mode, status string
	err := s.pool.QueryRow(ctx, `
		SELECT bill_id, total_purchase_cost, total_sell_price, profit,
		       payment_mode, payment_status, customer_name, created_by, last_edited_by, billed_at
		FROM bills
		WHERE bill_id = $1
	`, billID).Scan(&b.BillID, &b.TotalPurchaseCost, &b.TotalSellPrice, &b.Profit,
		&mode, &status, &b.CustomerName, &b.CreatedBy, &b.LastEditedBy, &b.BilledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", billID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch bill %s: %w", billID, err)
	}
	b.PaymentMode = PaymentMode(mode)
	b.PaymentStatus = PaymentStatus(status)

	lines, err := fetchBillLinesQ(ctx, s.pool, billID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return b, nil
}

func (s *billingService) GetBills(ctx context.Context, status *PaymentStatus) ([]Bill, error) {
	query := `
		SELECT bill_id, total_purchase_cost, total_sell_price, profit,
		       payment_mode, payment_status, customer_name, created_by, last_edited_by, billed_at
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
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var b Bill
		var mode, st string
		if err := rows.Scan(&b.BillID, &b.TotalPurchaseCost, &b.TotalSellPrice, &b.Profit,
			&mode, &st, &b.CustomerName, &b.CreatedBy, &b.LastEditedBy, &b.BilledAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		b.PaymentMode = PaymentMode(mode)
		b.PaymentStatus = PaymentStatus(st)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}

	for i := range bills {
		lines, err := fetchBillLinesQ(ctx, s.pool, bills[i].BillID)
		if err != nil {
			return nil, err
		}
		bills[i].Lines = lines
	}
	return bills, nil
}

func (s *billingService) AvailableForEdit(ctx context.Context, billID string) ([]InventoryItem, error) {
	lines, err := fetchBillLinesQ(ctx, s.pool, billID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		// Distinguish a missing bill from one with no lines.
		if _, err := s.GetBill(ctx, billID); err != nil {
			return nil, err
		}
	}

	items, err := s.inv.GetItems(ctx)
	if err != nil {
		return nil, err
	}

	reserved := make(map[string]int64, len(lines))
	for _, l := range lines {
		reserved[l.ItemID] += l.Quantity
	}
	for i := range items {
		items[i].Quantity += reserved[items[i].ItemID]
	}
	return items, nil
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchBillLinesQ(ctx context.Context, q pgxRowQuerier, billID string) ([]BillLine, error) {
	rows, err := q.Query(ctx, `
		SELECT item_id, item_name, quantity, selling_price
		FROM bill_lines
		WHERE bill_id = $1
		ORDER BY line_number
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill lines: %w", err)
	}
	defer rows.Close()

	var lines []BillLine
	for rows.Next() {
		var l BillLine
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.SellingPrice); err != nil {
			return nil, fmt.Errorf("failed to scan bill line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
