package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService owns the stock table and the append-only inventory log,
// and keeps them mutually consistent: every mutating operation applies its
// item updates and log appends in one transaction, or not at all.
type InventoryService interface {
	// CreateItem inserts a new stock item and its Initial Stock log entry.
	CreateItem(ctx context.Context, in NewItemInput) (*InventoryItem, error)

	// AdjustQuantity applies a signed stock delta with reason Restock or
	// Correction. A delta of 0 is a silent no-op. A negative restock logs the
	// quantity movement with zero cost change (cost is attributed to
	// procurement only); a correction always logs cost at the current
	// purchase price, regardless of sign.
	AdjustQuantity(ctx context.Context, itemID string, delta int64, reason ChangeReason) error

	// UpdateItem is the combined update form: price revaluation and quantity
	// delta applied atomically. The revaluation entry is logged first, against
	// the pre-change quantity. Fully a no-op when nothing changes.
	UpdateItem(ctx context.Context, in UpdateItemInput) (*InventoryItem, error)

	// ResetAllStock returns every open bill's reserved quantities to stock and
	// deletes all bills, in one transaction. writeLog controls whether the
	// restores show up in the inventory log; false reproduces the historical
	// log-silent reset. Returns the number of bills deleted.
	ResetAllStock(ctx context.Context, writeLog bool) (int64, error)

	// PurgeAllData removes all inventory, bills, and log history. Users survive.
	PurgeAllData(ctx context.Context) error

	// Queries.
	GetItems(ctx context.Context) ([]InventoryItem, error)
	GetItem(ctx context.Context, itemID string) (*InventoryItem, error)
	GetLog(ctx context.Context) ([]InventoryLogEntry, error)

	// ReverseForBillDeletionTx restores a deleted bill line's quantity and
	// logs the re-acquired cost basis within the caller's transaction. The
	// cost is recomputed at the item's purchase price at call time, not the
	// price at original sale time.
	ReverseForBillDeletionTx(ctx context.Context, tx pgx.Tx, itemID, itemName string, quantity int64, billID string) error
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// appendLogTx inserts one inventory log row within the caller's transaction.
// The log is append-only: nothing in this codebase updates or deletes rows.
func appendLogTx(ctx context.Context, tx pgx.Tx, itemID, itemName string,
	quantityChange int64, costChange decimal.Decimal, reason ChangeReason, notes string) error {

	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_log (log_id, item_id, item_name, quantity_change, purchase_cost_change, reason, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, newID("LOG"), itemID, itemName, quantityChange, costChange, string(reason), notes)
	if err != nil {
		return fmt.Errorf("failed to append inventory log entry: %w", err)
	}
	return nil
}

func (s *inventoryService) CreateItem(ctx context.Context, in NewItemInput) (*InventoryItem, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item := &InventoryItem{
		ItemID:        newID("ITEM"),
		Name:          in.Name,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		Quantity:      in.Quantity,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_items (item_id, name, purchase_price, selling_price, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, item.ItemID, item.Name, item.PurchasePrice, item.SellingPrice, item.Quantity).Scan(&item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory item: %w", err)
	}

	initialCost := in.PurchasePrice.Mul(decimal.NewFromInt(in.Quantity))
	if err := appendLogTx(ctx, tx, item.ItemID, item.Name, in.Quantity, initialCost, ReasonInitialStock, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit item creation: %w", err)
	}
	return item, nil
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, itemID string, delta int64, reason ChangeReason) error {
	if delta == 0 {
		return nil
	}
	_, err := s.UpdateItem(ctx, UpdateItemInput{ItemID: itemID, QuantityDelta: delta, Reason: reason})
	return err
}

func (s *inventoryService) UpdateItem(ctx context.Context, in UpdateItemInput) (*InventoryItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item := &InventoryItem{}
	err = tx.QueryRow(ctx, `
		SELECT item_id, name, purchase_price, selling_price, quantity, created_at
		FROM inventory_items
		WHERE item_id = $1
		FOR UPDATE
	`, in.ItemID).Scan(&item.ItemID, &item.Name, &item.PurchasePrice, &item.SellingPrice, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", in.ItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock item %s: %w", in.ItemID, err)
	}

	oldPurchase := item.PurchasePrice
	purchaseChanged := in.NewPurchasePrice != nil && !in.NewPurchasePrice.Equal(oldPurchase)
	sellingChanged := in.NewSellingPrice != nil && !in.NewSellingPrice.Equal(item.SellingPrice)

	if !purchaseChanged && !sellingChanged && in.QuantityDelta == 0 {
		return item, nil
	}

	// Revaluation is logged first, against the pre-change quantity. A price
	// change while quantity is zero moves no value and leaves no entry.
	if purchaseChanged {
		revalCost := in.NewPurchasePrice.Sub(oldPurchase).Mul(decimal.NewFromInt(item.Quantity))
		if !revalCost.IsZero() {
			if err := appendLogTx(ctx, tx, item.ItemID, item.Name, 0, revalCost, ReasonPriceRevaluation, ""); err != nil {
				return nil, err
			}
		}
		item.PurchasePrice = *in.NewPurchasePrice
	}
	if sellingChanged {
		item.SellingPrice = *in.NewSellingPrice
	}

	if in.QuantityDelta != 0 {
		newQty := item.Quantity + in.QuantityDelta
		if newQty < 0 {
			return nil, fmt.Errorf("item %s: adjusting %d by %d: %w", item.Name, item.Quantity, in.QuantityDelta, ErrInsufficientStock)
		}

		// Restock attributes cost at the post-revaluation purchase price, but
		// only for incoming stock; a negative restock moves no cost basis.
		// Correction is always valued at the pre-revaluation price.
		costChange := decimal.Zero
		switch {
		case in.Reason == ReasonRestock && in.QuantityDelta > 0:
			costChange = item.PurchasePrice.Mul(decimal.NewFromInt(in.QuantityDelta))
		case in.Reason == ReasonCorrection:
			costChange = oldPurchase.Mul(decimal.NewFromInt(in.QuantityDelta))
		}
		if err := appendLogTx(ctx, tx, item.ItemID, item.Name, in.QuantityDelta, costChange, in.Reason, ""); err != nil {
			return nil, err
		}
		item.Quantity = newQty
	}

	_, err = tx.Exec(ctx, `
		UPDATE inventory_items
		SET purchase_price = $1, selling_price = $2, quantity = $3
		WHERE item_id = $4
	`, item.PurchasePrice, item.SellingPrice, item.Quantity, item.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", item.ItemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit item update: %w", err)
	}
	return item, nil
}

func (s *inventoryService) ReverseForBillDeletionTx(ctx context.Context, tx pgx.Tx, itemID, itemName string, quantity int64, billID string) error {
	var currentPurchase decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $1
		WHERE item_id = $2
		RETURNING purchase_price
	`, quantity, itemID).Scan(&currentPurchase)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("item %s referenced by bill %s: %w", itemID, billID, ErrNotFound)
		}
		return fmt.Errorf("failed to restore stock for item %s: %w", itemID, err)
	}

	reversedCost := currentPurchase.Mul(decimal.NewFromInt(quantity))
	return appendLogTx(ctx, tx, itemID, itemName, quantity, reversedCost, ReasonBillReversal,
		fmt.Sprintf("reversal of bill %s", billID))
}

func (s *inventoryService) ResetAllStock(ctx context.Context, writeLog bool) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Sum outstanding reservations per item across every open bill.
	rows, err := tx.Query(ctx, `
		SELECT item_id, MIN(item_name), SUM(quantity)
		FROM bill_lines
		GROUP BY item_id
		ORDER BY item_id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to query open bill lines: %w", err)
	}

	type restore struct {
		itemID   string
		itemName string
		quantity int64
	}
	var restores []restore
	for rows.Next() {
		var r restore
		if err := rows.Scan(&r.itemID, &r.itemName, &r.quantity); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan bill line aggregate: %w", err)
		}
		restores = append(restores, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating bill line aggregates: %w", err)
	}

	for _, r := range restores {
		var currentPurchase decimal.Decimal
		err := tx.QueryRow(ctx, `
			UPDATE inventory_items
			SET quantity = quantity + $1
			WHERE item_id = $2
			RETURNING purchase_price
		`, r.quantity, r.itemID).Scan(&currentPurchase)
		if errors.Is(err, pgx.ErrNoRows) {
			// Item no longer exists; the reservation has nowhere to go back to.
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to restore stock for item %s: %w", r.itemID, err)
		}

		if writeLog {
			cost := currentPurchase.Mul(decimal.NewFromInt(r.quantity))
			if err := appendLogTx(ctx, tx, r.itemID, r.itemName, r.quantity, cost, ReasonCorrection, "bulk stock reset"); err != nil {
				return 0, err
			}
		}
	}

	tag, err := tx.Exec(ctx, "DELETE FROM bills")
	if err != nil {
		return 0, fmt.Errorf("failed to delete bills: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit stock reset: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *inventoryService) PurgeAllData(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		"TRUNCATE TABLE bill_lines, bills, inventory_log, inventory_items")
	if err != nil {
		return fmt.Errorf("failed to purge data: %w", err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *inventoryService) GetItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, name, purchase_price, selling_price, quantity, created_at
		FROM inventory_items
		ORDER BY name, item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.PurchasePrice, &it.SellingPrice, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *inventoryService) GetItem(ctx context.Context, itemID string) (*InventoryItem, error) {
	item := &InventoryItem{}
	err := s.pool.QueryRow(ctx, `
		SELECT item_id, name, purchase_price, selling_price, quantity, created_at
		FROM inventory_items
		WHERE item_id = $1
	`, itemID).Scan(&item.ItemID, &item.Name, &item.PurchasePrice, &item.SellingPrice, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	return item, nil
}

func (s *inventoryService) GetLog(ctx context.Context) ([]InventoryLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT log_id, item_id, item_name, quantity_change, purchase_cost_change, reason, notes, logged_at
		FROM inventory_log
		ORDER BY logged_at DESC, log_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory log: %w", err)
	}
	defer rows.Close()

	var entries []InventoryLogEntry
	for rows.Next() {
		var e InventoryLogEntry
		var reason string
		if err := rows.Scan(&e.LogID, &e.ItemID, &e.ItemName, &e.QuantityChange, &e.PurchaseCostChange, &reason, &e.Notes, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Reason = ChangeReason(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
