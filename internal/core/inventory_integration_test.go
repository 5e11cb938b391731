package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"stockbook/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx,
		"TRUNCATE TABLE bill_lines, bills, inventory_log, inventory_items, users CASCADE")
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

// seedItem creates an item through the service so the opening log entry is
// written the same way production code writes it.
func seedItem(t *testing.T, ctx context.Context, inv core.InventoryService,
	name string, purchase, selling string, qty int64) *core.InventoryItem {
	t.Helper()
	item, err := inv.CreateItem(ctx, core.NewItemInput{
		Name:          name,
		PurchasePrice: dec(purchase),
		SellingPrice:  dec(selling),
		Quantity:      qty,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s) failed: %v", name, err)
	}
	return item
}

// itemLog returns the log entries for one item, newest first.
func itemLog(t *testing.T, ctx context.Context, inv core.InventoryService, itemID string) []core.InventoryLogEntry {
	t.Helper()
	entries, err := inv.GetLog(ctx)
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	var out []core.InventoryLogEntry
	for _, e := range entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestInventory_CreateItemWritesOpeningLogEntry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Notebook", "50", "80", 10)

	entries := itemLog(t, ctx, inv, item.ItemID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Reason != core.ReasonInitialStock {
		t.Errorf("reason = %q, want %q", e.Reason, core.ReasonInitialStock)
	}
	if e.QuantityChange != 10 {
		t.Errorf("quantity_change = %d, want 10", e.QuantityChange)
	}
	if !e.PurchaseCostChange.Equal(dec("500")) {
		t.Errorf("purchase_cost_change = %s, want 500", e.PurchaseCostChange)
	}
	if e.ItemName != "Notebook" {
		t.Errorf("item_name = %q, want Notebook", e.ItemName)
	}
}

func TestInventory_CombinedUpdate_RevaluationLoggedBeforeRestock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Notebook", "50", "80", 10)

	newPrice := dec("60")
	updated, err := inv.UpdateItem(ctx, core.UpdateItemInput{
		ItemID:           item.ItemID,
		NewPurchasePrice: &newPrice,
		QuantityDelta:    5,
		Reason:           core.ReasonRestock,
	})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Quantity != 15 {
		t.Errorf("quantity = %d, want 15", updated.Quantity)
	}
	if !updated.PurchasePrice.Equal(dec("60")) {
		t.Errorf("purchase_price = %s, want 60", updated.PurchasePrice)
	}

	// Newest first: restock, then revaluation, then the opening entry.
	entries := itemLog(t, ctx, inv, item.ItemID)
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}

	restock := entries[0]
	if restock.Reason != core.ReasonRestock || restock.QuantityChange != 5 {
		t.Errorf("newest entry = %q/%d, want Restock/+5", restock.Reason, restock.QuantityChange)
	}
	// Incoming stock is valued at the post-revaluation price: 5 × 60.
	if !restock.PurchaseCostChange.Equal(dec("300")) {
		t.Errorf("restock cost = %s, want 300", restock.PurchaseCostChange)
	}

	reval := entries[1]
	if reval.Reason != core.ReasonPriceRevaluation || reval.QuantityChange != 0 {
		t.Errorf("second entry = %q/%d, want Price Revaluation/0", reval.Reason, reval.QuantityChange)
	}
	// Revaluation applies to the pre-change quantity: 10 × (60 − 50).
	if !reval.PurchaseCostChange.Equal(dec("100")) {
		t.Errorf("revaluation cost = %s, want 100", reval.PurchaseCostChange)
	}
}

func TestInventory_CorrectionValuedAtPreRevaluationPrice(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 10)

	newPrice := dec("60")
	_, err := inv.UpdateItem(ctx, core.UpdateItemInput{
		ItemID:           item.ItemID,
		NewPurchasePrice: &newPrice,
		QuantityDelta:    -2,
		Reason:           core.ReasonCorrection,
	})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	entries := itemLog(t, ctx, inv, item.ItemID)
	correction := entries[0]
	if correction.Reason != core.ReasonCorrection {
		t.Fatalf("newest entry reason = %q, want Correction", correction.Reason)
	}
	// Corrections are valued at the price before the revaluation: −2 × 50.
	if !correction.PurchaseCostChange.Equal(dec("-100")) {
		t.Errorf("correction cost = %s, want -100", correction.PurchaseCostChange)
	}
}

func TestInventory_NegativeRestockLogsMovementWithZeroCost(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 10)

	if err := inv.AdjustQuantity(ctx, item.ItemID, -3, core.ReasonRestock); err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}

	entries := itemLog(t, ctx, inv, item.ItemID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	e := entries[0]
	if e.QuantityChange != -3 {
		t.Errorf("quantity_change = %d, want -3", e.QuantityChange)
	}
	if !e.PurchaseCostChange.IsZero() {
		t.Errorf("negative restock cost = %s, want 0", e.PurchaseCostChange)
	}

	got, err := inv.GetItem(ctx, item.ItemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.Quantity != 7 {
		t.Errorf("quantity = %d, want 7", got.Quantity)
	}
}

func TestInventory_ZeroDeltaIsSilentNoOp(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 10)

	if err := inv.AdjustQuantity(ctx, item.ItemID, 0, core.ReasonRestock); err != nil {
		t.Fatalf("AdjustQuantity(0) failed: %v", err)
	}

	entries := itemLog(t, ctx, inv, item.ItemID)
	if len(entries) != 1 {
		t.Errorf("expected only the opening entry, got %d entries", len(entries))
	}
}

func TestInventory_UpdateWithNoEffectiveChangeLeavesNoTrace(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 10)

	// Same price re-submitted is not a revaluation.
	samePrice := dec("50")
	if _, err := inv.UpdateItem(ctx, core.UpdateItemInput{
		ItemID:           item.ItemID,
		NewPurchasePrice: &samePrice,
	}); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	entries := itemLog(t, ctx, inv, item.ItemID)
	if len(entries) != 1 {
		t.Errorf("expected only the opening entry, got %d entries", len(entries))
	}
}

func TestInventory_RevaluationAtZeroQuantityLeavesNoEntry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 4)
	if err := inv.AdjustQuantity(ctx, item.ItemID, -4, core.ReasonCorrection); err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}

	// Price change while nothing is on hand moves no value.
	newPrice := dec("90")
	updated, err := inv.UpdateItem(ctx, core.UpdateItemInput{
		ItemID:           item.ItemID,
		NewPurchasePrice: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if !updated.PurchasePrice.Equal(dec("90")) {
		t.Errorf("purchase_price = %s, want 90", updated.PurchasePrice)
	}

	entries := itemLog(t, ctx, inv, item.ItemID)
	for _, e := range entries {
		if e.Reason == core.ReasonPriceRevaluation {
			t.Errorf("unexpected revaluation entry with cost %s", e.PurchaseCostChange)
		}
	}
}

func TestInventory_RejectsOverdraw(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Pen", "50", "70", 3)

	err := inv.AdjustQuantity(ctx, item.ItemID, -4, core.ReasonCorrection)
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The failed attempt must leave neither a log entry nor a quantity change.
	got, err := inv.GetItem(ctx, item.ItemID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", got.Quantity)
	}
	if entries := itemLog(t, ctx, inv, item.ItemID); len(entries) != 1 {
		t.Errorf("expected only the opening entry, got %d", len(entries))
	}
}

func TestInventory_PurgeRemovesEverythingButUsers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool)
	users := core.NewUserService(pool)
	ctx := context.Background()

	seedItem(t, ctx, inv, "Pen", "50", "70", 3)
	if err := users.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("EnsureDefaultAdmin failed: %v", err)
	}

	if err := inv.PurgeAllData(ctx); err != nil {
		t.Fatalf("PurgeAllData failed: %v", err)
	}

	items, err := inv.GetItems(ctx)
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items after purge, got %d", len(items))
	}
	entries, err := inv.GetLog(ctx)
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty log after purge, got %d entries", len(entries))
	}

	remaining, err := users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected admin account to survive purge, got %d users", len(remaining))
	}
}
