package cart

import (
	"context"
	"testing"

	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type cartTestSetup struct {
	db      *gorm.DB
	service Service
	userID  uuid.UUID
}

func newCartTestSetup(t *testing.T) *cartTestSetup {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Item{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(ServiceParams{TxRunner: gormTxRunner{db: conn}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &cartTestSetup{db: conn, service: svc, userID: uuid.New()}
}

func (s *cartTestSetup) seedItem(t *testing.T, name, price string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{
		SellerID:      uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Active:        true,
	}
	if err := s.db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (s *cartTestSetup) setPrice(t *testing.T, itemID uuid.UUID, price string) {
	t.Helper()
	err := s.db.Model(&models.Item{}).Where("id = ?", itemID).
		UpdateColumn("price", decimal.RequireFromString(price)).Error
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
}

func TestGetCartIsIdempotent(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()

	first, err := setup.service.GetCart(ctx, setup.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	second, err := setup.service.GetCart(ctx, setup.userID)
	if err != nil {
		t.Fatalf("get cart again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one cart per user, got %s and %s", first.ID, second.ID)
	}
	if len(first.Items) != 0 || first.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", first)
	}
	if !first.TotalPrice.IsZero() {
		t.Fatalf("expected zero total, got %s", first.TotalPrice)
	}
}

func TestItemCountDoesNotCreateCart(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()

	count, err := setup.service.ItemCount(ctx, setup.userID)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count.Count != 0 {
		t.Fatalf("expected 0, got %d", count.Count)
	}

	var carts int64
	if err := setup.db.Model(&models.Cart{}).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 0 {
		t.Fatalf("item count must not create a cart, found %d", carts)
	}
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	item := setup.seedItem(t, "Ceramic Mug", "19.99", 10)

	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(resp.Items))
	}
	line := resp.Items[0]
	if !line.PriceAtTime.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("unexpected snapshot %s", line.PriceAtTime)
	}
	if !line.LineTotal.Equal(decimal.RequireFromString("39.98")) {
		t.Errorf("unexpected line total %s", line.LineTotal)
	}
	if line.PriceChanged {
		t.Error("price should not be flagged as changed yet")
	}

	// Totals stay pinned to the snapshot after the live price moves.
	setup.setPrice(t, item.ID, "24.99")
	resp, err = setup.service.GetCart(ctx, setup.userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	line = resp.Items[0]
	if !line.PriceAtTime.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("snapshot must not move, got %s", line.PriceAtTime)
	}
	if !resp.TotalPrice.Equal(decimal.RequireFromString("39.98")) {
		t.Errorf("total must derive from snapshot, got %s", resp.TotalPrice)
	}
	if !line.PriceChanged {
		t.Error("expected drift flag")
	}
	if line.CurrentItemPrice == nil || !line.CurrentItemPrice.Equal(decimal.RequireFromString("24.99")) {
		t.Errorf("expected current price surfaced, got %v", line.CurrentItemPrice)
	}
}

func TestAddItemChecksCombinedQuantity(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	item := setup.seedItem(t, "Desk Lamp", "45.00", 10)

	if _, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 6}); err != nil {
		t.Fatalf("first add: %v", err)
	}

	_, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 6})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for 6+6 over stock 10, got %v", err)
	}

	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("6+4 should fit stock 10: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Quantity != 10 {
		t.Fatalf("expected merged line with quantity 10, got %+v", resp.Items)
	}
	if resp.TotalItems != 10 {
		t.Fatalf("expected 10 total items, got %d", resp.TotalItems)
	}
}

func TestAddItemValidation(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()

	_, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: uuid.New(), Quantity: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	_, err = setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: uuid.New(), Quantity: 1})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}

	// A delisted item is a validation failure, distinct from a missing row.
	inactive := setup.seedItem(t, "Retired Poster", "5.00", 3)
	if err := setup.db.Model(&models.Item{}).Where("id = ?", inactive.ID).
		UpdateColumn("active", false).Error; err != nil {
		t.Fatalf("deactivate item: %v", err)
	}
	_, err = setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: inactive.ID, Quantity: 1})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for delisted item, got %v", err)
	}
}

func TestUpdateItemRejectsDelistedItem(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	item := setup.seedItem(t, "Wall Clock", "25.00", 5)

	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	lineID := resp.Items[0].ID

	if err := setup.db.Model(&models.Item{}).Where("id = ?", item.ID).
		UpdateColumn("active", false).Error; err != nil {
		t.Fatalf("deactivate item: %v", err)
	}

	_, err = setup.service.UpdateItem(ctx, setup.userID, lineID, UpdateItemRequest{Quantity: 2})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for delisted item, got %v", err)
	}

	// Dropping the line still works, even when the item is delisted.
	resp, err = setup.service.UpdateItem(ctx, setup.userID, lineID, UpdateItemRequest{Quantity: 0})
	if err != nil {
		t.Fatalf("remove delisted line: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", resp.Items)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	item := setup.seedItem(t, "Notebook", "7.50", 5)

	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	lineID := resp.Items[0].ID

	resp, err = setup.service.UpdateItem(ctx, setup.userID, lineID, UpdateItemRequest{Quantity: 4})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if resp.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", resp.Items[0].Quantity)
	}
	if !resp.TotalPrice.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected total 30, got %s", resp.TotalPrice)
	}

	_, err = setup.service.UpdateItem(ctx, setup.userID, lineID, UpdateItemRequest{Quantity: 6})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict over stock, got %v", err)
	}

	// Zero quantity removes the line.
	resp, err = setup.service.UpdateItem(ctx, setup.userID, lineID, UpdateItemRequest{Quantity: 0})
	if err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", resp.Items)
	}
}

func TestRemoveAndClear(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	mug := setup.seedItem(t, "Mug", "10.00", 10)
	lamp := setup.seedItem(t, "Lamp", "20.00", 10)

	if _, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: mug.ID, Quantity: 1}); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: lamp.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add lamp: %v", err)
	}
	if len(resp.Items) != 2 || resp.TotalItems != 3 {
		t.Fatalf("unexpected cart %+v", resp)
	}
	if !resp.TotalPrice.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected total 50, got %s", resp.TotalPrice)
	}

	var lampLine uuid.UUID
	for _, line := range resp.Items {
		if line.ItemID == lamp.ID {
			lampLine = line.ID
		}
	}
	resp, err = setup.service.RemoveItem(ctx, setup.userID, lampLine)
	if err != nil {
		t.Fatalf("remove lamp: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ItemID != mug.ID {
		t.Fatalf("expected only mug, got %+v", resp.Items)
	}

	_, err = setup.service.RemoveItem(ctx, setup.userID, lampLine)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for removed line, got %v", err)
	}

	resp, err = setup.service.Clear(ctx, setup.userID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(resp.Items) != 0 || !resp.TotalPrice.IsZero() {
		t.Fatalf("expected empty cart, got %+v", resp)
	}

	count, err := setup.service.ItemCount(ctx, setup.userID)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count.Count != 0 {
		t.Fatalf("expected 0 after clear, got %d", count.Count)
	}
}

func TestTotalsPersistOnCartRow(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	mug := setup.seedItem(t, "Mug", "10.00", 10)
	lamp := setup.seedItem(t, "Lamp", "20.00", 10)

	if _, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: mug.ID, Quantity: 2}); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	if _, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: lamp.ID, Quantity: 3}); err != nil {
		t.Fatalf("add lamp: %v", err)
	}

	var row models.Cart
	if err := setup.db.Where("user_id = ?", setup.userID).First(&row).Error; err != nil {
		t.Fatalf("load cart row: %v", err)
	}
	if row.TotalItems != 5 {
		t.Fatalf("expected persisted total_items 5, got %d", row.TotalItems)
	}
	if !row.TotalAmount.Equal(decimal.RequireFromString("80")) {
		t.Fatalf("expected persisted total_amount 80, got %s", row.TotalAmount)
	}

	// The count endpoint reads the stored counter, not the lines.
	if err := setup.db.Model(&models.Cart{}).Where("id = ?", row.ID).
		UpdateColumn("total_items", 7).Error; err != nil {
		t.Fatalf("tweak counter: %v", err)
	}
	count, err := setup.service.ItemCount(ctx, setup.userID)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count.Count != 7 {
		t.Fatalf("expected stored counter 7, got %d", count.Count)
	}

	// Clearing restamps both counters to zero.
	if _, err := setup.service.Clear(ctx, setup.userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := setup.db.Where("id = ?", row.ID).First(&row).Error; err != nil {
		t.Fatalf("reload cart row: %v", err)
	}
	if row.TotalItems != 0 || !row.TotalAmount.IsZero() {
		t.Fatalf("expected zeroed totals, got %d / %s", row.TotalItems, row.TotalAmount)
	}
}

func TestLineOwnershipEnforced(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()
	item := setup.seedItem(t, "Poster", "12.00", 10)

	resp, err := setup.service.AddItem(ctx, setup.userID, AddItemRequest{ItemID: item.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	lineID := resp.Items[0].ID

	intruder := uuid.New()
	_, err = setup.service.UpdateItem(ctx, intruder, lineID, UpdateItemRequest{Quantity: 5})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign line update, got %v", err)
	}

	_, err = setup.service.RemoveItem(ctx, intruder, lineID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign line removal, got %v", err)
	}

	// The victim's cart is untouched.
	count, err := setup.service.ItemCount(ctx, setup.userID)
	if err != nil {
		t.Fatalf("item count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected 1 item, got %d", count.Count)
	}
}

func TestRacingCartCreation(t *testing.T) {
	setup := newCartTestSetup(t)
	ctx := context.Background()

	// Simulate the loser of the insert race: a cart already exists when
	// Create runs, so the unique index rejects the duplicate and the
	// service reloads the winner's row.
	repo := NewRepository(setup.db)
	winner, err := repo.Create(ctx, setup.userID)
	if err != nil {
		t.Fatalf("precreate cart: %v", err)
	}
	if _, err := repo.Create(ctx, setup.userID); err == nil {
		t.Fatal("expected duplicate cart insert to fail")
	}

	resp, err := setup.service.GetCart(ctx, setup.userID)
	if err != nil {
		t.Fatalf("get cart after race: %v", err)
	}
	if resp.ID != winner.ID {
		t.Fatalf("expected the winner's cart %s, got %s", winner.ID, resp.ID)
	}
	var carts int64
	if err := setup.db.Model(&models.Cart{}).Count(&carts).Error; err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if carts != 1 {
		t.Fatalf("expected a single cart, got %d", carts)
	}
}
