package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wheres-my-food/internal/testutil"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

func TestOrderDB(t *testing.T) {
	pool := testutil.NewTestPool(t)
	d := NewOrderDB(pool, logger.Nop())
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	newOrder := func(customerID, vendorID string) models.Order {
		return models.Order{
			ID:            uuid.NewString(),
			CustomerID:    customerID,
			VendorID:      &vendorID,
			OrderNumber:   "ORD-" + uuid.NewString()[:8],
			TotalAmount:   decimal.RequireFromString("9.00"),
			Status:        models.StatusPending,
			PaymentStatus: models.DefaultPaymentStatus,
			OrderType:     models.OrderTypeDelivery,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	t.Run("catalog reads", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		vendorID := testutil.InsertVendor(t, ctx, pool, "Dosa Corner", "9876543210")
		itemID := testutil.InsertMenuItem(t, ctx, pool, vendorID, "Masala Dosa", "2.50", 5)

		item, err := d.GetMenuItem(ctx, itemID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.VendorID != vendorID || item.Price.StringFixed(2) != "2.50" || item.AvailableQuantity != 5 || !item.IsAvailable {
			t.Fatalf("unexpected item: %+v", item)
		}

		if _, err := d.GetMenuItem(ctx, "not-a-uuid"); !errors.Is(err, models.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
		if _, err := d.GetVendor(ctx, uuid.NewString()); !errors.Is(err, models.ErrVendorNotFound) {
			t.Fatalf("expected ErrVendorNotFound, got %v", err)
		}
	})

	t.Run("order with lines and rollback delete", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		vendorID := testutil.InsertVendor(t, ctx, pool, "Dosa Corner", "")
		itemID := testutil.InsertMenuItem(t, ctx, pool, vendorID, "Masala Dosa", "2.50", 5)
		customerID := testutil.InsertUser(t, ctx, pool, "Asha", "9123456780", "CUSTOMER")

		order := newOrder(customerID, vendorID)
		if err := d.InsertOrder(ctx, order); err != nil {
			t.Fatalf("insert order: %v", err)
		}
		dup := newOrder(customerID, vendorID)
		dup.OrderNumber = order.OrderNumber
		if err := d.InsertOrder(ctx, dup); !errors.Is(err, models.ErrOrderNumberTaken) {
			t.Fatalf("expected ErrOrderNumberTaken, got %v", err)
		}

		line := models.OrderLine{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: itemID,
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("2.50"),
			Subtotal:   decimal.RequireFromString("5.00"),
			CreatedAt:  now,
		}
		if err := d.InsertOrderLines(ctx, []models.OrderLine{line}); err != nil {
			t.Fatalf("insert lines: %v", err)
		}

		got, err := d.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.OrderNumber != order.OrderNumber || !got.TotalAmount.Equal(order.TotalAmount) || got.VendorIDValue() != vendorID {
			t.Fatalf("unexpected order: %+v", got)
		}
		lines, err := d.ListOrderLines(ctx, order.ID)
		if err != nil || len(lines) != 1 || lines[0].Name != "Masala Dosa" {
			t.Fatalf("unexpected lines %+v (%v)", lines, err)
		}

		if err := d.DeleteOrder(ctx, order.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := d.GetOrder(ctx, order.ID); !errors.Is(err, models.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound after delete, got %v", err)
		}
		lines, _ = d.ListOrderLines(ctx, order.ID)
		if len(lines) != 0 {
			t.Fatalf("expected lines removed with order")
		}
	})

	t.Run("status update and tracking order", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		vendorID := testutil.InsertVendor(t, ctx, pool, "Dosa Corner", "")
		customerID := testutil.InsertUser(t, ctx, pool, "Asha", "", "CUSTOMER")
		order := newOrder(customerID, vendorID)
		if err := d.InsertOrder(ctx, order); err != nil {
			t.Fatalf("insert order: %v", err)
		}

		if err := d.UpdateOrderStatus(ctx, order.ID, models.StatusReady, now.Add(time.Minute)); err != nil {
			t.Fatalf("update status: %v", err)
		}
		if err := d.UpdateOrderStatus(ctx, uuid.NewString(), models.StatusReady, now); !errors.Is(err, models.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}

		for _, st := range []models.Status{models.StatusPending, models.StatusReady} {
			err := d.InsertTracking(ctx, models.TrackingEntry{ID: uuid.NewString(), OrderID: order.ID, Status: st, CreatedAt: now})
			if err != nil {
				t.Fatalf("insert tracking: %v", err)
			}
		}
		entries, err := d.ListTracking(ctx, order.ID)
		if err != nil {
			t.Fatalf("list tracking: %v", err)
		}
		if len(entries) != 2 || entries[0].Status != models.StatusPending || entries[1].Status != models.StatusReady {
			t.Fatalf("expected insertion order for equal timestamps, got %+v", entries)
		}
	})

	t.Run("list orders filters and pages", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		v1 := testutil.InsertVendor(t, ctx, pool, "A", "")
		v2 := testutil.InsertVendor(t, ctx, pool, "B", "")
		c1 := testutil.InsertUser(t, ctx, pool, "Asha", "", "CUSTOMER")

		for i, v := range []string{v1, v1, v2} {
			o := newOrder(c1, v)
			o.CreatedAt = now.Add(time.Duration(i) * time.Second)
			if err := d.InsertOrder(ctx, o); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		got, err := d.ListOrders(ctx, models.OrderFilter{VendorID: v1, Limit: 10})
		if err != nil || len(got) != 2 {
			t.Fatalf("expected 2 vendor orders, got %d (%v)", len(got), err)
		}
		got, _ = d.ListOrders(ctx, models.OrderFilter{CustomerID: c1, Limit: 1, Offset: 0})
		if len(got) != 1 || got[0].VendorIDValue() != v2 {
			t.Fatalf("expected newest order first, got %+v", got)
		}
		got, _ = d.ListOrders(ctx, models.OrderFilter{Status: models.StatusDelivered, Limit: 10})
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %+v", got)
		}
	})

	t.Run("conditional decrement never oversells", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		vendorID := testutil.InsertVendor(t, ctx, pool, "A", "")
		itemID := testutil.InsertMenuItem(t, ctx, pool, vendorID, "Dosa", "2.50", 5)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := d.DecrementIfAvailable(ctx, itemID, 3)
				if err != nil {
					t.Errorf("decrement: %v", err)
					return
				}
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if wins != 1 {
			t.Fatalf("expected exactly one decrement, got %d", wins)
		}
		if q, _ := d.GetAvailableQuantity(ctx, itemID); q != 2 {
			t.Fatalf("expected 2 left, got %d", q)
		}
		if err := d.SetAvailableQuantity(ctx, itemID, 0); err != nil {
			t.Fatalf("set: %v", err)
		}
	})
}
