// Package inventory owns every write to menu item stock.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
	"wheres-my-food/pkg/models"
)

// StockStore is the minimal store the ledger needs for the read-modify-write path.
type StockStore interface {
	GetAvailableQuantity(ctx context.Context, menuItemID string) (int, error)
	SetAvailableQuantity(ctx context.Context, menuItemID string, quantity int) error
}

// AtomicDecrementer is implemented by stores that can decrement with a
// single conditional write. ok is false when stock was short.
type AtomicDecrementer interface {
	DecrementIfAvailable(ctx context.Context, menuItemID string, quantity int) (ok bool, err error)
}

type Ledger struct {
	store StockStore
	mylog *logger.Logger
}

func NewLedger(store StockStore, mylog *logger.Logger) *Ledger {
	return &Ledger{store: store, mylog: mylog}
}

// Decrement removes quantity units of stock. Stores implementing
// AtomicDecrementer never go negative and report ErrInsufficientStock.
// Other stores get read-modify-write clamped at zero, which can lose
// updates when the same item is decremented concurrently.
func (l *Ledger) Decrement(ctx context.Context, menuItemID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", models.ErrInvalidRequest)
	}

	if atomic, ok := l.store.(AtomicDecrementer); ok {
		return l.decrementAtomic(ctx, atomic, menuItemID, quantity)
	}
	return l.decrementFallback(ctx, menuItemID, quantity)
}

func (l *Ledger) decrementAtomic(ctx context.Context, store AtomicDecrementer, menuItemID string, quantity int) error {
	ok, err := store.DecrementIfAvailable(ctx, menuItemID, quantity)
	if err != nil {
		metrics.StockDecrements.WithLabelValues("atomic", "error").Inc()
		return fmt.Errorf("decrement %s: %w", menuItemID, err)
	}
	if !ok {
		metrics.StockDecrements.WithLabelValues("atomic", "insufficient").Inc()
		return fmt.Errorf("%w: menu item %s, requested %d", models.ErrInsufficientStock, menuItemID, quantity)
	}
	metrics.StockDecrements.WithLabelValues("atomic", "ok").Inc()
	l.mylog.Action("stock_decremented").Debug("Stock decremented", "menu_item_id", menuItemID, "quantity", quantity)
	return nil
}

func (l *Ledger) decrementFallback(ctx context.Context, menuItemID string, quantity int) error {
	current, err := l.store.GetAvailableQuantity(ctx, menuItemID)
	if err != nil {
		metrics.StockDecrements.WithLabelValues("fallback", "error").Inc()
		if errors.Is(err, models.ErrItemNotFound) {
			return err
		}
		return fmt.Errorf("read stock %s: %w", menuItemID, err)
	}

	next := max(0, current-quantity)
	if err := l.store.SetAvailableQuantity(ctx, menuItemID, next); err != nil {
		metrics.StockDecrements.WithLabelValues("fallback", "error").Inc()
		return fmt.Errorf("write stock %s: %w", menuItemID, err)
	}

	metrics.StockDecrements.WithLabelValues("fallback", "ok").Inc()
	l.mylog.Action("stock_decremented").Debug("Stock decremented without atomic support",
		"menu_item_id", menuItemID, "quantity", quantity, "remaining", next)
	return nil
}
