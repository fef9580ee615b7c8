// Package tracking keeps the append-only status history of orders.
package tracking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wheres-my-food/pkg/clock"
	"wheres-my-food/pkg/models"
)

// Store persists tracking rows. ListTracking returns rows oldest first,
// ties in created_at broken by insertion order.
type Store interface {
	InsertTracking(ctx context.Context, entry models.TrackingEntry) error
	ListTracking(ctx context.Context, orderID string) ([]models.TrackingEntry, error)
}

type Ledger struct {
	store Store
	clock clock.Clock
}

func NewLedger(store Store, clk clock.Clock) *Ledger {
	return &Ledger{store: store, clock: clk}
}

func (l *Ledger) Append(ctx context.Context, orderID string, status models.Status, note string) (models.TrackingEntry, error) {
	if !status.Valid() {
		return models.TrackingEntry{}, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	entry := models.TrackingEntry{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Status:    status,
		Notes:     note,
		CreatedAt: l.clock.Now(),
	}
	if err := l.store.InsertTracking(ctx, entry); err != nil {
		return models.TrackingEntry{}, err
	}
	return entry, nil
}

func (l *Ledger) ListFor(ctx context.Context, orderID string) ([]models.TrackingEntry, error) {
	entries, err := l.store.ListTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TrackingEntry{}
	}
	return entries, nil
}
