package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"pending", "accepted", "rejected", "confirmed", "preparing", "ready", "out_for_delivery", "delivered", "cancelled"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("expected %q to be recognized, got %v", s, err)
		}
	}

	for _, s := range []string{"", "PENDING", "shipped", "Ready"} {
		_, err := ParseStatus(s)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus for %q, got %v", s, err)
		}
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusConfirmed, true},
		{StatusAccepted, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusReady, StatusReady, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("insert order: %w: %w", ErrPersistence, errors.New("connection reset"))
	if KindOf(wrapped) != KindPersistence {
		t.Fatalf("expected persistence kind, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, ErrPersistence) {
		t.Fatalf("expected wrapped error to match ErrPersistence")
	}
	if KindOf(fmt.Errorf("%w: item-1", ErrItemNotFound)) != KindNotFound {
		t.Fatalf("expected not_found kind")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for unclassified error")
	}
}
