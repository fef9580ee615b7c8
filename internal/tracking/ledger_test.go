package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"wheres-my-food/pkg/clock"
	"wheres-my-food/pkg/models"
)

type fakeStore struct {
	rows []models.TrackingEntry
}

func (f *fakeStore) InsertTracking(_ context.Context, e models.TrackingEntry) error {
	f.rows = append(f.rows, e)
	return nil
}

func (f *fakeStore) ListTracking(_ context.Context, orderID string) ([]models.TrackingEntry, error) {
	var out []models.TrackingEntry
	for _, r := range f.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestLedger(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("append then list keeps insertion order on equal timestamps", func(t *testing.T) {
		store := &fakeStore{}
		l := NewLedger(store, clock.NewFixed(now))
		ctx := context.Background()

		for _, st := range []models.Status{models.StatusPending, models.StatusAccepted, models.StatusPreparing} {
			if _, err := l.Append(ctx, "o1", st, ""); err != nil {
				t.Fatalf("append %s: %v", st, err)
			}
		}
		if _, err := l.Append(ctx, "o2", models.StatusPending, "other order"); err != nil {
			t.Fatalf("append: %v", err)
		}

		got, err := l.ListFor(ctx, "o1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(got))
		}
		want := []models.Status{models.StatusPending, models.StatusAccepted, models.StatusPreparing}
		for i, e := range got {
			if e.Status != want[i] {
				t.Fatalf("entry %d: expected %s, got %s", i, want[i], e.Status)
			}
			if !e.CreatedAt.Equal(now) {
				t.Fatalf("expected created_at from clock, got %s", e.CreatedAt)
			}
		}
	})

	t.Run("unknown order lists empty", func(t *testing.T) {
		l := NewLedger(&fakeStore{}, clock.NewFixed(now))
		got, err := l.ListFor(context.Background(), "missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %v", got)
		}
	})

	t.Run("unrecognized status rejected", func(t *testing.T) {
		l := NewLedger(&fakeStore{}, clock.NewFixed(now))
		_, err := l.Append(context.Background(), "o1", models.Status("shipped"), "")
		if !errors.Is(err, models.ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}
