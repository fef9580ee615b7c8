package db

import (
	"context"

	"wheres-my-food/pkg/models"
)

func (d *OrderDB) InsertTracking(ctx context.Context, e models.TrackingEntry) error {
	const stmt = `
INSERT INTO order_tracking (id, order_id, status, notes, created_at)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := d.exec(ctx, stmt, e.ID, e.OrderID, string(e.Status), e.Notes, e.CreatedAt); err != nil {
		return dbErr("insert tracking", err)
	}
	return nil
}

// ListTracking returns entries oldest first; seq breaks ties between
// entries written in the same instant.
func (d *OrderDB) ListTracking(ctx context.Context, orderID string) ([]models.TrackingEntry, error) {
	const query = `
SELECT id::text, order_id::text, status, notes, created_at
FROM order_tracking
WHERE order_id = $1
ORDER BY created_at, seq`

	rows, err := d.query(ctx, query, orderID)
	if err != nil {
		if isInvalidUUID(err) {
			return []models.TrackingEntry{}, nil
		}
		return nil, dbErr("list tracking", err)
	}
	defer rows.Close()

	entries := []models.TrackingEntry{}
	for rows.Next() {
		var (
			e      models.TrackingEntry
			status string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &status, &e.Notes, &e.CreatedAt); err != nil {
			return nil, dbErr("scan tracking", err)
		}
		e.Status = models.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list tracking", err)
	}
	return entries, nil
}
