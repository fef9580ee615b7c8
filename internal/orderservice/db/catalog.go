package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"wheres-my-food/pkg/models"
)

func (d *OrderDB) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	const query = `
SELECT id::text, vendor_id::text, name, price::text, is_available, available_quantity
FROM menu_items
WHERE id = $1`

	var (
		item  models.MenuItem
		price string
	)
	err := d.queryRow(ctx, query, id).
		Scan(&item.ID, &item.VendorID, &item.Name, &price, &item.IsAvailable, &item.AvailableQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return models.MenuItem{}, fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
		}
		return models.MenuItem{}, dbErr("get menu item", err)
	}
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return models.MenuItem{}, dbErr("parse menu item price", err)
	}
	return item, nil
}

func (d *OrderDB) GetVendor(ctx context.Context, id string) (models.Vendor, error) {
	var v models.Vendor
	err := d.queryRow(ctx, `SELECT id::text, name, phone, email FROM vendors WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.Phone, &v.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return models.Vendor{}, fmt.Errorf("%w: %s", models.ErrVendorNotFound, id)
		}
		return models.Vendor{}, dbErr("get vendor", err)
	}
	return v, nil
}

func (d *OrderDB) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	var c models.Customer
	err := d.queryRow(ctx, `SELECT id::text, name, phone FROM users WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return models.Customer{}, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, id)
		}
		return models.Customer{}, dbErr("get customer", err)
	}
	return c, nil
}

func (d *OrderDB) GetAvailableQuantity(ctx context.Context, id string) (int, error) {
	item, err := d.GetMenuItem(ctx, id)
	if err != nil {
		return 0, err
	}
	return item.AvailableQuantity, nil
}

func (d *OrderDB) SetAvailableQuantity(ctx context.Context, id string, quantity int) error {
	tag, err := d.exec(ctx, `UPDATE menu_items SET available_quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return dbErr("set available quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
	}
	return nil
}

// DecrementIfAvailable subtracts quantity only while enough stock remains.
// It reports false when the row was left untouched.
func (d *OrderDB) DecrementIfAvailable(ctx context.Context, id string, quantity int) (bool, error) {
	const stmt = `
UPDATE menu_items
SET available_quantity = available_quantity - $2
WHERE id = $1 AND available_quantity >= $2`

	tag, err := d.exec(ctx, stmt, id, quantity)
	if err != nil {
		return false, dbErr("decrement available quantity", err)
	}
	if tag.RowsAffected() == 0 {
		d.mylog.Debug("Conditional stock decrement matched no row", "menu_item_id", id, "quantity", quantity)
		return false, nil
	}
	return true, nil
}
