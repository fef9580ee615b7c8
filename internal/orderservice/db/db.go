// Package db is the Postgres implementation of the order, catalog, contact,
// stock and tracking stores.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
)

type OrderDB struct {
	pool  *pgxpool.Pool
	mylog *logger.Logger
}

func NewOrderDB(pool *pgxpool.Pool, mylog *logger.Logger) *OrderDB {
	return &OrderDB{pool: pool, mylog: mylog}
}

func (d *OrderDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, d.pool, fn)
}

const orderColumns = `
id::text, customer_id::text, vendor_id::text, order_number, total_amount::text, status,
payment_method, payment_status, delivery_address, delivery_instructions,
order_type, table_number, created_at, updated_at`

func (d *OrderDB) InsertOrder(ctx context.Context, o models.Order) error {
	const stmt = `
INSERT INTO orders (
	id, customer_id, vendor_id, order_number, total_amount, status,
	payment_method, payment_status, delivery_address, delivery_instructions,
	order_type, table_number, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := d.exec(ctx, stmt,
		o.ID, o.CustomerID, o.VendorID, o.OrderNumber, o.TotalAmount.String(), string(o.Status),
		o.PaymentMethod, o.PaymentStatus, o.DeliveryAddress, o.DeliveryInstructions,
		string(o.OrderType), o.TableNumber, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrOrderNumberTaken
		}
		return dbErr("insert order", err)
	}
	return nil
}

// InsertOrderLines writes all lines in one batch inside a transaction, so
// either every line is stored or none is.
func (d *OrderDB) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	const stmt = `
INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price, subtotal, special_instructions, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8)`

	return d.WithTx(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, l := range lines {
			batch.Queue(stmt, l.ID, l.OrderID, l.MenuItemID, l.Quantity,
				l.UnitPrice.String(), l.Subtotal.String(), l.SpecialInstructions, l.CreatedAt)
		}

		br := txFromContext(ctx).SendBatch(ctx, batch)
		for range lines {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return dbErr("insert order items", err)
			}
		}
		if err := br.Close(); err != nil {
			return dbErr("insert order items", err)
		}
		return nil
	})
}

func (d *OrderDB) DeleteOrder(ctx context.Context, id string) error {
	if _, err := d.exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return dbErr("delete order", err)
	}
	return nil
}

func (d *OrderDB) GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(d.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return models.Order{}, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
		}
		return models.Order{}, dbErr("get order", err)
	}
	return o, nil
}

func (d *OrderDB) ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	const query = `
SELECT oi.id::text, oi.order_id::text, oi.menu_item_id::text, oi.quantity, oi.unit_price::text, oi.subtotal::text,
       oi.special_instructions, oi.created_at, COALESCE(m.name, '')
FROM order_items oi
LEFT JOIN menu_items m ON m.id = oi.menu_item_id
WHERE oi.order_id = $1
ORDER BY oi.created_at, oi.id`

	rows, err := d.query(ctx, query, orderID)
	if err != nil {
		return nil, dbErr("list order items", err)
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var (
			l              models.OrderLine
			unit, subtotal string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &unit, &subtotal,
			&l.SpecialInstructions, &l.CreatedAt, &l.Name); err != nil {
			return nil, dbErr("scan order item", err)
		}
		if l.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, dbErr("parse unit price", err)
		}
		if l.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, dbErr("parse subtotal", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list order items", err)
	}
	return lines, nil
}

func (d *OrderDB) UpdateOrderStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error {
	tag, err := d.exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), updatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
		}
		return dbErr("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	return nil
}

func (d *OrderDB) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != "" {
		add("customer_id::text = $%d", f.CustomerID)
	}
	if f.VendorID != "" {
		add("vendor_id::text = $%d", f.VendorID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + orderColumns + ` FROM orders`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, f.Limit, f.Offset)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC, order_number DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := d.query(ctx, sb.String(), args...)
	if err != nil {
		return nil, dbErr("list orders", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, dbErr("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list orders", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		o                 models.Order
		total, status, ot string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.VendorID, &o.OrderNumber, &total, &status,
		&o.PaymentMethod, &o.PaymentStatus, &o.DeliveryAddress, &o.DeliveryInstructions,
		&ot, &o.TableNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return models.Order{}, err
	}
	o.Status = models.Status(status)
	o.OrderType = models.OrderType(ot)
	return o, nil
}

func (d *OrderDB) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return d.pool.Exec(ctx, sql, args...)
}

func (d *OrderDB) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *OrderDB) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return d.pool.Query(ctx, sql, args...)
}
