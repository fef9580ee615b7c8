package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"wheres-my-food/internal/notification"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
	"wheres-my-food/pkg/models"
)

const (
	orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	orderNumberSuffix   = 9
	maxNumberAttempts   = 3
)

// newOrderNumber returns ORD-<unix millis>-<9 random base36 chars>.
func newOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, orderNumberSuffix)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), buf), nil
}

// CreateOrder validates the request against the catalog, persists the order
// with its lines and schedules stock, notification and event work.
func (s *OrderService) CreateOrder(ctx context.Context, p models.Principal, req models.CreateOrderRequest) (models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	mylog := logger.FromCtx(ctx, s.mylog).Action("create_order")

	order, err := s.createOrder(ctx, p, req, mylog)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Order{}, err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
		attribute.Int("order.lines", len(order.Lines)),
	)
	span.SetStatus(codes.Ok, "order created")
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, p models.Principal, req models.CreateOrderRequest, mylog *logger.Logger) (models.Order, error) {
	if p.ID == "" {
		return models.Order{}, fmt.Errorf("%w: missing authenticated customer: %w", models.ErrInvalidRequest, models.ErrUnauthenticated)
	}
	if err := s.validator.Validate(&req); err != nil {
		mylog.Action("validation_failed").Warn("Order request rejected", "reason", err.Error())
		return models.Order{}, err
	}

	key := req.IdempotencyKey
	if key != "" {
		existing, locked, err := s.claimKey(ctx, p.ID, key, mylog)
		if err != nil {
			return models.Order{}, err
		}
		if existing != nil {
			mylog.Info("Replayed order for idempotency key", "order_number", existing.OrderNumber)
			return *existing, nil
		}
		if !locked {
			key = ""
		}
	}

	order, err := s.placeOrder(ctx, p, req, mylog)
	if key != "" {
		s.settleKey(ctx, p.ID, key, order.ID, err, mylog)
	}
	if err != nil {
		return models.Order{}, err
	}

	s.afterCreate(order, mylog)

	metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
	mylog.Info("Order created", "order_number", order.OrderNumber, "total_amount", order.TotalAmount.StringFixed(2), "lines", len(order.Lines))
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, p models.Principal, req models.CreateOrderRequest, mylog *logger.Logger) (models.Order, error) {
	lines, total, firstVendor, err := s.priceLines(ctx, req.Items)
	if err != nil {
		mylog.Action("pricing_failed").Warn("Order lines rejected", "reason", err.Error())
		return models.Order{}, err
	}

	vendorID := firstVendor
	if req.VendorID != nil && *req.VendorID != "" {
		vendorID = *req.VendorID
	}

	now := s.clock.Now()
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.DefaultPaymentStatus
	}

	order := models.Order{
		ID:                   uuid.NewString(),
		CustomerID:           p.ID,
		TotalAmount:          total,
		Status:               models.StatusPending,
		PaymentMethod:        req.PaymentMethod,
		PaymentStatus:        paymentStatus,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		OrderType:            s.validator.OrderType(req.OrderType),
		TableNumber:          req.TableNumber,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if vendorID != "" {
		order.VendorID = &vendorID
	}

	if err := s.insertOrder(ctx, &order); err != nil {
		mylog.Action("order_insert_failed").Error("Failed to save order", err)
		return models.Order{}, err
	}

	for i := range lines {
		lines[i].OrderID = order.ID
		lines[i].CreatedAt = now
	}
	if err := s.orders.InsertOrderLines(ctx, lines); err != nil {
		mylog.Action("order_lines_insert_failed").Error("Failed to save order lines, removing order", err, "order_number", order.OrderNumber)
		if derr := s.orders.DeleteOrder(context.WithoutCancel(ctx), order.ID); derr != nil {
			mylog.Action("order_rollback_failed").Error("Failed to remove order after line failure", derr, "order_id", order.ID)
		}
		return models.Order{}, persistenceErr("create order lines", err)
	}
	order.Lines = lines

	if _, err := s.tracking.Append(ctx, order.ID, models.StatusPending, "Order created"); err != nil {
		mylog.Action("tracking_append_failed").Error("Failed to record initial tracking entry", err, "order_number", order.OrderNumber)
	}
	return order, nil
}

func (s *OrderService) insertOrder(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order.OrderNumber, err = newOrderNumber(order.CreatedAt)
		if err != nil {
			return persistenceErr("generate order number", err)
		}
		err = s.orders.InsertOrder(ctx, *order)
		if !errors.Is(err, models.ErrOrderNumberTaken) {
			break
		}
	}
	if err != nil {
		return persistenceErr("create order", err)
	}
	return nil
}

// priceLines checks every requested line against the catalog in request
// order and captures the price current at this moment.
func (s *OrderService) priceLines(ctx context.Context, items []models.OrderItemRequest) ([]models.OrderLine, decimal.Decimal, string, error) {
	lines := make([]models.OrderLine, 0, len(items))
	total := decimal.Zero
	firstVendor := ""

	for i, it := range items {
		item, err := s.catalog.GetMenuItem(ctx, it.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, "", fmt.Errorf("menu item %s: %w", it.MenuItemID, err)
		}
		if !item.IsAvailable {
			return nil, decimal.Zero, "", fmt.Errorf("%w: %s", models.ErrItemUnavailable, item.Name)
		}
		if item.AvailableQuantity < it.Quantity {
			return nil, decimal.Zero, "", fmt.Errorf("%w: %s has %d left, requested %d",
				models.ErrInsufficientStock, item.Name, item.AvailableQuantity, it.Quantity)
		}

		subtotal := item.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		lines = append(lines, models.OrderLine{
			ID:                  uuid.NewString(),
			MenuItemID:          item.ID,
			Quantity:            it.Quantity,
			UnitPrice:           item.Price,
			Subtotal:            subtotal,
			SpecialInstructions: it.SpecialInstructions,
			Name:                item.Name,
		})
		total = total.Add(subtotal)
		if i == 0 {
			firstVendor = item.VendorID
		}
	}
	return lines, total, firstVendor, nil
}

// claimKey returns the order an earlier request created with key, or locks
// key for this request. An unreachable store disables the check.
func (s *OrderService) claimKey(ctx context.Context, scope, key string, mylog *logger.Logger) (*models.Order, bool, error) {
	if s.idem == nil {
		return nil, false, nil
	}

	orderID, found, err := s.idem.Recall(ctx, scope, key)
	if err != nil {
		mylog.Action("idempotency_unavailable").Warn("Idempotency store unavailable", "reason", err.Error())
		return nil, false, nil
	}
	if found {
		order, err := s.replayOrder(ctx, orderID)
		return order, false, err
	}

	ok, err := s.idem.TryLock(ctx, scope, key)
	if err != nil {
		mylog.Action("idempotency_unavailable").Warn("Idempotency store unavailable", "reason", err.Error())
		return nil, false, nil
	}
	if ok {
		return nil, true, nil
	}

	// The holder may have finished between Recall and TryLock.
	if orderID, found, err := s.idem.Recall(ctx, scope, key); err == nil && found {
		order, err := s.replayOrder(ctx, orderID)
		return order, false, err
	}
	return nil, false, models.ErrDuplicateRequest
}

func (s *OrderService) replayOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.ListOrderLines(ctx, orderID)
	if err != nil {
		return nil, persistenceErr("list order lines", err)
	}
	order.Lines = lines
	return &order, nil
}

func (s *OrderService) settleKey(ctx context.Context, scope, key, orderID string, createErr error, mylog *logger.Logger) {
	ctx = context.WithoutCancel(ctx)
	if createErr != nil {
		if err := s.idem.Release(ctx, scope, key); err != nil {
			mylog.Action("idempotency_release_failed").Warn("Failed to release idempotency key", "reason", err.Error())
		}
		return
	}
	if err := s.idem.Remember(ctx, scope, key, orderID); err != nil {
		mylog.Action("idempotency_remember_failed").Warn("Failed to remember idempotency key", "reason", err.Error())
	}
}

// afterCreate schedules the detached follow-up work for a placed order.
func (s *OrderService) afterCreate(order models.Order, mylog *logger.Logger) {
	for _, line := range order.Lines {
		s.runner.Submit("stock_decrement", func(ctx context.Context) {
			if err := s.stock.Decrement(ctx, line.MenuItemID, line.Quantity); err != nil {
				mylog.Action("stock_decrement_failed").Error("Failed to decrement stock", err,
					"order_number", order.OrderNumber, "menu_item_id", line.MenuItemID, "quantity", line.Quantity)
			}
		})
	}

	s.runner.Submit("notify_order_confirmation", func(ctx context.Context) {
		customer := s.customerContact(ctx, order.CustomerID, mylog)
		s.notifier.Notify(ctx, notification.Job{
			Kind:    notification.KindOrderConfirmation,
			To:      customer.Phone,
			Body:    notification.OrderConfirmation(order),
			OrderID: order.ID,
		})
	})

	s.runner.Submit("notify_new_order_alert", func(ctx context.Context) {
		var vendor models.Vendor
		if id := order.VendorIDValue(); id != "" {
			v, err := s.catalog.GetVendor(ctx, id)
			if err != nil {
				mylog.Action("vendor_lookup_failed").Warn("Vendor lookup failed", "vendor_id", id, "reason", err.Error())
			}
			vendor = v
		}
		customer := s.customerContact(ctx, order.CustomerID, mylog)
		s.notifier.Notify(ctx, notification.Job{
			Kind:    notification.KindNewOrderAlert,
			To:      vendor.Phone,
			Body:    notification.NewOrderAlert(order, customer.Name),
			OrderID: order.ID,
		})
	})

	msg := models.OrderMessage{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		VendorID:    order.VendorIDValue(),
		OrderType:   order.OrderType,
		TableNumber: order.TableNumber,
		Items:       order.Lines,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	s.runner.Submit("publish_order_created", func(ctx context.Context) {
		if err := s.events.PublishOrderCreated(ctx, msg); err != nil {
			mylog.Action("message_publishing_failed").Error("Failed to publish order created event", err, "order_number", order.OrderNumber)
		}
	})
}
