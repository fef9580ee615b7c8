package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"wheres-my-food/internal/idempotency"
	"wheres-my-food/internal/inventory"
	"wheres-my-food/internal/notification"
	"wheres-my-food/internal/orderservice/message"
	"wheres-my-food/internal/orderservice/validation"
	"wheres-my-food/internal/tracking"
	"wheres-my-food/pkg/clock"
	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/models"
	"wheres-my-food/pkg/tracing"
	"wheres-my-food/pkg/workerpool"
)

// OrderStore is the only writer of orders and order lines.
type OrderStore interface {
	// InsertOrder returns models.ErrOrderNumberTaken when the number collides.
	InsertOrder(ctx context.Context, order models.Order) error
	InsertOrderLines(ctx context.Context, lines []models.OrderLine) error
	DeleteOrder(ctx context.Context, id string) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrderLines(ctx context.Context, orderID string) ([]models.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) error
	// ListOrders returns newest first.
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
}

// Catalog is the read-only view of vendors and menu items.
type Catalog interface {
	GetMenuItem(ctx context.Context, id string) (models.MenuItem, error)
	GetVendor(ctx context.Context, id string) (models.Vendor, error)
}

type Contacts interface {
	GetCustomer(ctx context.Context, id string) (models.Customer, error)
}

type Notifier interface {
	Notify(ctx context.Context, job notification.Job) notification.Result
}

type Deps struct {
	Orders   OrderStore
	Catalog  Catalog
	Contacts Contacts
	Stock    *inventory.Ledger
	Tracking *tracking.Ledger
	Notifier Notifier
	Events   message.Publisher
	// Idempotency is optional; nil disables idempotency keys.
	Idempotency idempotency.Store
	Runner      workerpool.Runner
	Clock       clock.Clock
	Logger      *logger.Logger
}

type Options struct {
	EnforceTransitions bool
	DefaultListLimit   int
	MaxListLimit       int
}

type OrderService struct {
	orders    OrderStore
	catalog   Catalog
	contacts  Contacts
	stock     *inventory.Ledger
	tracking  *tracking.Ledger
	notifier  Notifier
	events    message.Publisher
	idem      idempotency.Store
	runner    workerpool.Runner
	clock     clock.Clock
	validator *validation.OrderValidator
	tracer    trace.Tracer
	mylog     *logger.Logger
	opts      Options
}

func NewOrderService(deps Deps, opts Options) *OrderService {
	if opts.DefaultListLimit <= 0 {
		opts.DefaultListLimit = 50
	}
	if opts.MaxListLimit < opts.DefaultListLimit {
		opts.MaxListLimit = 200
	}
	if deps.Events == nil {
		deps.Events = message.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return &OrderService{
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		contacts:  deps.Contacts,
		stock:     deps.Stock,
		tracking:  deps.Tracking,
		notifier:  deps.Notifier,
		events:    deps.Events,
		idem:      deps.Idempotency,
		runner:    deps.Runner,
		clock:     deps.Clock,
		validator: validation.NewOrderValidator(),
		tracer:    tracing.Tracer(),
		mylog:     deps.Logger,
		opts:      opts,
	}
}

func persistenceErr(op string, err error) error {
	if models.KindOf(err) == models.KindPersistence {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
}

func (s *OrderService) customerContact(ctx context.Context, customerID string, mylog *logger.Logger) models.Customer {
	customer, err := s.contacts.GetCustomer(ctx, customerID)
	if err != nil {
		mylog.Action("contact_lookup_failed").Warn("Customer contact lookup failed", "customer_id", customerID, "reason", err.Error())
		return models.Customer{ID: customerID}
	}
	return customer
}
