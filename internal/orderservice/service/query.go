package service

import (
	"context"
	"fmt"

	"wheres-my-food/pkg/models"
)

// Access is the capability requested on an order.
type Access int

const (
	AccessRead Access = iota
	AccessManage
)

// canAccessOrder is the single authorization rule for order reads and status writes.
// Admins may do anything; restaurant owners act on their vendor's orders;
// customers may read their own orders.
func canAccessOrder(order models.Order, p models.Principal, access Access) bool {
	if p.ID == "" {
		return false
	}
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleRestaurantOwner:
		return p.VendorID != "" && p.VendorID == order.VendorIDValue()
	case models.RoleCustomer:
		return access == AccessRead && p.ID == order.CustomerID
	default:
		return false
	}
}

func (s *OrderService) authorizedOrder(ctx context.Context, p models.Principal, orderID string, access Access) (models.Order, error) {
	if p.ID == "" {
		return models.Order{}, models.ErrUnauthenticated
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !canAccessOrder(order, p, access) {
		return models.Order{}, fmt.Errorf("%w: order %s", models.ErrForbidden, order.OrderNumber)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, p models.Principal, orderID string) (models.Order, error) {
	order, err := s.authorizedOrder(ctx, p, orderID, AccessRead)
	if err != nil {
		return models.Order{}, err
	}
	lines, err := s.orders.ListOrderLines(ctx, order.ID)
	if err != nil {
		return models.Order{}, persistenceErr("list order lines", err)
	}
	order.Lines = lines
	return order, nil
}

// ListOrders returns newest orders first. Customers and restaurant owners
// are scoped to their own orders unless they pass an explicit filter.
func (s *OrderService) ListOrders(ctx context.Context, p models.Principal, filter models.OrderFilter) (models.OrderList, error) {
	if p.ID == "" {
		return models.OrderList{}, models.ErrUnauthenticated
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return models.OrderList{}, fmt.Errorf("%w: %q", models.ErrInvalidStatus, filter.Status)
	}
	if filter.Offset < 0 {
		return models.OrderList{}, fmt.Errorf("%w: offset must not be negative", models.ErrInvalidRequest)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.opts.DefaultListLimit
	}
	if filter.Limit > s.opts.MaxListLimit {
		filter.Limit = s.opts.MaxListLimit
	}

	switch p.Role {
	case models.RoleCustomer:
		if filter.CustomerID == "" {
			filter.CustomerID = p.ID
		}
	case models.RoleRestaurantOwner:
		if filter.VendorID == "" {
			filter.VendorID = p.VendorID
		}
	}

	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return models.OrderList{}, persistenceErr("list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return models.OrderList{
		Orders: orders,
		Count:  len(orders),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (s *OrderService) GetOrderTracking(ctx context.Context, p models.Principal, orderID string) ([]models.TrackingEntry, error) {
	order, err := s.authorizedOrder(ctx, p, orderID, AccessRead)
	if err != nil {
		return nil, err
	}
	entries, err := s.tracking.ListFor(ctx, order.ID)
	if err != nil {
		return nil, persistenceErr("list tracking", err)
	}
	return entries, nil
}
