// Package memstore is an in-process implementation of every order storage
// port, used by the memory storage driver and by tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wheres-my-food/pkg/models"
)

type Store struct {
	mu        sync.Mutex
	vendors   map[string]models.Vendor
	items     map[string]models.MenuItem
	customers map[string]models.Customer
	orders    map[string]models.Order
	numbers   map[string]string
	lines     map[string][]models.OrderLine
	tracking  []models.TrackingEntry

	lineInsertErr error
}

func New() *Store {
	return &Store{
		vendors:   make(map[string]models.Vendor),
		items:     make(map[string]models.MenuItem),
		customers: make(map[string]models.Customer),
		orders:    make(map[string]models.Order),
		numbers:   make(map[string]string),
		lines:     make(map[string][]models.OrderLine),
	}
}

func (s *Store) PutVendor(v models.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.ID] = v
}

func (s *Store) PutMenuItem(item models.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Store) PutCustomer(c models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// FailLineInserts makes InsertOrderLines return err until called with nil.
func (s *Store) FailLineInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineInsertErr = err
}

// OrderCount reports how many orders are stored.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Catalog

func (s *Store) GetMenuItem(_ context.Context, id string) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
	}
	return item, nil
}

func (s *Store) GetVendor(_ context.Context, id string) (models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vendors[id]
	if !ok {
		return models.Vendor{}, fmt.Errorf("%w: %s", models.ErrVendorNotFound, id)
	}
	return v, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return models.Customer{}, fmt.Errorf("%w: %s", models.ErrCustomerNotFound, id)
	}
	return c, nil
}

// Stock

func (s *Store) GetAvailableQuantity(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
	}
	return item.AvailableQuantity, nil
}

func (s *Store) SetAvailableQuantity(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrItemNotFound, id)
	}
	item.AvailableQuantity = quantity
	s.items[id] = item
	return nil
}

func (s *Store) DecrementIfAvailable(_ context.Context, id string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.AvailableQuantity < quantity {
		return false, nil
	}
	item.AvailableQuantity -= quantity
	s.items[id] = item
	return true, nil
}

// PlainStock exposes only read and write of stock, without the atomic
// decrement, so the ledger takes its read-modify-write path.
type PlainStock struct {
	s *Store
}

func (s *Store) PlainStock() PlainStock {
	return PlainStock{s: s}
}

func (p PlainStock) GetAvailableQuantity(ctx context.Context, id string) (int, error) {
	return p.s.GetAvailableQuantity(ctx, id)
}

func (p PlainStock) SetAvailableQuantity(ctx context.Context, id string, quantity int) error {
	return p.s.SetAvailableQuantity(ctx, id, quantity)
}

// Orders

func (s *Store) InsertOrder(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numbers[order.OrderNumber]; taken {
		return models.ErrOrderNumberTaken
	}
	order.Lines = nil
	s.orders[order.ID] = order
	s.numbers[order.OrderNumber] = order.ID
	return nil
}

func (s *Store) InsertOrderLines(_ context.Context, lines []models.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lineInsertErr != nil {
		return s.lineInsertErr
	}
	for _, l := range lines {
		if _, ok := s.orders[l.OrderID]; !ok {
			return fmt.Errorf("%w: line references unknown order %s", models.ErrPersistence, l.OrderID)
		}
	}
	for _, l := range lines {
		s.lines[l.OrderID] = append(s.lines[l.OrderID], l)
	}
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		delete(s.numbers, o.OrderNumber)
	}
	delete(s.orders, id)
	delete(s.lines, id)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	return o, nil
}

func (s *Store) ListOrderLines(_ context.Context, orderID string) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderLine(nil), s.lines[orderID]...), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, status models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	s.orders[id] = o
	return nil
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.VendorID != "" && o.VendorIDValue() != f.VendorID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset >= len(out) {
		return []models.Order{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Tracking

func (s *Store) InsertTracking(_ context.Context, e models.TrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = append(s.tracking, e)
	return nil
}

func (s *Store) ListTracking(_ context.Context, orderID string) ([]models.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TrackingEntry
	for _, e := range s.tracking {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
