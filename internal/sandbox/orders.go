package sandbox

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/smartretail/storefront/internal/core/domain"
)

var errOrderNotFound = &Error{Status: http.StatusNotFound, Message: "Order not found"}

// PlaceOrder reserves stock for every line and records the order as pending.
// Either all lines are taken or the catalog is left unchanged.
func (s *Store) PlaceOrder(caller Caller, items []domain.LineItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, errorf(http.StatusBadRequest, "Items are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	need := make(map[int]int, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		p, ok := s.products[it.ProductID]
		if !ok {
			return nil, errorf(http.StatusNotFound, "Product %d not found", it.ProductID)
		}
		need[p.ID] += qty
		if p.Stock < need[p.ID] {
			return nil, errorf(http.StatusBadRequest, "Not enough stock for %s", p.Name)
		}
	}

	s.nextOrder++
	o := &domain.Order{
		ID:        s.nextOrder,
		UserID:    caller.UserID,
		Status:    domain.OrderPending,
		CreatedAt: s.timestamp(),
		Items:     make([]domain.OrderItem, 0, len(items)),
	}
	for _, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		p := s.products[it.ProductID]
		p.Stock -= qty
		o.Items = append(o.Items, domain.OrderItem{ProductID: p.ID, Quantity: qty, Price: p.Price})
	}
	s.orders[o.ID] = o

	out := copyOrder(o)
	out.Message = fmt.Sprintf("Order %d placed successfully", o.ID)
	return &out, nil
}

// MyOrders lists the caller's orders without the owner id.
func (s *Store) MyOrders(caller Caller) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, o := range s.sortedOrders() {
		if o.UserID != caller.UserID {
			continue
		}
		cp := copyOrder(o)
		cp.UserID = 0
		out = append(out, cp)
	}
	return out
}

func (s *Store) AllOrders(caller Caller) ([]domain.Order, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.sortedOrders()
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, copyOrder(o))
	}
	return out, nil
}

// GetOrder lets customers see their own orders and admins any order.
func (s *Store) GetOrder(caller Caller, id int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, errOrderNotFound
	}
	if !caller.admin() && o.UserID != caller.UserID {
		return nil, errorf(http.StatusForbidden, "Not authorized to view this order")
	}
	out := copyOrder(o)
	return &out, nil
}

// CancelOrder cancels a pending or paid order and restores its stock.
func (s *Store) CancelOrder(caller Caller, id int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, errOrderNotFound
	}
	if !caller.admin() && o.UserID != caller.UserID {
		return nil, errorf(http.StatusForbidden, "Not authorized to cancel this order")
	}
	if !o.Status.CanCancel() {
		return nil, errorf(http.StatusBadRequest, "Cannot cancel an order with status %s", o.Status)
	}

	for _, it := range o.Items {
		if p, ok := s.products[it.ProductID]; ok {
			p.Stock += it.Quantity
		}
	}
	o.Status = domain.OrderCancelled

	return &domain.Order{
		ID:      o.ID,
		Status:  o.Status,
		Message: fmt.Sprintf("Order %d has been cancelled and stock restored", o.ID),
	}, nil
}

func (s *Store) UpdateOrderStatus(caller Caller, id int, status domain.OrderStatus) (*domain.Order, error) {
	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, errOrderNotFound
	}
	if !status.Valid() {
		return nil, errorf(http.StatusBadRequest, "Invalid status")
	}
	o.Status = status

	return &domain.Order{
		ID:      o.ID,
		Status:  o.Status,
		Message: fmt.Sprintf("Order %d status updated to %s", o.ID, status),
	}, nil
}

// setOrderStatus expects s.mu to be held.
func (s *Store) setOrderStatus(id int, status domain.OrderStatus) {
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
}

func (s *Store) sortedOrders() []*domain.Order {
	out := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyOrder(o *domain.Order) domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.CreatedAt != nil {
		ts := *o.CreatedAt
		cp.CreatedAt = &ts
	}
	return cp
}
