package domain

import "errors"

// OrderStatus is the lifecycle state of an order, owned by the order service.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var ErrOrderNotFound = errors.New("order not found")

// cancellable lists the statuses the order service lets a customer cancel from.
var cancellable = map[OrderStatus]bool{
	OrderPending: true,
	OrderPaid:    true,
}

// Valid reports whether s is a status the order service accepts.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanCancel reports whether an order in status s may still be cancelled.
func (s OrderStatus) CanCancel() bool {
	return cancellable[s]
}

// OrderItem is one line of an order with the price snapshot taken at placement.
type OrderItem struct {
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

// Order is an order as listed by the order service.
type Order struct {
	ID        int         `json:"order_id"`
	UserID    int         `json:"user_id,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt *Timestamp  `json:"created_at,omitempty"`
	Items     []OrderItem `json:"items"`
	Message   string      `json:"message,omitempty"`
}

// Total sums quantity × price over the items.
func (o Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// LineItem is one requested line in a new order.
type LineItem struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrder is the body of POST /orders/.
type PlaceOrder struct {
	Items []LineItem `json:"items" validate:"required,min=1,dive"`
}

// StatusUpdate is the body of PUT /orders/:id/status.
type StatusUpdate struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}
