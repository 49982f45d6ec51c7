package model

import "time"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusInProgress      OrderStatus = "em_andamento"
	StatusAwaitingPayment OrderStatus = "aguardando_pagamento"
	StatusPaid            OrderStatus = "pago"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusAwaitingPayment, StatusPaid:
		return true
	}
	return false
}

// Label is the human readable badge text
func (s OrderStatus) Label() string {
	switch s {
	case StatusAwaitingPayment:
		return "Awaiting payment"
	case StatusPaid:
		return "Paid"
	default:
		return "In progress"
	}
}

// OrderItem is one validated line of an order
type OrderItem struct {
	ProductID   string  `json:"product_id" validate:"required"`
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Total       float64 `json:"total" validate:"gte=0"`
}

// Order is a guest order as read from the order store
type Order struct {
	ID           string      `json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	RestaurantID string      `json:"restaurant_id"`
	TableID      *string     `json:"table_id"`
	TableNumber  *string     `json:"table_number,omitempty"`
	GuestID      string      `json:"guest_id"`
	GuestName    string      `json:"guest_name"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	PaidAt       *time.Time  `json:"paid_at"`
}

// IsPaid reports whether the order reached the terminal state
func (o Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// TableLabel is "Table N" for dine-in orders and "Take-away" otherwise
func (o Order) TableLabel() string {
	if o.TableNumber != nil && *o.TableNumber != "" {
		return "Table " + *o.TableNumber
	}
	return "Take-away"
}
