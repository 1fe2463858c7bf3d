package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusPreparing  OrderStatus = "PREPARING"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusDelivering OrderStatus = "DELIVERING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order represents a purchase from exactly one pharmacy. Orders are never
// deleted; cancellation is a status.
type Order struct {
	Base
	PharmacyID      uuid.UUID   `json:"pharmacy_id" db:"pharmacy_id"`
	PatientID       uuid.UUID   `json:"patient_id" db:"patient_id"`
	Status          OrderStatus `json:"status" db:"status"`
	TotalAmount     float64     `json:"total_amount" db:"total_amount"`
	DeliveryAddress string      `json:"delivery_address" db:"delivery_address"`
	Latitude        *float64    `json:"latitude" db:"latitude"`
	Longitude       *float64    `json:"longitude" db:"longitude"`
	Items           []OrderItem `json:"items" db:"-"`
}

// OrderItem is a priced line of an order. Price is the unit price captured
// at order creation time.
type OrderItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OrderID      uuid.UUID `json:"order_id" db:"order_id"`
	MedicationID uuid.UUID `json:"medication_id" db:"medication_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Price        float64   `json:"price" db:"price"`
}

type CreateOrderRequest struct {
	PharmacyID      uuid.UUID          `json:"pharmacy_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	Latitude        *float64           `json:"latitude"`
	Longitude       *float64           `json:"longitude"`
}

type OrderItemRequest struct {
	MedicationID uuid.UUID `json:"medication_id" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=CONFIRMED PREPARING READY DELIVERING DELIVERED CANCELLED"`
}

// OrderResponse wraps an order with an advisory hint for the next staff
// action. NextAction is UI sequencing only; nothing enforces it.
type OrderResponse struct {
	*Order
	NextAction string `json:"next_action,omitempty"`
}

type OrderFilters struct {
	PharmacyID *uuid.UUID
	PatientID  *uuid.UUID
	Status     OrderStatus
	From       *time.Time
	To         *time.Time
	Pagination
}
