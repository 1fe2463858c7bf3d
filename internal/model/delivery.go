package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the lifecycle state of a delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusReturned  DeliveryStatus = "RETURNED"
)

// Delivery tracks fulfilment of one order. CourierID is nil until a courier
// is assigned; at most one courier ever holds a delivery.
type Delivery struct {
	Base
	OrderID     uuid.UUID      `json:"order_id" db:"order_id"`
	PharmacyID  uuid.UUID      `json:"pharmacy_id" db:"pharmacy_id"`
	CourierID   *uuid.UUID     `json:"courier_id,omitempty" db:"courier_id"`
	Status      DeliveryStatus `json:"status" db:"status"`
	Address     string         `json:"address" db:"address"`
	AssignedAt  *time.Time     `json:"assigned_at,omitempty" db:"assigned_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty" db:"delivered_at"`
}

type UpdateDeliveryStatusRequest struct {
	Status DeliveryStatus `json:"status" form:"status" binding:"required,oneof=IN_TRANSIT DELIVERED RETURNED"`
}

type AssignDeliveryRequest struct {
	OrderID   uuid.UUID `json:"order_id" form:"orderId" binding:"required"`
	CourierID uuid.UUID `json:"courier_id" form:"courierId" binding:"required"`
}

type DeliveryFilters struct {
	PharmacyID *uuid.UUID
	CourierID  *uuid.UUID
	Status     DeliveryStatus
	Pagination
}
