package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a cart. Price is the unit price at the time the
// item was added; the server recomputes totals at checkout.
type CartItem struct {
	MedicationID uuid.UUID `json:"medication_id"`
	PharmacyID   uuid.UUID `json:"pharmacy_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	AddedAt      time.Time `json:"added_at"`
}

// Cart is a whole-snapshot value: it is read, mutated and persisted as one
// unit. All items belong to the pharmacy identified by PharmacyID; an empty
// cart has PharmacyID nil.
type Cart struct {
	UserID     uuid.UUID  `json:"user_id"`
	PharmacyID *uuid.UUID `json:"pharmacy_id"`
	Items      []CartItem `json:"items"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Subtotal sums price*quantity over all items. Informational only; order
// totals are always recomputed server-side at checkout.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

type AddCartItemRequest struct {
	MedicationID  uuid.UUID `json:"medication_id" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required,gt=0"`
	ClearExisting bool      `json:"clear_existing"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"gte=0"`
}

// PaymentMethod selects how a checkout is settled.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodMobileMoney    PaymentMethod = "MOBILE_MONEY"
)

type CheckoutRequest struct {
	DeliveryAddress string        `json:"delivery_address" binding:"required"`
	Latitude        *float64      `json:"latitude"`
	Longitude       *float64      `json:"longitude"`
	PaymentMethod   PaymentMethod `json:"payment_method" binding:"required,oneof=CASH_ON_DELIVERY MOBILE_MONEY"`
	PhoneNumber     string        `json:"phone_number"`
}

// CheckoutResult reports the settled outcome of a checkout. Orders already
// created are listed even when payment later fails.
type CheckoutResult struct {
	Orders      []*Order `json:"orders"`
	Payment     *Payment `json:"payment,omitempty"`
	PaymentDue  bool     `json:"payment_due"`
	TotalAmount float64  `json:"total_amount"`
}
