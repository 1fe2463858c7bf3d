package model

import (
	"github.com/google/uuid"

	"github.com/lib/pq"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment settles one or more orders in a single transaction. A failed
// payment leaves its orders created and payable later.
type Payment struct {
	Base
	PatientID   uuid.UUID      `json:"patient_id" db:"patient_id"`
	OrderIDs    pq.StringArray `json:"order_ids" db:"order_ids"`
	Amount      float64        `json:"amount" db:"amount"`
	Method      PaymentMethod  `json:"method" db:"method"`
	Status      PaymentStatus  `json:"status" db:"status"`
	PhoneNumber string         `json:"phone_number" db:"phone_number"`
	Reference   *string        `json:"reference,omitempty" db:"reference"`
}

type ProcessPaymentRequest struct {
	OrderIDs    []uuid.UUID   `json:"order_ids" binding:"required,min=1"`
	Method      PaymentMethod `json:"method" binding:"required,oneof=MOBILE_MONEY"`
	PhoneNumber string        `json:"phone_number" binding:"required"`
}
