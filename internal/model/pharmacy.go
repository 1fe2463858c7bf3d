package model

import (
	"github.com/google/uuid"
)

// PharmacyStatus is the lifecycle state of a pharmacy listing.
type PharmacyStatus string

const (
	PharmacyStatusPending   PharmacyStatus = "PENDING"
	PharmacyStatusApproved  PharmacyStatus = "APPROVED"
	PharmacyStatusRejected  PharmacyStatus = "REJECTED"
	PharmacyStatusSuspended PharmacyStatus = "SUSPENDED"
)

// pharmacyTransitions holds the admin-only status machine:
// PENDING -> APPROVED | REJECTED, APPROVED <-> SUSPENDED.
// REJECTED is terminal.
var pharmacyTransitions = map[PharmacyStatus][]PharmacyStatus{
	PharmacyStatusPending:   {PharmacyStatusApproved, PharmacyStatusRejected},
	PharmacyStatusApproved:  {PharmacyStatusSuspended},
	PharmacyStatusSuspended: {PharmacyStatusApproved},
}

// CanTransitionTo reports whether the pharmacy status change is legal.
func (s PharmacyStatus) CanTransitionTo(target PharmacyStatus) bool {
	for _, next := range pharmacyTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Pharmacy represents a seller on the marketplace.
type Pharmacy struct {
	Base
	Name      string         `json:"name" db:"name"`
	Address   string         `json:"address" db:"address"`
	Phone     string         `json:"phone" db:"phone"`
	Email     string         `json:"email" db:"email"`
	Status    PharmacyStatus `json:"status" db:"status"`
	OwnerID   uuid.UUID      `json:"owner_id" db:"owner_id"`
	Latitude  *float64       `json:"latitude" db:"latitude"`
	Longitude *float64       `json:"longitude" db:"longitude"`
}

type CreatePharmacyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
}

type UpdatePharmacyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
}

type UpdatePharmacyStatusRequest struct {
	Status PharmacyStatus `json:"status" binding:"required,oneof=APPROVED REJECTED SUSPENDED"`
	Reason string         `json:"reason"`
}

type PharmacyFilters struct {
	Status     PharmacyStatus
	SearchTerm string
	Pagination
}
