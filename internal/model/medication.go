package model

import (
	"github.com/google/uuid"
)

// Medication is a catalog entry owned by one pharmacy.
type Medication struct {
	Base
	PharmacyID           uuid.UUID `json:"pharmacy_id" db:"pharmacy_id"`
	Name                 string    `json:"name" db:"name"`
	Description          string    `json:"description" db:"description"`
	Category             string    `json:"category" db:"category"`
	Price                float64   `json:"price" db:"price"`
	StockQuantity        int       `json:"stock_quantity" db:"stock_quantity"`
	RequiresPrescription bool      `json:"requires_prescription" db:"requires_prescription"`
	ImageURL             *string   `json:"image_url" db:"image_url"`
}

type CreateMedicationRequest struct {
	Name                 string  `json:"name" binding:"required"`
	Description          string  `json:"description"`
	Category             string  `json:"category" binding:"required"`
	Price                float64 `json:"price" binding:"required,gt=0"`
	StockQuantity        int     `json:"stock_quantity" binding:"gte=0"`
	RequiresPrescription bool    `json:"requires_prescription"`
	ImageURL             *string `json:"image_url"`
}

type UpdateMedicationRequest struct {
	Name                 *string  `json:"name"`
	Description          *string  `json:"description"`
	Category             *string  `json:"category"`
	Price                *float64 `json:"price" binding:"omitempty,gt=0"`
	StockQuantity        *int     `json:"stock_quantity" binding:"omitempty,gte=0"`
	RequiresPrescription *bool    `json:"requires_prescription"`
	ImageURL             *string  `json:"image_url"`
}

type MedicationFilters struct {
	PharmacyID *uuid.UUID
	Category   string
	SearchTerm string
	InStock    bool
	Pagination
}
