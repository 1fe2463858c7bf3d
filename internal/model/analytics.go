package model

import "github.com/google/uuid"

// MedicationSales is one row of a pharmacy's top-sellers report.
type MedicationSales struct {
	MedicationID uuid.UUID `json:"medication_id" db:"medication_id"`
	Name         string    `json:"name" db:"name"`
	UnitsSold    int       `json:"units_sold" db:"units_sold"`
	Revenue      float64   `json:"revenue" db:"revenue"`
}

// PharmacyStats is the per-pharmacy dashboard payload.
type PharmacyStats struct {
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
	Revenue        float64             `json:"revenue"`
	TopMedications []*MedicationSales  `json:"top_medications"`
}

// PlatformStats is the super-admin dashboard payload.
type PlatformStats struct {
	TotalUsers      int     `json:"total_users"`
	TotalPharmacies int     `json:"total_pharmacies"`
	PendingReviews  int     `json:"pending_reviews"`
	TotalOrders     int     `json:"total_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}
