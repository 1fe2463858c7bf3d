package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
)

func (r *analyticsRepository) OrderCountsByStatus(ctx context.Context, pharmacyID *uuid.UUID) (map[model.OrderStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM orders`
	args := []interface{}{}
	if pharmacyID != nil {
		query += ` WHERE pharmacy_id = $1`
		args = append(args, *pharmacyID)
	}
	query += ` GROUP BY status`

	var rows []struct {
		Status model.OrderStatus `db:"status"`
		Count  int               `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[model.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *analyticsRepository) Revenue(ctx context.Context, pharmacyID *uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status = $1
	`
	args := []interface{}{model.OrderStatusDelivered}
	if pharmacyID != nil {
		query += ` AND pharmacy_id = $2`
		args = append(args, *pharmacyID)
	}

	var revenue float64
	if err := r.db.GetContext(ctx, &revenue, query, args...); err != nil {
		return 0, fmt.Errorf("failed to compute revenue: %w", err)
	}
	return revenue, nil
}

func (r *analyticsRepository) TopMedications(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]*model.MedicationSales, error) {
	query := `
		SELECT oi.medication_id,
			   m.name,
			   SUM(oi.quantity) AS units_sold,
			   SUM(oi.quantity * oi.price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN medications m ON m.id = oi.medication_id
		WHERE o.pharmacy_id = $1 AND o.status = $2
		GROUP BY oi.medication_id, m.name
		ORDER BY units_sold DESC
		LIMIT $3
	`
	var sales []*model.MedicationSales
	err := r.db.SelectContext(ctx, &sales, query, pharmacyID, model.OrderStatusDelivered, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top medications: %w", err)
	}
	return sales, nil
}

func (r *analyticsRepository) PlatformCounts(ctx context.Context) (*model.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM pharmacies) AS total_pharmacies,
			(SELECT COUNT(*) FROM pharmacies WHERE status = 'PENDING') AS pending_reviews,
			(SELECT COUNT(*) FROM orders) AS total_orders,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = 'DELIVERED') AS total_revenue
	`
	var stats struct {
		TotalUsers      int     `db:"total_users"`
		TotalPharmacies int     `db:"total_pharmacies"`
		PendingReviews  int     `db:"pending_reviews"`
		TotalOrders     int     `db:"total_orders"`
		TotalRevenue    float64 `db:"total_revenue"`
	}
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load platform stats: %w", err)
	}
	return &model.PlatformStats{
		TotalUsers:      stats.TotalUsers,
		TotalPharmacies: stats.TotalPharmacies,
		PendingReviews:  stats.PendingReviews,
		TotalOrders:     stats.TotalOrders,
		TotalRevenue:    stats.TotalRevenue,
	}, nil
}
