package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
)

const orderColumns = `id, pharmacy_id, patient_id, status, total_amount,
	   delivery_address, latitude, longitude, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	// Total is derived from the items here, never taken from the request.
	var total float64
	for _, item := range order.Items {
		total += item.Price * float64(item.Quantity)
	}
	order.TotalAmount = total

	query := `
		INSERT INTO orders (
			id, pharmacy_id, patient_id, status, total_amount,
			delivery_address, latitude, longitude, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.PharmacyID,
		order.PatientID,
		order.Status,
		order.TotalAmount,
		order.DeliveryAddress,
		order.Latitude,
		order.Longitude,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, medication_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.MedicationID, item.Quantity, item.Price,
		); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves the order from one status to another. The WHERE clause
// carries the expected current status so a concurrent transition makes this
// a no-op, reported as ErrStaleStatus.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + orderColumns

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, to, time.Now(), id, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrStaleStatus
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PharmacyID != nil {
			query += fmt.Sprintf(" AND pharmacy_id = $%d", argCount)
			args = append(args, *filters.PharmacyID)
			argCount++
		}
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.From != nil {
			query += fmt.Sprintf(" AND created_at >= $%d", argCount)
			args = append(args, *filters.From)
			argCount++
		}
		if filters.To != nil {
			query += fmt.Sprintf(" AND created_at <= $%d", argCount)
			args = append(args, *filters.To)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"
	if filters != nil {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.Limit(), filters.Offset())
	}

	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *model.Order) error {
	query := `
		SELECT id, order_id, medication_id, quantity, price
		FROM order_items
		WHERE order_id = $1
	`
	var items []model.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, order.ID); err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	order.Items = items
	return nil
}
