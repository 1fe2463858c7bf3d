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

const deliveryColumns = `id, order_id, pharmacy_id, courier_id, status,
	   address, assigned_at, delivered_at, created_at, updated_at`

func (r *deliveryRepository) Create(ctx context.Context, delivery *model.Delivery) error {
	query := `
		INSERT INTO deliveries (
			id, order_id, pharmacy_id, courier_id, status, address,
			assigned_at, delivered_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	delivery.CreatedAt = time.Now()
	delivery.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.OrderID,
		delivery.PharmacyID,
		delivery.CourierID,
		delivery.Status,
		delivery.Address,
		delivery.AssignedAt,
		delivery.DeliveredAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

func (r *deliveryRepository) Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`

	var delivery model.Delivery
	err := r.db.GetContext(ctx, &delivery, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE order_id = $1`

	var delivery model.Delivery
	err := r.db.GetContext(ctx, &delivery, query, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery by order: %w", err)
	}
	return &delivery, nil
}

// Claim attaches a courier to an unassigned delivery. The courier_id IS NULL
// predicate makes the claim exclusive: of two racing couriers exactly one
// update matches, the other gets ErrAlreadyClaimed.
func (r *deliveryRepository) Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (*model.Delivery, error) {
	query := `
		UPDATE deliveries
		SET courier_id = $1, status = $2, assigned_at = $3, updated_at = $3
		WHERE id = $4 AND courier_id IS NULL AND status = $5
		RETURNING ` + deliveryColumns

	var delivery model.Delivery
	now := time.Now()
	err := r.db.GetContext(ctx, &delivery, query,
		courierID, model.DeliveryStatusAssigned, now, deliveryID, model.DeliveryStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DeliveryStatus) (*model.Delivery, error) {
	query := `
		UPDATE deliveries
		SET status = $1,
			delivered_at = CASE WHEN $1 = 'DELIVERED' THEN $2 ELSE delivered_at END,
			updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + deliveryColumns

	var delivery model.Delivery
	err := r.db.GetContext(ctx, &delivery, query, to, time.Now(), id, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrStaleStatus
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery status: %w", err)
	}
	return &delivery, nil
}

// ListAvailable returns the pharmacy's pool of unassigned deliveries whose
// orders are READY, which is what couriers see as "available".
func (r *deliveryRepository) ListAvailable(ctx context.Context, pharmacyID uuid.UUID) ([]*model.Delivery, error) {
	query := `
		SELECT d.id, d.order_id, d.pharmacy_id, d.courier_id, d.status,
			   d.address, d.assigned_at, d.delivered_at, d.created_at, d.updated_at
		FROM deliveries d
		JOIN orders o ON o.id = d.order_id
		WHERE d.pharmacy_id = $1
		  AND d.courier_id IS NULL
		  AND d.status = $2
		  AND o.status = $3
		ORDER BY d.created_at
	`
	var deliveries []*model.Delivery
	err := r.db.SelectContext(ctx, &deliveries, query,
		pharmacyID, model.DeliveryStatusPending, model.OrderStatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to list available deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *deliveryRepository) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE courier_id = $1 ORDER BY updated_at DESC`

	var deliveries []*model.Delivery
	if err := r.db.SelectContext(ctx, &deliveries, query, courierID); err != nil {
		return nil, fmt.Errorf("failed to list courier deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *deliveryRepository) List(ctx context.Context, filters *model.DeliveryFilters) ([]*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PharmacyID != nil {
			query += fmt.Sprintf(" AND pharmacy_id = $%d", argCount)
			args = append(args, *filters.PharmacyID)
			argCount++
		}
		if filters.CourierID != nil {
			query += fmt.Sprintf(" AND courier_id = $%d", argCount)
			args = append(args, *filters.CourierID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"
	if filters != nil {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.Limit(), filters.Offset())
	}

	var deliveries []*model.Delivery
	if err := r.db.SelectContext(ctx, &deliveries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}
