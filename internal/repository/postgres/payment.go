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

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, patient_id, order_ids, amount, method, status,
			phone_number, reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.PatientID,
		payment.OrderIDs,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.PhoneNumber,
		payment.Reference,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, patient_id, order_ids, amount, method, status,
			   phone_number, reference, created_at, updated_at
		FROM payments
		WHERE id = $1
	`
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, reference = $2, updated_at = $3
		WHERE id = $4
	`
	payment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		payment.Status,
		payment.Reference,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	query := `
		SELECT id, patient_id, order_ids, amount, method, status,
			   phone_number, reference, created_at, updated_at
		FROM payments
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
