package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
)

const medicationColumns = `id, pharmacy_id, name, description, category, price,
	   stock_quantity, requires_prescription, image_url, created_at, updated_at`

func (r *medicationRepository) Create(ctx context.Context, medication *model.Medication) error {
	query := `
		INSERT INTO medications (
			id, pharmacy_id, name, description, category, price,
			stock_quantity, requires_prescription, image_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if medication.ID == uuid.Nil {
		medication.ID = uuid.New()
	}
	medication.CreatedAt = time.Now()
	medication.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		medication.ID,
		medication.PharmacyID,
		medication.Name,
		medication.Description,
		medication.Category,
		medication.Price,
		medication.StockQuantity,
		medication.RequiresPrescription,
		medication.ImageURL,
		medication.CreatedAt,
		medication.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`

	var medication model.Medication
	err := r.db.GetContext(ctx, &medication, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	return &medication, nil
}

func (r *medicationRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = ANY($1)`

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	var medications []*model.Medication
	if err := r.db.SelectContext(ctx, &medications, query, pq.Array(strIDs)); err != nil {
		return nil, fmt.Errorf("failed to get medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) Update(ctx context.Context, medication *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, description = $2, category = $3, price = $4,
			stock_quantity = $5, requires_prescription = $6, image_url = $7,
			updated_at = $8
		WHERE id = $9
	`
	medication.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		medication.Name,
		medication.Description,
		medication.Category,
		medication.Price,
		medication.StockQuantity,
		medication.RequiresPrescription,
		medication.ImageURL,
		medication.UpdatedAt,
		medication.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
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

func (r *medicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
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

func (r *medicationRepository) List(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PharmacyID != nil {
			query += fmt.Sprintf(" AND pharmacy_id = $%d", argCount)
			args = append(args, *filters.PharmacyID)
			argCount++
		}
		if filters.Category != "" {
			query += fmt.Sprintf(" AND category = $%d", argCount)
			args = append(args, filters.Category)
			argCount++
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.SearchTerm+"%")
			argCount++
		}
		if filters.InStock {
			query += " AND stock_quantity > 0"
		}
	}

	query += " ORDER BY name"
	if filters != nil {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.Limit(), filters.Offset())
	}

	var medications []*model.Medication
	if err := r.db.SelectContext(ctx, &medications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}

func (r *medicationRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE medications
		SET stock_quantity = stock_quantity + $1, updated_at = $2
		WHERE id = $3 AND stock_quantity + $1 >= 0
	`
	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("insufficient stock for medication %s", id)
	}
	return nil
}
