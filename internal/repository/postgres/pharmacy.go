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

func (r *pharmacyRepository) Create(ctx context.Context, pharmacy *model.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (
			id, name, address, phone, email, status, owner_id,
			latitude, longitude, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if pharmacy.ID == uuid.Nil {
		pharmacy.ID = uuid.New()
	}
	pharmacy.CreatedAt = time.Now()
	pharmacy.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		pharmacy.ID,
		pharmacy.Name,
		pharmacy.Address,
		pharmacy.Phone,
		pharmacy.Email,
		pharmacy.Status,
		pharmacy.OwnerID,
		pharmacy.Latitude,
		pharmacy.Longitude,
		pharmacy.CreatedAt,
		pharmacy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pharmacy: %w", err)
	}
	return nil
}

func (r *pharmacyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, email, status, owner_id,
			   latitude, longitude, created_at, updated_at
		FROM pharmacies
		WHERE id = $1
	`
	var pharmacy model.Pharmacy
	err := r.db.GetContext(ctx, &pharmacy, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pharmacy: %w", err)
	}
	return &pharmacy, nil
}

func (r *pharmacyRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, email, status, owner_id,
			   latitude, longitude, created_at, updated_at
		FROM pharmacies
		WHERE owner_id = $1
	`
	var pharmacy model.Pharmacy
	err := r.db.GetContext(ctx, &pharmacy, query, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pharmacy by owner: %w", err)
	}
	return &pharmacy, nil
}

func (r *pharmacyRepository) Update(ctx context.Context, pharmacy *model.Pharmacy) error {
	query := `
		UPDATE pharmacies
		SET name = $1, address = $2, phone = $3, email = $4,
			latitude = $5, longitude = $6, updated_at = $7
		WHERE id = $8
	`
	pharmacy.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		pharmacy.Name,
		pharmacy.Address,
		pharmacy.Phone,
		pharmacy.Email,
		pharmacy.Latitude,
		pharmacy.Longitude,
		pharmacy.UpdatedAt,
		pharmacy.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pharmacy: %w", err)
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

func (r *pharmacyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PharmacyStatus) (*model.Pharmacy, error) {
	query := `
		UPDATE pharmacies
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, name, address, phone, email, status, owner_id,
				  latitude, longitude, created_at, updated_at
	`
	var pharmacy model.Pharmacy
	err := r.db.GetContext(ctx, &pharmacy, query, status, time.Now(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pharmacy status: %w", err)
	}
	return &pharmacy, nil
}

func (r *pharmacyRepository) List(ctx context.Context, filters *model.PharmacyFilters) ([]*model.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, email, status, owner_id,
			   latitude, longitude, created_at, updated_at
		FROM pharmacies
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.SearchTerm+"%")
			argCount++
		}
	}

	query += " ORDER BY name"
	if filters != nil {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.Limit(), filters.Offset())
	}

	var pharmacies []*model.Pharmacy
	if err := r.db.SelectContext(ctx, &pharmacies, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pharmacies: %w", err)
	}
	return pharmacies, nil
}
