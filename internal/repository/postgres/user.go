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

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone,
			role, status, pharmacy_id, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Status,
		user.PharmacyID,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone,
			   role, status, pharmacy_id, is_active, last_login_at,
			   failed_login_attempts, last_login_attempt, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone,
			   role, status, pharmacy_id, is_active, last_login_at,
			   failed_login_attempts, last_login_attempt, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4,
			phone = $5, role = $6, status = $7, pharmacy_id = $8, is_active = $9,
			last_login_at = $10, failed_login_attempts = $11,
			last_login_attempt = $12, updated_at = $13
		WHERE id = $14
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Status,
		user.PharmacyID,
		user.IsActive,
		user.LastLoginAt,
		user.FailedLoginAttempts,
		user.LastLoginAttempt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
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

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone,
			   role, status, pharmacy_id, is_active, last_login_at,
			   failed_login_attempts, last_login_attempt, created_at, updated_at
		FROM users
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PharmacyID != nil {
			query += fmt.Sprintf(" AND pharmacy_id = $%d", argCount)
			args = append(args, *filters.PharmacyID)
			argCount++
		}
		if filters.Role != "" {
			query += fmt.Sprintf(" AND role = $%d", argCount)
			args = append(args, filters.Role)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
				argCount, argCount, argCount)
			args = append(args, "%"+filters.SearchTerm+"%")
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListCouriers(ctx context.Context, pharmacyID uuid.UUID, activeOnly bool) ([]*model.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone,
			   role, status, pharmacy_id, is_active, last_login_at,
			   failed_login_attempts, last_login_attempt, created_at, updated_at
		FROM users
		WHERE pharmacy_id = $1 AND role = $2
	`
	args := []interface{}{pharmacyID, model.RoleDelivery}
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY first_name, last_name"

	var couriers []*model.User
	if err := r.db.SelectContext(ctx, &couriers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list couriers: %w", err)
	}
	return couriers, nil
}
