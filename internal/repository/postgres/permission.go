package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (r *permissionRepository) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_permissions
			WHERE user_id = $1 AND permission = $2
		)
	`
	var has bool
	if err := r.db.GetContext(ctx, &has, query, userID, permission); err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return has, nil
}

func (r *permissionRepository) GrantPermission(ctx context.Context, userID uuid.UUID, permission string) error {
	query := `
		INSERT INTO user_permissions (user_id, permission, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, permission) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, permission); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func (r *permissionRepository) RevokePermission(ctx context.Context, userID uuid.UUID, permission string) error {
	query := `DELETE FROM user_permissions WHERE user_id = $1 AND permission = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, permission); err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

func (r *permissionRepository) ListPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT permission FROM user_permissions WHERE user_id = $1 ORDER BY permission`

	var permissions []string
	if err := r.db.SelectContext(ctx, &permissions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}
