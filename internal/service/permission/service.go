package permission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

// Well-known employee capabilities.
const (
	PermManageCatalog    = "catalog:manage"
	PermManageOrders     = "orders:manage"
	PermAssignDeliveries = "deliveries:assign"
	PermViewAnalytics    = "analytics:view"
)

// Service answers and manages fine-grained employee permissions. It satisfies
// guard.PermissionChecker.
type Service struct {
	repo     repository.PermissionRepository
	userRepo repository.UserRepository
}

func NewService(repo repository.PermissionRepository, userRepo repository.UserRepository) *Service {
	return &Service{repo: repo, userRepo: userRepo}
}

func (s *Service) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	return s.repo.HasPermission(ctx, userID, permission)
}

// Grant gives an employee a capability. Only the admin of the employee's own
// pharmacy may grant.
func (s *Service) Grant(ctx context.Context, actor *model.Actor, userID uuid.UUID, permission string) error {
	if err := s.authorize(ctx, actor, userID); err != nil {
		return err
	}
	if err := s.repo.GrantPermission(ctx, userID, permission); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func (s *Service) Revoke(ctx context.Context, actor *model.Actor, userID uuid.UUID, permission string) error {
	if err := s.authorize(ctx, actor, userID); err != nil {
		return err
	}
	if err := s.repo.RevokePermission(ctx, userID, permission); err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, userID uuid.UUID) ([]string, error) {
	if actor.UserID != userID {
		if err := s.authorize(ctx, actor, userID); err != nil {
			return nil, err
		}
	}
	perms, err := s.repo.ListPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

func (s *Service) authorize(ctx context.Context, actor *model.Actor, userID uuid.UUID) error {
	if actor.Role == model.RoleSuperAdmin {
		return nil
	}
	if actor.Role != model.RolePharmacyAdmin {
		return apperrors.Forbidden("only pharmacy admins can manage permissions", nil)
	}
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("user", err)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.PharmacyID == nil || actor.PharmacyID == nil || *user.PharmacyID != *actor.PharmacyID {
		return apperrors.Forbidden("employee belongs to another pharmacy", nil)
	}
	return nil
}
