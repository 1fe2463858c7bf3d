package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute

	topMedicationsLimit = 5
)

type Service struct {
	repo  repository.AnalyticsRepository
	cache *gocache.Cache
}

func NewService(repo repository.AnalyticsRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

// PharmacyStats builds the dashboard payload for one pharmacy. Staff can only
// read their own pharmacy's numbers.
func (s *Service) PharmacyStats(ctx context.Context, actor *model.Actor, pharmacyID uuid.UUID) (*model.PharmacyStats, error) {
	if actor.Role != model.RoleSuperAdmin && !actor.CanActFor(pharmacyID) {
		return nil, apperrors.Forbidden("stats belong to another pharmacy", nil)
	}

	cacheKey := "pharmacy:" + pharmacyID.String()
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*model.PharmacyStats), nil
	}

	counts, err := s.repo.OrderCountsByStatus(ctx, &pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	revenue, err := s.repo.Revenue(ctx, &pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	top, err := s.repo.TopMedications(ctx, pharmacyID, topMedicationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank medications: %w", err)
	}

	stats := &model.PharmacyStats{
		OrdersByStatus: counts,
		Revenue:        revenue,
		TopMedications: top,
	}
	s.cache.Set(cacheKey, stats, gocache.DefaultExpiration)
	return stats, nil
}

// PlatformStats builds the super-admin dashboard payload.
func (s *Service) PlatformStats(ctx context.Context, actor *model.Actor) (*model.PlatformStats, error) {
	if actor.Role != model.RoleSuperAdmin {
		return nil, apperrors.Forbidden("platform stats are admin-only", nil)
	}

	if cached, found := s.cache.Get("platform"); found {
		return cached.(*model.PlatformStats), nil
	}

	stats, err := s.repo.PlatformCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform stats: %w", err)
	}
	s.cache.Set("platform", stats, gocache.DefaultExpiration)
	return stats, nil
}
