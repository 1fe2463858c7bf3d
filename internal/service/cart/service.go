// Package cart maintains the per-user cart snapshot and its two invariants:
// no duplicate medication lines (adds merge into the existing line) and all
// lines from a single pharmacy (switching pharmacies requires an explicit
// clear confirmation from the user).
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

// ErrDifferentPharmacy is returned when an add would mix pharmacies and the
// request did not confirm clearing the existing cart.
var ErrDifferentPharmacy = errors.New("cart holds items from another pharmacy")

type Service struct {
	repo           repository.CartRepository
	medicationRepo repository.MedicationRepository
}

func NewService(repo repository.CartRepository, medicationRepo repository.MedicationRepository) *Service {
	return &Service{
		repo:           repo,
		medicationRepo: medicationRepo,
	}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// AddItem puts a medication into the cart. Adding a medication already in
// the cart merges quantities instead of duplicating the line.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req *model.AddCartItemRequest) (*model.Cart, error) {
	medication, err := s.medicationRepo.Get(ctx, req.MedicationID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("medication", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if cart.PharmacyID != nil && *cart.PharmacyID != medication.PharmacyID {
		if !req.ClearExisting {
			return nil, apperrors.Conflict(ErrDifferentPharmacy.Error(), ErrDifferentPharmacy)
		}
		cart.Items = nil
		cart.PharmacyID = nil
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].MedicationID == medication.ID {
			cart.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, model.CartItem{
			MedicationID: medication.ID,
			PharmacyID:   medication.PharmacyID,
			Name:         medication.Name,
			Quantity:     req.Quantity,
			Price:        medication.Price,
			AddedAt:      time.Now(),
		})
	}

	cart.UserID = userID
	cart.PharmacyID = &medication.PharmacyID

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// UpdateItem sets the quantity of a line; zero removes it.
func (s *Service) UpdateItem(ctx context.Context, userID, medicationID uuid.UUID, quantity int) (*model.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.MedicationID == medicationID {
			found = true
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, apperrors.NotFound("cart item", nil)
	}

	cart.Items = items
	if len(cart.Items) == 0 {
		cart.PharmacyID = nil
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, medicationID uuid.UUID) (*model.Cart, error) {
	return s.UpdateItem(ctx, userID, medicationID, 0)
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
