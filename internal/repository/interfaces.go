package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmalink/marketplace-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
		ListCouriers(ctx context.Context, pharmacyID uuid.UUID, activeOnly bool) ([]*model.User, error)
	}

	PharmacyRepository interface {
		Create(ctx context.Context, pharmacy *model.Pharmacy) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error)
		GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Pharmacy, error)
		Update(ctx context.Context, pharmacy *model.Pharmacy) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.PharmacyStatus) (*model.Pharmacy, error)
		List(ctx context.Context, filters *model.PharmacyFilters) ([]*model.Pharmacy, error)
	}

	MedicationRepository interface {
		Create(ctx context.Context, medication *model.Medication) error
		Get(ctx context.Context, id uuid.UUID) (*model.Medication, error)
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error)
		Update(ctx context.Context, medication *model.Medication) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error)
		AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	}

	OrderRepository interface {
		Create(ctx context.Context, order *model.Order) error
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)
		List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, error)
	}

	DeliveryRepository interface {
		Create(ctx context.Context, delivery *model.Delivery) error
		Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
		GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error)
		// Claim atomically sets the courier on an unassigned delivery. It
		// returns ErrAlreadyClaimed when another courier won the race.
		Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (*model.Delivery, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DeliveryStatus) (*model.Delivery, error)
		ListAvailable(ctx context.Context, pharmacyID uuid.UUID) ([]*model.Delivery, error)
		ListByCourier(ctx context.Context, courierID uuid.UUID) ([]*model.Delivery, error)
		List(ctx context.Context, filters *model.DeliveryFilters) ([]*model.Delivery, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
		Update(ctx context.Context, payment *model.Payment) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error)
	}

	PermissionRepository interface {
		HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
		GrantPermission(ctx context.Context, userID uuid.UUID, permission string) error
		RevokePermission(ctx context.Context, userID uuid.UUID, permission string) error
		ListPermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, days int) (int64, error)
	}

	CartRepository interface {
		Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
		Save(ctx context.Context, cart *model.Cart) error
		Clear(ctx context.Context, userID uuid.UUID) error
	}

	AnalyticsRepository interface {
		OrderCountsByStatus(ctx context.Context, pharmacyID *uuid.UUID) (map[model.OrderStatus]int, error)
		Revenue(ctx context.Context, pharmacyID *uuid.UUID) (float64, error)
		TopMedications(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]*model.MedicationSales, error)
		PlatformCounts(ctx context.Context) (*model.PlatformStats, error)
	}
)
