package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/pharmalink/marketplace-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type pharmacyRepository struct {
	db *sqlx.DB
}

type medicationRepository struct {
	db *sqlx.DB
}

type orderRepository struct {
	db *sqlx.DB
}

type deliveryRepository struct {
	db *sqlx.DB
}

type paymentRepository struct {
	db *sqlx.DB
}

type permissionRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

type analyticsRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewPharmacyRepository(db *sqlx.DB) repository.PharmacyRepository {
	return &pharmacyRepository{db: db}
}

func NewMedicationRepository(db *sqlx.DB) repository.MedicationRepository {
	return &medicationRepository{db: db}
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func NewDeliveryRepository(db *sqlx.DB) repository.DeliveryRepository {
	return &deliveryRepository{db: db}
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func NewPermissionRepository(db *sqlx.DB) repository.PermissionRepository {
	return &permissionRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func NewAnalyticsRepository(db *sqlx.DB) repository.AnalyticsRepository {
	return &analyticsRepository{db: db}
}
