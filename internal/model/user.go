package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleSuperAdmin       Role = "SUPER_ADMIN"
	RolePharmacyAdmin    Role = "PHARMACY_ADMIN"
	RolePharmacyEmployee Role = "PHARMACY_EMPLOYEE"
	RoleDelivery         Role = "DELIVERY"
	RolePatient          Role = "PATIENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RolePharmacyAdmin, RolePharmacyEmployee, RoleDelivery, RolePatient:
		return true
	}
	return false
}

// IsPharmacyStaff reports whether r acts on behalf of a pharmacy.
func (r Role) IsPharmacyStaff() bool {
	return r == RolePharmacyAdmin || r == RolePharmacyEmployee
}

func (r Role) IsCourier() bool {
	return r == RoleDelivery
}

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// User represents a marketplace account. PharmacyID is set for pharmacy
// staff and couriers, nil for patients and super admins.
type User struct {
	Base
	Email               string     `json:"email" db:"email"`
	Password            string     `json:"password,omitempty" db:"-"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	FirstName           string     `json:"first_name" db:"first_name"`
	LastName            string     `json:"last_name" db:"last_name"`
	Phone               *string    `json:"phone" db:"phone"`
	Role                Role       `json:"role" db:"role"`
	Status              string     `json:"status" db:"status"`
	PharmacyID          *uuid.UUID `json:"pharmacy_id,omitempty" db:"pharmacy_id"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	LastLoginAt         *time.Time `json:"last_login_at" db:"last_login_at"`
	FailedLoginAttempts int        `json:"-" db:"failed_login_attempts"`
	LastLoginAttempt    *time.Time `json:"-" db:"last_login_attempt"`
}

// Actor is the authenticated identity attached to a request.
type Actor struct {
	UserID     uuid.UUID
	Email      string
	Role       Role
	PharmacyID *uuid.UUID
}

// CanActFor reports whether the actor may operate on the given pharmacy's
// resources. Super admins may act on any pharmacy.
func (a Actor) CanActFor(pharmacyID uuid.UUID) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.PharmacyID != nil && *a.PharmacyID == pharmacyID
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RegisterRequest struct {
	Email      string     `json:"email" binding:"required,email"`
	Password   string     `json:"password" binding:"required,min=8"`
	FirstName  string     `json:"first_name" binding:"required"`
	LastName   string     `json:"last_name" binding:"required"`
	Phone      string     `json:"phone"`
	Role       Role       `json:"role" binding:"required,oneof=PHARMACY_ADMIN PHARMACY_EMPLOYEE DELIVERY PATIENT"`
	PharmacyID *uuid.UUID `json:"pharmacy_id"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserFilters narrows user listings.
type UserFilters struct {
	PharmacyID *uuid.UUID
	Role       Role
	Status     string
	SearchTerm string
}
