// Package workflow defines the order and delivery status machines. The
// tables here are the single authority for which transitions are legal and
// which roles may trigger them; services consult them before touching
// storage so an illegal transition never reaches the database.
package workflow

import (
	"fmt"

	"github.com/pharmalink/marketplace-api/internal/model"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

// orderTransition is one legal order status change and the roles allowed to
// trigger it.
type orderTransition struct {
	From  model.OrderStatus
	To    model.OrderStatus
	Roles []model.Role
}

var pharmacyStaff = []model.Role{model.RoleSuperAdmin, model.RolePharmacyAdmin, model.RolePharmacyEmployee}

// orderTransitions is the authoritative order state machine. The progression
// is strictly forward; CANCELLED is reachable only from the early states.
var orderTransitions = []orderTransition{
	{From: model.OrderStatusPending, To: model.OrderStatusConfirmed, Roles: pharmacyStaff},
	{From: model.OrderStatusConfirmed, To: model.OrderStatusPreparing, Roles: pharmacyStaff},
	{From: model.OrderStatusPreparing, To: model.OrderStatusReady, Roles: pharmacyStaff},
	{From: model.OrderStatusReady, To: model.OrderStatusDelivering, Roles: pharmacyStaff},
	{From: model.OrderStatusDelivering, To: model.OrderStatusDelivered, Roles: pharmacyStaff},

	{From: model.OrderStatusPending, To: model.OrderStatusCancelled, Roles: pharmacyStaff},
	{From: model.OrderStatusConfirmed, To: model.OrderStatusCancelled, Roles: pharmacyStaff},
	{From: model.OrderStatusPreparing, To: model.OrderStatusCancelled, Roles: pharmacyStaff},
}

type orderTransitionKey struct {
	From model.OrderStatus
	To   model.OrderStatus
	Role model.Role
}

var orderTransitionSet = func() map[orderTransitionKey]struct{} {
	set := make(map[orderTransitionKey]struct{})
	for _, t := range orderTransitions {
		for _, role := range t.Roles {
			set[orderTransitionKey{t.From, t.To, role}] = struct{}{}
		}
	}
	return set
}()

// NextOrderStatus returns the single forward status following current, or
// false when current is terminal. Cancellation is not a "next" status.
func NextOrderStatus(current model.OrderStatus) (model.OrderStatus, bool) {
	for _, t := range orderTransitions {
		if t.From == current && t.To != model.OrderStatusCancelled {
			return t.To, true
		}
	}
	return "", false
}

// OrderStatusTerminal reports whether no transition leaves the status.
func OrderStatusTerminal(status model.OrderStatus) bool {
	for _, t := range orderTransitions {
		if t.From == status {
			return false
		}
	}
	return true
}

// CanCancelOrder reports whether an order in the given status may still be
// cancelled.
func CanCancelOrder(status model.OrderStatus) bool {
	_, ok := orderTransitionSet[orderTransitionKey{status, model.OrderStatusCancelled, model.RolePharmacyAdmin}]
	return ok
}

// ValidateOrderTransition checks that the actor may move an order for the
// given pharmacy from one status to another. It returns a forbidden error
// when the actor is the wrong role or pharmacy, and a conflict error when
// the transition itself is illegal.
func ValidateOrderTransition(actor model.Actor, order *model.Order, target model.OrderStatus) error {
	if !actor.Role.IsPharmacyStaff() && actor.Role != model.RoleSuperAdmin {
		return apperrors.Forbidden("only pharmacy staff may update order status", nil)
	}
	if !actor.CanActFor(order.PharmacyID) {
		return apperrors.Forbidden("order belongs to another pharmacy", nil)
	}
	if _, ok := orderTransitionSet[orderTransitionKey{order.Status, target, actor.Role}]; !ok {
		return apperrors.Conflict(
			fmt.Sprintf("illegal order transition %s -> %s", order.Status, target), nil)
	}
	return nil
}
