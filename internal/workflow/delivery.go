package workflow

import (
	"fmt"

	"github.com/pharmalink/marketplace-api/internal/model"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

type deliveryTransition struct {
	From  model.DeliveryStatus
	To    model.DeliveryStatus
	Roles []model.Role
}

// deliveryTransitions is the authoritative delivery state machine. Couriers
// drive the forward path and may never skip IN_TRANSIT. RETURNED is
// administrative: no courier-facing path triggers it.
var deliveryTransitions = []deliveryTransition{
	{From: model.DeliveryStatusAssigned, To: model.DeliveryStatusInTransit, Roles: []model.Role{model.RoleDelivery}},
	{From: model.DeliveryStatusInTransit, To: model.DeliveryStatusDelivered, Roles: []model.Role{model.RoleDelivery}},
	{From: model.DeliveryStatusAssigned, To: model.DeliveryStatusReturned, Roles: []model.Role{model.RoleSuperAdmin}},
	{From: model.DeliveryStatusInTransit, To: model.DeliveryStatusReturned, Roles: []model.Role{model.RoleSuperAdmin}},
}

type deliveryTransitionKey struct {
	From model.DeliveryStatus
	To   model.DeliveryStatus
	Role model.Role
}

var deliveryTransitionSet = func() map[deliveryTransitionKey]struct{} {
	set := make(map[deliveryTransitionKey]struct{})
	for _, t := range deliveryTransitions {
		for _, role := range t.Roles {
			set[deliveryTransitionKey{t.From, t.To, role}] = struct{}{}
		}
	}
	return set
}()

// DeliveryStatusTerminal reports whether no transition leaves the status.
func DeliveryStatusTerminal(status model.DeliveryStatus) bool {
	return status == model.DeliveryStatusDelivered || status == model.DeliveryStatusReturned
}

// ValidateDeliveryTransition checks that the actor may move a delivery from
// one status to another. Courier transitions additionally require the actor
// to be the assigned courier.
func ValidateDeliveryTransition(actor model.Actor, delivery *model.Delivery, target model.DeliveryStatus) error {
	if _, ok := deliveryTransitionSet[deliveryTransitionKey{delivery.Status, target, actor.Role}]; !ok {
		return apperrors.Conflict(
			fmt.Sprintf("illegal delivery transition %s -> %s", delivery.Status, target), nil)
	}
	if actor.Role == model.RoleDelivery {
		if delivery.CourierID == nil || *delivery.CourierID != actor.UserID {
			return apperrors.Forbidden("delivery is assigned to another courier", nil)
		}
	}
	return nil
}

// ValidateAssignment checks the preconditions for attaching a courier to an
// order's delivery: the order must be READY and the delivery unassigned.
func ValidateAssignment(order *model.Order, delivery *model.Delivery) error {
	if order.Status != model.OrderStatusReady {
		return apperrors.Conflict(
			fmt.Sprintf("order must be READY to assign a courier, got %s", order.Status), nil)
	}
	if delivery != nil && delivery.CourierID != nil {
		return apperrors.Conflict("delivery already has a courier", nil)
	}
	return nil
}
