package checkout

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pharmalink/marketplace-api/internal/model"
	cartsvc "github.com/pharmalink/marketplace-api/internal/service/cart"
	ordersvc "github.com/pharmalink/marketplace-api/internal/service/order"
	paymentsvc "github.com/pharmalink/marketplace-api/internal/service/payment"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

type Service struct {
	cartSvc    *cartsvc.Service
	orderSvc   *ordersvc.Service
	paymentSvc *paymentsvc.Service
	metrics    *metrics.Metrics
}

func NewService(cartSvc *cartsvc.Service, orderSvc *ordersvc.Service,
	paymentSvc *paymentsvc.Service, m *metrics.Metrics) *Service {
	return &Service{
		cartSvc:    cartSvc,
		orderSvc:   orderSvc,
		paymentSvc: paymentSvc,
		metrics:    m,
	}
}

type orderOutcome struct {
	order *model.Order
	err   error
}

// Checkout turns the patient's cart into orders and, for mobile money, a
// single aggregated payment. Order creation fans out per pharmacy and every
// request settles before the outcome is decided. Orders that were created
// before a sibling request failed are kept; the caller retries payment for
// them separately.
func (s *Service) Checkout(ctx context.Context, actor *model.Actor, req *model.CheckoutRequest) (*model.CheckoutResult, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.Forbidden("only patients can check out", nil)
	}
	if req.PaymentMethod == model.PaymentMethodMobileMoney && req.PhoneNumber == "" {
		return nil, apperrors.BadRequest("phone_number is required for mobile money", nil)
	}

	cart, err := s.cartSvc.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.BadRequest("cart is empty", nil)
	}

	partitions := partitionByPharmacy(cart)

	outcomes := make([]orderOutcome, len(partitions))
	var wg sync.WaitGroup
	for i, p := range partitions {
		wg.Add(1)
		go func(i int, orderReq *model.CreateOrderRequest) {
			defer wg.Done()
			order, err := s.orderSvc.Create(ctx, actor.UserID, orderReq)
			outcomes[i] = orderOutcome{order: order, err: err}
		}(i, &model.CreateOrderRequest{
			PharmacyID:      p.pharmacyID,
			Items:           p.items,
			DeliveryAddress: req.DeliveryAddress,
			Latitude:        req.Latitude,
			Longitude:       req.Longitude,
		})
	}
	wg.Wait()

	result := &model.CheckoutResult{}
	var failures []error
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, o.err)
			continue
		}
		result.Orders = append(result.Orders, o.order)
		result.TotalAmount += o.order.TotalAmount
	}

	if len(failures) > 0 {
		s.metrics.CheckoutFailures.Inc()
		for _, ferr := range failures {
			log.Warn().Err(ferr).Str("user_id", actor.UserID.String()).Msg("checkout order creation failed")
		}
		// Created orders stay; the cart stays too so the patient can retry.
		return nil, apperrors.BadRequest("checkout failed", failures[0])
	}

	s.metrics.CheckoutOrdersCreated.Add(float64(len(result.Orders)))

	if req.PaymentMethod == model.PaymentMethodMobileMoney {
		orderIDs := make([]uuid.UUID, len(result.Orders))
		for i, o := range result.Orders {
			orderIDs[i] = o.ID
		}
		payment, err := s.paymentSvc.Process(ctx, actor, &model.ProcessPaymentRequest{
			OrderIDs:    orderIDs,
			Method:      model.PaymentMethodMobileMoney,
			PhoneNumber: req.PhoneNumber,
		})
		if err != nil {
			// Orders exist even though the charge failed; report them as
			// payable later and keep the cart cleared out of the way.
			result.PaymentDue = true
			if cerr := s.cartSvc.Clear(ctx, actor.UserID); cerr != nil {
				log.Error().Err(cerr).Str("user_id", actor.UserID.String()).Msg("failed to clear cart after checkout")
			}
			return result, nil
		}
		result.Payment = payment
	}

	if err := s.cartSvc.Clear(ctx, actor.UserID); err != nil {
		log.Error().Err(err).Str("user_id", actor.UserID.String()).Msg("failed to clear cart after checkout")
	}
	return result, nil
}

type partition struct {
	pharmacyID uuid.UUID
	items      []model.OrderItemRequest
}

// partitionByPharmacy groups cart items per pharmacy. The cart normally holds
// a single pharmacy's items, but checkout does not depend on that.
func partitionByPharmacy(cart *model.Cart) []partition {
	byPharmacy := make(map[uuid.UUID][]model.OrderItemRequest)
	for _, item := range cart.Items {
		pharmacyID := item.PharmacyID
		byPharmacy[pharmacyID] = append(byPharmacy[pharmacyID], model.OrderItemRequest{
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
		})
	}

	partitions := make([]partition, 0, len(byPharmacy))
	for id, items := range byPharmacy {
		partitions = append(partitions, partition{pharmacyID: id, items: items})
	}
	sort.Slice(partitions, func(i, j int) bool {
		return partitions[i].pharmacyID.String() < partitions[j].pharmacyID.String()
	})
	return partitions
}
