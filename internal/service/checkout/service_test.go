package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	cartsvc "github.com/pharmalink/marketplace-api/internal/service/cart"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	ordersvc "github.com/pharmalink/marketplace-api/internal/service/order"
	paymentsvc "github.com/pharmalink/marketplace-api/internal/service/payment"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collectors.
var testMetrics = metrics.New("checkout_test")

type fakeCartRepo struct {
	carts map[uuid.UUID]*model.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID]*model.Cart)}
}

func (r *fakeCartRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	if cart, ok := r.carts[userID]; ok {
		return cart, nil
	}
	return &model.Cart{UserID: userID}, nil
}

func (r *fakeCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	r.carts[cart.UserID] = cart
	return nil
}

func (r *fakeCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(r.carts, userID)
	return nil
}

type fakeMedicationRepo struct {
	medications map[uuid.UUID]*model.Medication
}

func newFakeMedicationRepo() *fakeMedicationRepo {
	return &fakeMedicationRepo{medications: make(map[uuid.UUID]*model.Medication)}
}

func (r *fakeMedicationRepo) add(pharmacyID uuid.UUID, name string, price float64, stock int) *model.Medication {
	m := &model.Medication{PharmacyID: pharmacyID, Name: name, Price: price, StockQuantity: stock}
	m.ID = uuid.New()
	r.medications[m.ID] = m
	return m
}

func (r *fakeMedicationRepo) Create(ctx context.Context, m *model.Medication) error {
	r.medications[m.ID] = m
	return nil
}

func (r *fakeMedicationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	if m, ok := r.medications[id]; ok {
		return m, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMedicationRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Medication, error) {
	var out []*model.Medication
	for _, id := range ids {
		if m, ok := r.medications[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMedicationRepo) Update(ctx context.Context, m *model.Medication) error { return nil }
func (r *fakeMedicationRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (r *fakeMedicationRepo) List(ctx context.Context, f *model.MedicationFilters) ([]*model.Medication, error) {
	return nil, nil
}

func (r *fakeMedicationRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	if m, ok := r.medications[id]; ok {
		m.StockQuantity += delta
	}
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	for _, item := range order.Items {
		order.TotalAmount += item.Price * float64(item.Quantity)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if o.Status != from {
		return nil, repository.ErrStaleStatus
	}
	o.Status = to
	return o, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, error) {
	return nil, nil
}

type fakeDeliveryRepo struct{}

func (r *fakeDeliveryRepo) Create(ctx context.Context, delivery *model.Delivery) error { return nil }
func (r *fakeDeliveryRepo) Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (*model.Delivery, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DeliveryStatus) (*model.Delivery, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) ListAvailable(ctx context.Context, pharmacyID uuid.UUID) ([]*model.Delivery, error) {
	return nil, nil
}

func (r *fakeDeliveryRepo) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]*model.Delivery, error) {
	return nil, nil
}

func (r *fakeDeliveryRepo) List(ctx context.Context, filters *model.DeliveryFilters) ([]*model.Delivery, error) {
	return nil, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	if p, ok := r.payments[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return nil
}
func (r *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

type chargeCall struct {
	phoneNumber string
	amount      float64
}

type fakeGateway struct {
	err     error
	charges []chargeCall
}

func (g *fakeGateway) Charge(ctx context.Context, phoneNumber string, amount float64, reference string) (string, error) {
	g.charges = append(g.charges, chargeCall{phoneNumber: phoneNumber, amount: amount})
	if g.err != nil {
		return "", g.err
	}
	return "MM-" + reference, nil
}

type fixture struct {
	svc      *Service
	cartSvc  *cartsvc.Service
	carts    *fakeCartRepo
	orders   *fakeOrderRepo
	meds     *fakeMedicationRepo
	payments *fakePaymentRepo
	gateway  *fakeGateway
}

func newFixture() *fixture {
	f := &fixture{
		carts:    newFakeCartRepo(),
		orders:   newFakeOrderRepo(),
		meds:     newFakeMedicationRepo(),
		payments: newFakePaymentRepo(),
		gateway:  &fakeGateway{},
	}
	eventSvc := event.NewService(&fakeOutboxRepo{})
	f.cartSvc = cartsvc.NewService(f.carts, f.meds)
	orderSvc := ordersvc.NewService(f.orders, f.meds, &fakeDeliveryRepo{}, eventSvc, testMetrics)
	paymentSvc := paymentsvc.NewService(f.payments, f.orders, f.gateway, eventSvc, testMetrics)
	f.svc = NewService(f.cartSvc, orderSvc, paymentSvc, testMetrics)
	return f
}

func patient() *model.Actor {
	return &model.Actor{UserID: uuid.New(), Role: model.RolePatient}
}

func (f *fixture) fillCart(t *testing.T, userID uuid.UUID, med *model.Medication, quantity int) {
	t.Helper()
	_, err := f.cartSvc.AddItem(context.Background(), userID, &model.AddCartItemRequest{
		MedicationID: med.ID, Quantity: quantity,
	})
	require.NoError(t, err)
}

func TestCheckoutRequiresPatient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(),
		&model.Actor{UserID: uuid.New(), Role: model.RolePharmacyAdmin},
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodCashOnDelivery})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(), patient(),
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodCashOnDelivery})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	assert.Empty(t, f.orders.orders)
}

func TestCheckoutMobileMoneyRequiresPhone(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(), patient(),
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodMobileMoney})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestCheckoutCashOnDelivery(t *testing.T) {
	f := newFixture()
	actor := patient()
	pharmacyID := uuid.New()
	f.fillCart(t, actor.UserID, f.meds.add(pharmacyID, "Amoxicillin", 12.50, 20), 2)
	f.fillCart(t, actor.UserID, f.meds.add(pharmacyID, "Ibuprofen", 4.00, 20), 3)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, actor,
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodCashOnDelivery})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	assert.Equal(t, model.OrderStatusPending, result.Orders[0].Status)
	assert.InDelta(t, 37.00, result.TotalAmount, 0.001)
	assert.Nil(t, result.Payment)
	assert.False(t, result.PaymentDue)
	assert.Empty(t, f.gateway.charges)

	cart, err := f.cartSvc.Get(ctx, actor.UserID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckoutSplitsCartAcrossPharmacies(t *testing.T) {
	f := newFixture()
	actor := patient()
	pharmacyA, pharmacyB := uuid.New(), uuid.New()
	medA := f.meds.add(pharmacyA, "Amoxicillin", 12.50, 20)
	medB := f.meds.add(pharmacyB, "Ibuprofen", 4.00, 20)
	ctx := context.Background()

	// A cart spanning two pharmacies, as left behind by a clear_existing swap
	// that raced with checkout.
	f.carts.carts[actor.UserID] = &model.Cart{
		UserID: actor.UserID,
		Items: []model.CartItem{
			{MedicationID: medA.ID, PharmacyID: pharmacyA, Name: medA.Name, Quantity: 2, Price: medA.Price},
			{MedicationID: medB.ID, PharmacyID: pharmacyB, Name: medB.Name, Quantity: 3, Price: medB.Price},
		},
	}

	result, err := f.svc.Checkout(ctx, actor,
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodCashOnDelivery})
	require.NoError(t, err)

	require.Len(t, result.Orders, 2)
	byPharmacy := make(map[uuid.UUID]*model.Order, 2)
	for _, o := range result.Orders {
		byPharmacy[o.PharmacyID] = o
	}

	orderA := byPharmacy[pharmacyA]
	require.NotNil(t, orderA)
	require.Len(t, orderA.Items, 1)
	assert.Equal(t, medA.ID, orderA.Items[0].MedicationID)
	assert.InDelta(t, 25.00, orderA.TotalAmount, 0.001)

	orderB := byPharmacy[pharmacyB]
	require.NotNil(t, orderB)
	require.Len(t, orderB.Items, 1)
	assert.Equal(t, medB.ID, orderB.Items[0].MedicationID)
	assert.InDelta(t, 12.00, orderB.TotalAmount, 0.001)

	assert.InDelta(t, 37.00, result.TotalAmount, 0.001)

	cart, err := f.cartSvc.Get(ctx, actor.UserID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckoutMobileMoneyChargesOnce(t *testing.T) {
	f := newFixture()
	actor := patient()
	pharmacyID := uuid.New()
	f.fillCart(t, actor.UserID, f.meds.add(pharmacyID, "Amoxicillin", 12.50, 20), 2)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, actor, &model.CheckoutRequest{
		DeliveryAddress: "12 Hill Road",
		PaymentMethod:   model.PaymentMethodMobileMoney,
		PhoneNumber:     "+250788123456",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Payment)
	assert.Equal(t, model.PaymentStatusCompleted, result.Payment.Status)
	assert.InDelta(t, 25.00, result.Payment.Amount, 0.001)
	require.Len(t, result.Payment.OrderIDs, 1)
	assert.False(t, result.PaymentDue)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, "+250788123456", f.gateway.charges[0].phoneNumber)
	assert.InDelta(t, 25.00, f.gateway.charges[0].amount, 0.001)

	cart, err := f.cartSvc.Get(ctx, actor.UserID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckoutPaymentDeclinedKeepsOrders(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("insufficient funds")
	actor := patient()
	pharmacyID := uuid.New()
	f.fillCart(t, actor.UserID, f.meds.add(pharmacyID, "Amoxicillin", 12.50, 20), 2)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, actor, &model.CheckoutRequest{
		DeliveryAddress: "12 Hill Road",
		PaymentMethod:   model.PaymentMethodMobileMoney,
		PhoneNumber:     "+250788123456",
	})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	assert.True(t, result.PaymentDue)
	assert.Nil(t, result.Payment)
	assert.Len(t, f.orders.orders, 1)

	cart, err := f.cartSvc.Get(ctx, actor.UserID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckoutOrderFailureKeepsCart(t *testing.T) {
	f := newFixture()
	actor := patient()
	pharmacyID := uuid.New()
	med := f.meds.add(pharmacyID, "Amoxicillin", 12.50, 20)
	f.fillCart(t, actor.UserID, med, 2)
	ctx := context.Background()

	// Stock drained between adding to cart and checking out.
	med.StockQuantity = 1

	_, err := f.svc.Checkout(ctx, actor,
		&model.CheckoutRequest{DeliveryAddress: "12 Hill Road", PaymentMethod: model.PaymentMethodCashOnDelivery})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	assert.Empty(t, f.orders.orders)

	cart, err := f.cartSvc.Get(ctx, actor.UserID)
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
}
