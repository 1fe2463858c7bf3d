package delivery

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collectors.
var testMetrics = metrics.New("delivery_test")

type fakeDeliveryRepo struct {
	deliveries map[uuid.UUID]*model.Delivery
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{deliveries: make(map[uuid.UUID]*model.Delivery)}
}

func (r *fakeDeliveryRepo) add(orderID, pharmacyID uuid.UUID, status model.DeliveryStatus) *model.Delivery {
	d := &model.Delivery{OrderID: orderID, PharmacyID: pharmacyID, Status: status, Address: "12 Hill Road"}
	d.ID = uuid.New()
	r.deliveries[d.ID] = d
	return d
}

func (r *fakeDeliveryRepo) Create(ctx context.Context, delivery *model.Delivery) error {
	delivery.ID = uuid.New()
	r.deliveries[delivery.ID] = delivery
	return nil
}

func (r *fakeDeliveryRepo) Get(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	if d, ok := r.deliveries[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*model.Delivery, error) {
	for _, d := range r.deliveries {
		if d.OrderID == orderID {
			return d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryRepo) Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (*model.Delivery, error) {
	d, ok := r.deliveries[deliveryID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if d.CourierID != nil {
		return nil, repository.ErrAlreadyClaimed
	}
	d.CourierID = &courierID
	d.Status = model.DeliveryStatusAssigned
	return d, nil
}

func (r *fakeDeliveryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DeliveryStatus) (*model.Delivery, error) {
	d, ok := r.deliveries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if d.Status != from {
		return nil, repository.ErrStaleStatus
	}
	d.Status = to
	return d, nil
}

func (r *fakeDeliveryRepo) ListAvailable(ctx context.Context, pharmacyID uuid.UUID) ([]*model.Delivery, error) {
	var out []*model.Delivery
	for _, d := range r.deliveries {
		if d.PharmacyID == pharmacyID && d.CourierID == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) ListByCourier(ctx context.Context, courierID uuid.UUID) ([]*model.Delivery, error) {
	var out []*model.Delivery
	for _, d := range r.deliveries {
		if d.CourierID != nil && *d.CourierID == courierID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) List(ctx context.Context, filters *model.DeliveryFilters) ([]*model.Delivery, error) {
	return nil, nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) add(pharmacyID uuid.UUID, status model.OrderStatus) *model.Order {
	o := &model.Order{PharmacyID: pharmacyID, PatientID: uuid.New(), Status: status, DeliveryAddress: "12 Hill Road"}
	o.ID = uuid.New()
	r.orders[o.ID] = o
	return o
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
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

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(role model.Role, pharmacyID uuid.UUID, active bool) *model.User {
	u := &model.User{Role: role, PharmacyID: &pharmacyID, IsActive: active}
	u.ID = uuid.New()
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (r *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) ListCouriers(ctx context.Context, pharmacyID uuid.UUID, activeOnly bool) ([]*model.User, error) {
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

type fixture struct {
	svc        *Service
	deliveries *fakeDeliveryRepo
	orders     *fakeOrderRepo
	users      *fakeUserRepo
	outbox     *fakeOutboxRepo
}

func newFixture() *fixture {
	f := &fixture{
		deliveries: newFakeDeliveryRepo(),
		orders:     newFakeOrderRepo(),
		users:      newFakeUserRepo(),
		outbox:     &fakeOutboxRepo{},
	}
	f.svc = NewService(f.deliveries, f.orders, f.users, event.NewService(f.outbox), testMetrics)
	return f
}

func staff(pharmacyID uuid.UUID) model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RolePharmacyAdmin, PharmacyID: &pharmacyID}
}

func courierActor(id uuid.UUID) model.Actor {
	return model.Actor{UserID: id, Role: model.RoleDelivery}
}

func TestAssignCreatesDeliveryForReadyOrder(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	courier := f.users.add(model.RoleDelivery, pharmacyID, true)

	delivery, err := f.svc.Assign(context.Background(), staff(pharmacyID), order.ID, courier.ID)
	require.NoError(t, err)

	assert.Equal(t, model.DeliveryStatusAssigned, delivery.Status)
	require.NotNil(t, delivery.CourierID)
	assert.Equal(t, courier.ID, *delivery.CourierID)
	assert.Equal(t, order.DeliveryAddress, delivery.Address)
	assert.NotNil(t, delivery.AssignedAt)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventDeliveryAssigned, f.outbox.events[0].EventType)
}

func TestAssignClaimsExistingPendingDelivery(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	pending := f.deliveries.add(order.ID, pharmacyID, model.DeliveryStatusPending)
	courier := f.users.add(model.RoleDelivery, pharmacyID, true)

	delivery, err := f.svc.Assign(context.Background(), staff(pharmacyID), order.ID, courier.ID)
	require.NoError(t, err)

	assert.Equal(t, pending.ID, delivery.ID)
	assert.Equal(t, model.DeliveryStatusAssigned, delivery.Status)
	require.NotNil(t, delivery.CourierID)
	assert.Equal(t, courier.ID, *delivery.CourierID)
}

func TestAssignRequiresStaff(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Assign(context.Background(),
		model.Actor{UserID: uuid.New(), Role: model.RolePatient}, uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestAssignRequiresReadyOrder(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusPreparing)
	courier := f.users.add(model.RoleDelivery, pharmacyID, true)

	_, err := f.svc.Assign(context.Background(), staff(pharmacyID), order.ID, courier.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestAssignRejectsInactiveCourier(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	courier := f.users.add(model.RoleDelivery, pharmacyID, false)

	_, err := f.svc.Assign(context.Background(), staff(pharmacyID), order.ID, courier.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestAssignRejectsNonCourierUser(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	employee := f.users.add(model.RolePharmacyEmployee, pharmacyID, true)

	_, err := f.svc.Assign(context.Background(), staff(pharmacyID), order.ID, employee.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestAssignScopedToOwnPharmacy(t *testing.T) {
	f := newFixture()
	order := f.orders.add(uuid.New(), model.OrderStatusReady)

	_, err := f.svc.Assign(context.Background(), staff(uuid.New()), order.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestAcceptFirstCourierWins(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	pending := f.deliveries.add(order.ID, pharmacyID, model.DeliveryStatusPending)

	first := uuid.New()
	delivery, err := f.svc.Accept(context.Background(), courierActor(first), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusAssigned, delivery.Status)
	require.NotNil(t, delivery.CourierID)
	assert.Equal(t, first, *delivery.CourierID)

	_, err = f.svc.Accept(context.Background(), courierActor(uuid.New()), pending.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestAcceptRequiresCourierRole(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Accept(context.Background(), staff(uuid.New()), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestTransitionSyncsOrderStatus(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	delivery := f.deliveries.add(order.ID, pharmacyID, model.DeliveryStatusAssigned)
	courierID := uuid.New()
	delivery.CourierID = &courierID
	ctx := context.Background()

	updated, err := f.svc.Transition(ctx, courierActor(courierID), delivery.ID, model.DeliveryStatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusInTransit, updated.Status)
	assert.Equal(t, model.OrderStatusDelivering, f.orders.orders[order.ID].Status)

	updated, err = f.svc.Transition(ctx, courierActor(courierID), delivery.ID, model.DeliveryStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusDelivered, updated.Status)
	assert.Equal(t, model.OrderStatusDelivered, f.orders.orders[order.ID].Status)
}

func TestTransitionOnlyAssignedCourier(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	order := f.orders.add(pharmacyID, model.OrderStatusReady)
	delivery := f.deliveries.add(order.ID, pharmacyID, model.DeliveryStatusAssigned)
	courierID := uuid.New()
	delivery.CourierID = &courierID

	_, err := f.svc.Transition(context.Background(), courierActor(uuid.New()), delivery.ID, model.DeliveryStatusInTransit)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestListAvailableFiltersClaimed(t *testing.T) {
	f := newFixture()
	pharmacyID := uuid.New()
	f.deliveries.add(uuid.New(), pharmacyID, model.DeliveryStatusPending)
	claimed := f.deliveries.add(uuid.New(), pharmacyID, model.DeliveryStatusAssigned)
	courierID := uuid.New()
	claimed.CourierID = &courierID

	available, err := f.svc.ListAvailable(context.Background(), courierActor(uuid.New()), pharmacyID)
	require.NoError(t, err)
	assert.Len(t, available, 1)
}

func TestListMineRequiresCourier(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ListMine(context.Background(), staff(uuid.New()))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}
