package pharmacy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
	"github.com/pharmalink/marketplace-api/internal/service/event"
	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

type fakePharmacyRepo struct {
	pharmacies map[uuid.UUID]*model.Pharmacy
}

func newFakePharmacyRepo() *fakePharmacyRepo {
	return &fakePharmacyRepo{pharmacies: make(map[uuid.UUID]*model.Pharmacy)}
}

func (r *fakePharmacyRepo) add(ownerID uuid.UUID, status model.PharmacyStatus) *model.Pharmacy {
	p := &model.Pharmacy{Name: "Kigali Central", OwnerID: ownerID, Status: status, Email: "owner@pharmacy.test"}
	p.ID = uuid.New()
	r.pharmacies[p.ID] = p
	return p
}

func (r *fakePharmacyRepo) Create(ctx context.Context, pharmacy *model.Pharmacy) error {
	pharmacy.ID = uuid.New()
	r.pharmacies[pharmacy.ID] = pharmacy
	return nil
}

func (r *fakePharmacyRepo) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	if p, ok := r.pharmacies[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakePharmacyRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Pharmacy, error) {
	for _, p := range r.pharmacies {
		if p.OwnerID == ownerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePharmacyRepo) Update(ctx context.Context, pharmacy *model.Pharmacy) error {
	r.pharmacies[pharmacy.ID] = pharmacy
	return nil
}

func (r *fakePharmacyRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PharmacyStatus) (*model.Pharmacy, error) {
	p, ok := r.pharmacies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Status = status
	cp := *p
	return &cp, nil
}

func (r *fakePharmacyRepo) List(ctx context.Context, filters *model.PharmacyFilters) ([]*model.Pharmacy, error) {
	var out []*model.Pharmacy
	for _, p := range r.pharmacies {
		out = append(out, p)
	}
	return out, nil
}

type fakeUserRepo struct {
	users  map[uuid.UUID]*model.User
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(role model.Role) *model.User {
	u := &model.User{Email: "user@pharmalink.test", Role: role, IsActive: true}
	u.ID = uuid.New()
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if filters != nil && filters.PharmacyID != nil {
			if u.PharmacyID == nil || *u.PharmacyID != *filters.PharmacyID {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) ListCouriers(ctx context.Context, pharmacyID uuid.UUID, activeOnly bool) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.Role != model.RoleDelivery || u.PharmacyID == nil || *u.PharmacyID != pharmacyID {
			continue
		}
		if activeOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

type fakeNotifier struct {
	decisions []string
}

func (n *fakeNotifier) SendWelcome(ctx context.Context, email, name string) error { return nil }

func (n *fakeNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return nil
}

func (n *fakeNotifier) SendOrderStatusUpdate(ctx context.Context, email, orderID, status string) error {
	return nil
}

func (n *fakeNotifier) SendPharmacyDecision(ctx context.Context, email, pharmacyName, status string) error {
	n.decisions = append(n.decisions, status)
	return nil
}

type fixture struct {
	svc        *Service
	pharmacies *fakePharmacyRepo
	users      *fakeUserRepo
	outbox     *fakeOutboxRepo
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		pharmacies: newFakePharmacyRepo(),
		users:      newFakeUserRepo(),
		outbox:     &fakeOutboxRepo{},
		notifier:   &fakeNotifier{},
	}
	f.svc = NewService(f.pharmacies, f.users, event.NewService(f.outbox), f.notifier)
	return f
}

func actorFor(user *model.User) model.Actor {
	return model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role, PharmacyID: user.PharmacyID}
}

func registerReq() *model.CreatePharmacyRequest {
	return &model.CreatePharmacyRequest{
		Name:    "Nyamirambo Pharmacy",
		Address: "KN 2 Ave",
		Phone:   "+250788000001",
		Email:   "contact@nyamirambo.test",
	}
}

func TestRegisterBindsOwner(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)

	p, err := f.svc.Register(context.Background(), actorFor(owner), registerReq())
	require.NoError(t, err)

	assert.Equal(t, model.PharmacyStatusPending, p.Status)
	assert.Equal(t, owner.ID, p.OwnerID)

	bound := f.users.users[owner.ID]
	require.NotNil(t, bound.PharmacyID)
	assert.Equal(t, p.ID, *bound.PharmacyID)
}

func TestRegisterFailsWhenOwnerLookupFails(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)
	f.users.getErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), actorFor(owner), registerReq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load owner")
}

func TestRegisterOnePharmacyPerOwner(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)
	f.pharmacies.add(owner.ID, model.PharmacyStatusPending)

	_, err := f.svc.Register(context.Background(), actorFor(owner), registerReq())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestRegisterRequiresPharmacyAdmin(t *testing.T) {
	f := newFixture()
	patient := f.users.add(model.RolePatient)

	_, err := f.svc.Register(context.Background(), actorFor(patient), registerReq())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestUpdateStatusApproves(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)
	admin := f.users.add(model.RoleSuperAdmin)
	p := f.pharmacies.add(owner.ID, model.PharmacyStatusPending)

	updated, err := f.svc.UpdateStatus(context.Background(), actorFor(admin), p.ID, model.PharmacyStatusApproved)
	require.NoError(t, err)

	assert.Equal(t, model.PharmacyStatusApproved, updated.Status)
	assert.Equal(t, []string{"APPROVED"}, f.notifier.decisions)
	require.Len(t, f.outbox.events, 1)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)
	admin := f.users.add(model.RoleSuperAdmin)
	p := f.pharmacies.add(owner.ID, model.PharmacyStatusApproved)

	_, err := f.svc.UpdateStatus(context.Background(), actorFor(admin), p.ID, model.PharmacyStatusRejected)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestUpdateStatusRequiresSuperAdmin(t *testing.T) {
	f := newFixture()
	owner := f.users.add(model.RolePharmacyAdmin)
	p := f.pharmacies.add(owner.ID, model.PharmacyStatusPending)

	_, err := f.svc.UpdateStatus(context.Background(), actorFor(owner), p.ID, model.PharmacyStatusApproved)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}
