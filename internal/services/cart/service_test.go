package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/booking"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
)

type memStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]models.Cart
}

func cloneCart(c models.Cart) models.Cart {
	c.Items = append(datatypes.JSONSlice[models.CartItem]{}, c.Items...)
	c.Wishlist = append(datatypes.JSONSlice[models.WishlistItem]{}, c.Wishlist...)
	return c
}

func (m *memStore) FindByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCart(c)
	return &out, nil
}

func (m *memStore) Create(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[c.UserID]; ok {
		return ErrVersionConflict
	}
	m.carts[c.UserID] = cloneCart(*c)
	return nil
}

func (m *memStore) Update(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.carts[c.UserID]
	if !ok || cur.Version != c.Version {
		return ErrVersionConflict
	}
	c.Version++
	m.carts[c.UserID] = cloneCart(*c)
	return nil
}

type fakePortfolios map[uuid.UUID]*models.PortfolioSubmission

func (f fakePortfolios) FindByID(_ context.Context, id uuid.UUID) (*models.PortfolioSubmission, error) {
	p, ok := f[id]
	if !ok {
		return nil, portfolio.ErrNotFound
	}
	return p.Clone(), nil
}

type fakeBookings struct {
	fail map[uuid.UUID]error
	got  []booking.CreateInput
}

func (f *fakeBookings) Create(_ context.Context, clientID uuid.UUID, in booking.CreateInput) (*models.Booking, error) {
	f.got = append(f.got, in)
	sid, _ := uuid.Parse(in.ServiceKey)
	if err := f.fail[sid]; err != nil {
		return nil, err
	}
	return &models.Booking{ID: uuid.New(), ClientID: clientID, ServiceID: sid, Level: in.Level, Status: models.BookingPendingPayment}, nil
}

type fixture struct {
	svc      *Service
	store    *memStore
	bookings *fakeBookings
	approved *models.PortfolioSubmission
	pending  *models.PortfolioSubmission
	logo     uuid.UUID
	web      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := uuid.New()
	f := &fixture{
		store:    &memStore{carts: map[uuid.UUID]models.Cart{}},
		bookings: &fakeBookings{fail: map[uuid.UUID]error{}},
		logo:     uuid.New(),
		web:      uuid.New(),
	}
	f.approved = &models.PortfolioSubmission{
		ID:     uuid.New(),
		UserID: &owner,
		Status: models.PortfolioApproved,
		Services: datatypes.JSONSlice[models.Service]{
			{ID: f.logo, Name: "Logo Design", Slug: "logo-design", Pricing: []models.Pricing{{Level: "Basic", Price: "100000"}, {Level: "Premium", Price: "250000"}}},
			{ID: f.web, Name: "Web Dev", Slug: "web-dev", Pricing: []models.Pricing{{Level: "Standard", Price: "Rp 1.000.000"}}},
		},
	}
	f.pending = &models.PortfolioSubmission{ID: uuid.New(), UserID: &owner, Status: models.PortfolioPending}

	portfolios := fakePortfolios{f.approved.ID: f.approved, f.pending.ID: f.pending}
	f.svc = NewService(f.store, portfolios, f.bookings)
	return f
}

func TestGetEmptyCart(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, c.Items)
	assert.NotNil(t, c.Wishlist)
	assert.Empty(t, f.store.carts, "reading does not create a cart")
}

func TestAddItemReplacesSameService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "basic"})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: f.web.String()})
	require.NoError(t, err)
	c, err := f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: f.logo.String(), Level: "Premium"})
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.Equal(t, f.web, c.Items[0].ServiceID)
	assert.Equal(t, "Premium", c.Items[1].Level)
	assert.Equal(t, "250000", c.Items[1].Price)
}

func TestAddItemRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: uuid.New(), ServiceKey: "logo-design"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.pending.ID, ServiceKey: "logo-design"})
	assert.True(t, apperrors.IsValidation(err), "unapproved portfolios cannot be bought")

	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "video-editing"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design"})
	assert.True(t, apperrors.IsValidation(err), "two tiers need a level")

	_, err = f.svc.AddItem(ctx, *f.approved.UserID, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "web-dev"})
	assert.True(t, apperrors.IsValidation(err), "owners cannot buy their own service")

	assert.Empty(t, f.store.carts)
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "web-dev"})
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, user, f.logo)
	assert.True(t, apperrors.IsNotFound(err))

	c, err := f.svc.RemoveItem(ctx, user, f.web)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := f.svc.AddWishlist(ctx, user, f.approved.ID)
	require.NoError(t, err)
	c, err := f.svc.AddWishlist(ctx, user, f.approved.ID)
	require.NoError(t, err)
	assert.Len(t, c.Wishlist, 1, "adding twice keeps one entry")

	_, err = f.svc.AddWishlist(ctx, user, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	c, err = f.svc.RemoveWishlist(ctx, user, f.approved.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Wishlist)

	_, err = f.svc.RemoveWishlist(ctx, user, f.approved.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := f.svc.Checkout(ctx, user, CheckoutInput{})
	assert.True(t, apperrors.IsValidation(err), "empty cart")

	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "Basic"})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, user, AddItemInput{SubmissionID: f.approved.ID, ServiceKey: "web-dev"})
	require.NoError(t, err)
	f.bookings.fail[f.web] = apperrors.Validation("portfolio is not available for booking")

	res, err := f.svc.Checkout(ctx, user, CheckoutInput{Note: "asap"})
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, f.logo, res.Bookings[0].ServiceID)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "portfolio is not available for booking", res.Failed[0].Reason)
	assert.Equal(t, "asap", f.bookings.got[0].Note)

	c, err := f.svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "failed items stay in the cart")
	assert.Equal(t, f.web, c.Items[0].ServiceID)
}

func TestConcurrentWishlistAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	other := &models.PortfolioSubmission{ID: uuid.New(), Status: models.PortfolioApproved}
	f.svc.portfolios = fakePortfolios{f.approved.ID: f.approved, other.ID: other}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{f.approved.ID, other.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.AddWishlist(ctx, user, id)
		}(i, id)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	c, err := f.svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Len(t, c.Wishlist, 2)
}
