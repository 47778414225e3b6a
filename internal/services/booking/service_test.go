package booking

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
)

type fixture struct {
	svc      *Service
	store    *memStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	client   uuid.UUID
	owner    uuid.UUID
	approved *models.PortfolioSubmission
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newMemStore(),
		notifier: &fakeNotifier{},
		client:   uuid.New(),
		owner:    uuid.New(),
	}
	briva := tripay.PaymentChannel{Code: "BRIVA", Name: "BRI Virtual Account", Active: true}
	briva.Fee.Flat = float64(4250)
	f.gateway = &fakeGateway{validSig: "good", channels: []tripay.PaymentChannel{briva}}

	f.approved = &models.PortfolioSubmission{
		ID:     uuid.New(),
		UserID: &f.owner,
		Status: models.PortfolioApproved,
		Services: []models.Service{{
			ID: uuid.New(), Name: "Logo Design", Slug: "logo-design",
			Pricing: []models.Pricing{
				{Level: "Basic", Price: "Rp 150.000"},
				{Level: "Premium", Price: "negotiable"},
			},
		}},
	}
	f.svc = NewService(f.store, fakePortfolios{f.approved.ID: f.approved}, f.gateway, f.notifier)
	return f
}

func (f *fixture) pending(t *testing.T) models.Booking {
	t.Helper()
	return f.store.seed(models.Booking{
		ClientID:     f.client,
		FreelancerID: f.owner,
		SubmissionID: f.approved.ID,
		ServiceName:  "Logo Design",
		Level:        "Basic",
		Amount:       150000,
		Status:       models.BookingPendingPayment,
	})
}

func callback(t *testing.T, p tripay.CallbackPayload) []byte {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return body
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.HandleCallback(ctx, "bad", []byte(`{}`))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	err = f.svc.HandleCallback(ctx, "", []byte(`{}`))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	err = f.svc.HandleCallback(ctx, "good", []byte(`not json`))
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateRejectsUnbookablePortfolios(t *testing.T) {
	f := newFixture(t)
	pending := &models.PortfolioSubmission{ID: uuid.New(), UserID: &f.owner, Status: models.PortfolioPending}
	f.svc.Portfolios = fakePortfolios{f.approved.ID: f.approved, pending.ID: pending}
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.client, CreateInput{SubmissionID: uuid.New()})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Create(ctx, f.client, CreateInput{SubmissionID: pending.ID, ServiceKey: "logo-design"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "Basic"})
	assert.True(t, apperrors.IsValidation(err), "own service")

	_, err = f.svc.Create(ctx, f.client, CreateInput{SubmissionID: f.approved.ID, ServiceKey: "web-dev"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Create(ctx, f.client, CreateInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "Gold"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Create(ctx, f.client, CreateInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "Premium"})
	assert.True(t, apperrors.IsValidation(err), "price without digits")
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.client, CreateInput{SubmissionID: f.approved.ID, ServiceKey: "Logo Design", Level: "basic", Note: " asap "})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPendingPayment, b.Status)
	assert.Equal(t, int64(150000), b.Amount)
	assert.Equal(t, "Basic", b.Level)
	assert.Equal(t, f.owner, b.FreelancerID)
	assert.Equal(t, "asap", b.Note)
	assert.Len(t, b.Code, 8)

	for _, who := range []uuid.UUID{f.client, f.owner} {
		list, err := f.svc.List(ctx, who, "")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	list, err := f.svc.List(ctx, f.client, string(models.BookingPaid))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Get(ctx, uuid.New(), false, b.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.svc.Get(ctx, uuid.New(), true, b.ID)
	assert.NoError(t, err, "admins see every booking")
	_, err = f.svc.Get(ctx, f.client, false, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateRetriesCodeCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{SubmissionID: f.approved.ID, ServiceKey: "logo-design", Level: "Basic"}

	f.store.dupCodes = codeAttempts - 1
	_, err := f.svc.Create(ctx, f.client, in)
	require.NoError(t, err)

	f.store.dupCodes = codeAttempts
	_, err = f.svc.Create(ctx, f.client, in)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)

	_, err := f.svc.Checkout(ctx, f.client, b.ID, " ")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Checkout(ctx, f.owner, b.ID, "BRIVA")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.svc.Checkout(ctx, f.client, b.ID, "OVO")
	assert.True(t, apperrors.IsValidation(err), "unknown channel")

	paid := f.store.seed(models.Booking{ClientID: f.client, FreelancerID: f.owner, Amount: 1000, Status: models.BookingPaid})
	_, err = f.svc.Checkout(ctx, f.client, paid.ID, "BRIVA")
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, f.gateway.created)
}

func TestCheckoutReusesUnpaidTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)

	first, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)
	assert.Equal(t, int64(4250), first.Fee)
	assert.Equal(t, int64(154250), first.TotalAmount)
	require.Len(t, f.gateway.created, 1)
	assert.Equal(t, "INV-"+b.Code, f.gateway.created[0].MerchantRef)

	again, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, f.gateway.created, 1, "an open transaction is not recreated")
	assert.Len(t, f.store.transactions(), 1)
}

func TestCheckoutSuffixesLaterAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)

	first, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)
	f.store.setTransactionStatus(first.Reference, models.TransactionStatusExpired)

	second, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)
	f.store.setTransactionStatus(second.Reference, models.TransactionStatusFailed)

	_, err = f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)

	require.Len(t, f.gateway.created, 3)
	assert.Equal(t, "INV-"+b.Code, f.gateway.created[0].MerchantRef)
	assert.Equal(t, "INV-"+b.Code+"-2", f.gateway.created[1].MerchantRef)
	assert.Equal(t, "INV-"+b.Code+"-3", f.gateway.created[2].MerchantRef)
}

func TestCallbackPaidAwardsPointsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)
	res, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)

	body := callback(t, tripay.CallbackPayload{
		Reference:   res.Reference,
		MerchantRef: "INV-" + b.Code,
		Status:      "paid",
		TotalAmount: res.TotalAmount,
		PaidAt:      1700000000,
	})
	require.NoError(t, f.svc.HandleCallback(ctx, "good", body))
	require.NoError(t, f.svc.HandleCallback(ctx, "good", body), "a repeated callback is accepted")

	assert.Equal(t, models.BookingPaid, f.store.booking(b.ID).Status)
	assert.Equal(t, []award{{userID: f.client, amount: 15, ref: b.ID}}, f.store.awards)
	assert.Equal(t, []models.BookingStatus{models.BookingPaid}, f.notifier.calls)

	trx := f.store.transactions()
	require.Len(t, trx, 1)
	assert.Equal(t, models.TransactionStatusPaid, trx[0].Status)
	require.NotNil(t, trx[0].PaidAt)
}

func TestCallbackMatchesMerchantRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)
	_, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)

	body := callback(t, tripay.CallbackPayload{Reference: "unknown", MerchantRef: "INV-" + b.Code, Status: "PAID"})
	require.NoError(t, f.svc.HandleCallback(ctx, "good", body))
	assert.Equal(t, models.BookingPaid, f.store.booking(b.ID).Status)
}

func TestCallbackWithoutPaymentLeavesBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)
	res, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)

	body := callback(t, tripay.CallbackPayload{Reference: res.Reference, Status: "EXPIRED"})
	require.NoError(t, f.svc.HandleCallback(ctx, "good", body))

	assert.Equal(t, models.BookingPendingPayment, f.store.booking(b.ID).Status)
	assert.Equal(t, models.TransactionStatusExpired, f.store.transactions()[0].Status)
	assert.Empty(t, f.store.awards)
	assert.Empty(t, f.notifier.calls)

	err = f.svc.HandleCallback(ctx, "good", callback(t, tripay.CallbackPayload{Reference: "nope", MerchantRef: "nope", Status: "PAID"}))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCallbackRollsBackWhenAwardFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)
	res, err := f.svc.Checkout(ctx, f.client, b.ID, "BRIVA")
	require.NoError(t, err)
	f.store.awardErr = errBoom

	body := callback(t, tripay.CallbackPayload{Reference: res.Reference, Status: "PAID"})
	err = f.svc.HandleCallback(ctx, "good", body)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Equal(t, models.BookingPendingPayment, f.store.booking(b.ID).Status)
	assert.Equal(t, models.TransactionStatusUnpaid, f.store.transactions()[0].Status)
	assert.Empty(t, f.notifier.calls)

	f.store.awardErr = nil
	require.NoError(t, f.svc.HandleCallback(ctx, "good", body), "the gateway retry succeeds")
	assert.Equal(t, models.BookingPaid, f.store.booking(b.ID).Status)
	assert.Len(t, f.store.awards, 1)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.store.seed(models.Booking{ClientID: f.client, FreelancerID: f.owner, Status: models.BookingPaid})
	_, err := f.svc.UpdateStatus(ctx, f.client, paid.ID, models.BookingCompleted)
	assert.True(t, apperrors.IsValidation(err), "only the freelancer completes")
	got, err := f.svc.UpdateStatus(ctx, f.owner, paid.ID, models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, got.Status)
	assert.Equal(t, models.BookingCompleted, f.store.booking(paid.ID).Status)

	pending := f.pending(t)
	_, err = f.svc.UpdateStatus(ctx, f.client, pending.ID, models.BookingPaid)
	assert.True(t, apperrors.IsValidation(err), "only the gateway marks paid")
	_, err = f.svc.UpdateStatus(ctx, uuid.New(), pending.ID, models.BookingCancelled)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	got, err = f.svc.UpdateStatus(ctx, f.client, pending.ID, models.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, got.Status)
	assert.Equal(t, []models.BookingStatus{models.BookingCompleted, models.BookingCancelled}, f.notifier.calls)

	_, err = f.svc.UpdateStatus(ctx, f.client, pending.ID, models.BookingCancelled)
	assert.True(t, apperrors.IsValidation(err), "cancelled is terminal")
}

func TestUpdateStatusLosesRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pending(t)
	f.store.staleTransitions = true

	_, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, models.BookingCancelled)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, f.notifier.calls)
}
