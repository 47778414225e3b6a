package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
)

var errBoom = errors.New("boom")

type award struct {
	userID uuid.UUID
	amount int
	ref    uuid.UUID
}

// memStore keeps bookings and transactions in memory. InTx rolls every
// change back when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings map[uuid.UUID]models.Booking
	trx      []models.Transaction
	awards   []award

	// dupCodes makes Create fail with ErrDuplicate this many times
	dupCodes int
	// staleTransitions makes Transition report a lost race
	staleTransitions bool
	awardErr         error
}

func newMemStore() *memStore {
	return &memStore{bookings: map[uuid.UUID]models.Booking{}}
}

func (m *memStore) seed(b models.Booking) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Code == "" {
		b.Code = models.GenerateBookingCode()
	}
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) booking(id uuid.UUID) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) transactions() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Transaction(nil), m.trx...)
}

func (m *memStore) setTransactionStatus(ref string, status models.TransactionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.trx {
		if m.trx[i].Reference == ref {
			m.trx[i].Status = status
		}
	}
}

func (m *memStore) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dupCodes > 0 {
		m.dupCodes--
		return ErrDuplicate
	}
	b.CreatedAt = time.Now()
	m.bookings[b.ID] = *b
	return nil
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memStore) ListForUser(_ context.Context, userID uuid.UUID, status string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.ClientID != userID && b.FreelancerID != userID {
			continue
		}
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from || m.staleTransitions {
		return false, nil
	}
	b.Status = to
	m.bookings[id] = b
	return true, nil
}

func (m *memStore) OpenTransaction(_ context.Context, bookingID uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.trx) - 1; i >= 0; i-- {
		if t := m.trx[i]; t.BookingID == bookingID && t.Status == models.TransactionStatusUnpaid {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CountTransactions(_ context.Context, bookingID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.trx {
		if t.BookingID == bookingID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	m.trx = append(m.trx, *t)
	return nil
}

func (m *memStore) FindTransaction(_ context.Context, reference, merchantRef string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trx {
		if t.Reference == reference || t.MerchantRef == merchantRef {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) SaveTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.trx {
		if m.trx[i].ID == t.ID {
			m.trx[i] = *t
			return nil
		}
	}
	m.trx = append(m.trx, *t)
	return nil
}

func (m *memStore) AwardPoints(_ context.Context, userID uuid.UUID, amount int, _ string, ref *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.awardErr != nil {
		return m.awardErr
	}
	m.awards = append(m.awards, award{userID: userID, amount: amount, ref: *ref})
	return nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	bookings := make(map[uuid.UUID]models.Booking, len(m.bookings))
	for k, v := range m.bookings {
		bookings[k] = v
	}
	trx := append([]models.Transaction(nil), m.trx...)
	awards := append([]award(nil), m.awards...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.bookings, m.trx, m.awards = bookings, trx, awards
		m.mu.Unlock()
		return err
	}
	return nil
}

type fakeGateway struct {
	validSig string
	channels []tripay.PaymentChannel
	created  []tripay.Checkout
}

func (g *fakeGateway) GetPaymentChannels(context.Context) ([]tripay.PaymentChannel, error) {
	return g.channels, nil
}

func (g *fakeGateway) CreateTransaction(_ context.Context, in tripay.Checkout) (*tripay.TransactionResponse, error) {
	g.created = append(g.created, in)
	resp := &tripay.TransactionResponse{Success: true}
	resp.Data.Reference = "T" + in.MerchantRef
	resp.Data.MerchantRef = in.MerchantRef
	resp.Data.CheckoutURL = "https://pay.test/" + in.MerchantRef
	resp.Data.Amount = in.Amount
	return resp, nil
}

func (g *fakeGateway) ValidateSignature(sig string, _ []byte) bool { return sig == g.validSig }

type fakePortfolios map[uuid.UUID]*models.PortfolioSubmission

func (f fakePortfolios) FindByID(_ context.Context, id uuid.UUID) (*models.PortfolioSubmission, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, portfolio.ErrNotFound
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []models.BookingStatus
}

func (n *fakeNotifier) BookingChanged(_ context.Context, b *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, b.Status)
}
