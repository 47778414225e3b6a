package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
	"github.com/gigfolio/gigfolio_be/internal/services/users"
)

func (s *Service) Channels(ctx context.Context) ([]tripay.PaymentChannel, error) {
	chs, err := s.Gateway.GetPaymentChannels(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to fetch payment channels")
	}
	return chs, nil
}

type CheckoutResult struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	TotalAmount int64  `json:"total_amount"`
	Fee         int64  `json:"fee"`
}

// Checkout opens a hosted payment for a pending booking. An unpaid
// transaction that already exists is returned as is.
func (s *Service) Checkout(ctx context.Context, clientID, bookingID uuid.UUID, method string) (*CheckoutResult, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperrors.Validation("payment_method is required")
	}

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, apperrors.Forbidden("only the client can pay for this booking")
	}
	if b.Status != models.BookingPendingPayment {
		return nil, apperrors.Validation("booking is not awaiting payment")
	}

	open, err := s.store.OpenTransaction(ctx, b.ID)
	if err == nil {
		return &CheckoutResult{Reference: open.Reference, CheckoutURL: open.CheckoutURL, TotalAmount: open.TotalAmount, Fee: open.FeeCustomer}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperrors.Internal(err, "failed to load transactions")
	}

	chs, err := s.Gateway.GetPaymentChannels(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to calculate fees")
	}
	var channel *tripay.PaymentChannel
	for i := range chs {
		if chs[i].Code == method {
			channel = &chs[i]
			break
		}
	}
	if channel == nil {
		return nil, apperrors.Validation("invalid payment method")
	}

	previous, err := s.store.CountTransactions(ctx, b.ID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load transactions")
	}
	merchantRef := "INV-" + b.Code
	if previous > 0 {
		// expired or failed attempts keep their merchant ref
		merchantRef = fmt.Sprintf("%s-%d", merchantRef, previous+1)
	}

	fee := tripay.CustomerFee(*channel, b.Amount)
	total := b.Amount + fee

	var customerName, customerEmail string
	if b.Client != nil {
		customerName, customerEmail = b.Client.Name, b.Client.Email
	}
	resp, err := s.Gateway.CreateTransaction(ctx, tripay.Checkout{
		MerchantRef:   merchantRef,
		Amount:        total,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		ItemName:      fmt.Sprintf("%s (%s)", b.ServiceName, b.Level),
		Method:        method,
	})
	if err != nil {
		logger.Error("tripay transaction failed", "booking_id", b.ID, "error", err)
		return nil, apperrors.Internal(err, "payment gateway error")
	}

	trx := models.Transaction{
		BookingID:         b.ID,
		Reference:         resp.Data.Reference,
		MerchantRef:       merchantRef,
		PaymentMethod:     channel.Name,
		PaymentMethodCode: method,
		TotalAmount:       total,
		FeeCustomer:       fee,
		TotalFee:          fee,
		CheckoutURL:       resp.Data.CheckoutURL,
		Status:            models.TransactionStatusUnpaid,
	}
	if err := s.store.CreateTransaction(ctx, &trx); err != nil {
		// the payer can still use the link; the callback matches on merchant ref
		logger.Error("failed to save transaction", "booking_id", b.ID, "reference", trx.Reference, "error", err)
	}

	return &CheckoutResult{Reference: trx.Reference, CheckoutURL: trx.CheckoutURL, TotalAmount: total, Fee: fee}, nil
}

// HandleCallback applies a signed gateway notification. A PAID callback
// marks the booking paid and awards the client points once; repeated
// callbacks are no-ops.
func (s *Service) HandleCallback(ctx context.Context, signature string, body []byte) error {
	if signature == "" || !s.Gateway.ValidateSignature(signature, body) {
		return apperrors.Unauthorized("invalid signature")
	}

	var payload tripay.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return apperrors.Validation("invalid payload")
	}

	var paid *models.Booking
	err := s.store.InTx(ctx, func(tx Store) error {
		trx, err := tx.FindTransaction(ctx, payload.Reference, payload.MerchantRef)
		if errors.Is(err, ErrNotFound) {
			return apperrors.NotFound("transaction not found")
		}
		if err != nil {
			return err
		}

		trx.Status = models.TransactionStatus(strings.ToUpper(payload.Status))
		trx.PaymentMethod = payload.PaymentMethod
		trx.PaymentMethodCode = payload.PaymentMethodCode
		trx.TotalAmount = payload.TotalAmount
		trx.FeeMerchant = payload.FeeMerchant
		trx.FeeCustomer = payload.FeeCustomer
		trx.TotalFee = payload.TotalFee
		trx.AmountReceived = payload.AmountReceived
		trx.Note = payload.Note
		if payload.PaidAt > 0 {
			t := time.Unix(payload.PaidAt, 0)
			trx.PaidAt = &t
		}
		if err := tx.SaveTransaction(ctx, trx); err != nil {
			return err
		}

		if trx.Status != models.TransactionStatusPaid {
			return nil
		}

		b, err := tx.FindByID(ctx, trx.BookingID)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, models.BookingPaid, ActorGateway) {
			return nil
		}
		ok, err := transition(ctx, tx, b, models.BookingPaid)
		if err != nil || !ok {
			return err
		}

		if pts := users.PointsForAmount(b.Amount); pts > 0 {
			ref := b.ID
			if err := tx.AwardPoints(ctx, b.ClientID, pts, "booking "+b.Code+" paid", &ref); err != nil {
				return err
			}
		}
		paid = b
		return nil
	})
	if err != nil {
		var ae *apperrors.AppError
		if errors.As(err, &ae) {
			return ae
		}
		return apperrors.Internal(err, "failed to process callback")
	}

	if paid != nil {
		logger.Info("booking paid", "booking_id", paid.ID, "code", paid.Code)
		if s.Notifier != nil {
			s.Notifier.BookingChanged(ctx, paid)
		}
	}
	return nil
}
