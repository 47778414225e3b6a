package tripay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	sandboxURL    = "https://tripay.co.id/api-sandbox"
	productionURL = "https://tripay.co.id/api"
)

type Config struct {
	Env          string
	APIKey       string
	PrivateKey   string
	MerchantCode string
	// CallbackURL receives payment notifications, ReturnURL is where the
	// payer lands after checkout.
	CallbackURL string
	ReturnURL   string
}

type TripayService struct {
	Client       *http.Client
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
	CallbackURL  string
	ReturnURL    string
	now          func() time.Time
}

func NewTripayService(cfg Config) *TripayService {
	baseURL := sandboxURL
	if cfg.Env == "production" {
		baseURL = productionURL
	}

	return &TripayService{
		Client:       &http.Client{Timeout: 15 * time.Second},
		APIKey:       cfg.APIKey,
		PrivateKey:   cfg.PrivateKey,
		MerchantCode: cfg.MerchantCode,
		BaseURL:      baseURL,
		CallbackURL:  cfg.CallbackURL,
		ReturnURL:    cfg.ReturnURL,
		now:          time.Now,
	}
}

type OrderItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type TransactionRequest struct {
	Method        string      `json:"method"`
	MerchantRef   string      `json:"merchant_ref"`
	Amount        int64       `json:"amount"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	OrderItems    []OrderItem `json:"order_items"`
	Callback      string      `json:"callback_url"`
	ReturnUrl     string      `json:"return_url"`
	ExpiredTime   int64       `json:"expired_time"` // Unix timestamp
	Signature     string      `json:"signature"`
}

type TransactionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Reference   string `json:"reference"`
		MerchantRef string `json:"merchant_ref"`
		CheckoutURL string `json:"checkout_url"`
		Amount      int64  `json:"amount"`
	} `json:"data"`
}

// Checkout describes one closed-payment transaction.
type Checkout struct {
	MerchantRef   string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	ItemName      string
	Method        string
}

func (s *TripayService) CreateTransaction(ctx context.Context, in Checkout) (*TransactionResponse, error) {
	// HMAC-SHA256( merchant_code + merchant_ref + amount, private_key )
	signature := s.generateSignature(fmt.Sprintf("%s%s%d", s.MerchantCode, in.MerchantRef, in.Amount))

	reqBody := TransactionRequest{
		Method:        in.Method,
		MerchantRef:   in.MerchantRef,
		Amount:        in.Amount,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		OrderItems: []OrderItem{{
			Name:     in.ItemName,
			Price:    in.Amount,
			Quantity: 1,
		}},
		Callback:    s.CallbackURL,
		ReturnUrl:   s.ReturnURL,
		ExpiredTime: s.now().Add(24 * time.Hour).Unix(),
		Signature:   signature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/transaction/create", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var apiResp TransactionResponse
	if err := s.do(req, &apiResp); err != nil {
		return nil, err
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("tripay error: %s", apiResp.Message)
	}
	return &apiResp, nil
}

type PaymentChannel struct {
	Group string `json:"group"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Fee   struct {
		Flat    interface{} `json:"flat"`
		Percent interface{} `json:"percent"`
	} `json:"total_fee"`
	IconURL string `json:"icon_url"`
	Active  bool   `json:"active"`
}

type ChannelResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    []PaymentChannel `json:"data"`
}

func (s *TripayService) GetPaymentChannels(ctx context.Context) ([]PaymentChannel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/merchant/payment-channel", nil)
	if err != nil {
		return nil, err
	}

	var apiResp ChannelResponse
	if err := s.do(req, &apiResp); err != nil {
		return nil, err
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("tripay error: %s", apiResp.Message)
	}
	return apiResp.Data, nil
}

func (s *TripayService) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// CustomerFee is the channel fee charged on top of amount, rounded up.
func CustomerFee(ch PaymentChannel, amount int64) int64 {
	fee := toFloat(ch.Fee.Flat) + float64(amount)*toFloat(ch.Fee.Percent)/100
	return int64(math.Ceil(fee))
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}

func (s *TripayService) generateSignature(data string) string {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature checks a callback: HMAC-SHA256(raw body, private key).
func (s *TripayService) ValidateSignature(incomingSig string, body []byte) bool {
	expected := s.generateSignature(string(body))
	return hmac.Equal([]byte(expected), []byte(incomingSig))
}

// CallbackPayload is the body of a payment_status callback.
type CallbackPayload struct {
	Reference         string `json:"reference"`
	MerchantRef       string `json:"merchant_ref"`
	PaymentMethod     string `json:"payment_method"`
	PaymentMethodCode string `json:"payment_method_code"`
	TotalAmount       int64  `json:"total_amount"`
	FeeMerchant       int64  `json:"fee_merchant"`
	FeeCustomer       int64  `json:"fee_customer"`
	TotalFee          int64  `json:"total_fee"`
	AmountReceived    int64  `json:"amount_received"`
	IsClosedPayment   int    `json:"is_closed_payment"`
	Status            string `json:"status"` // PAID, EXPIRED, FAILED, REFUND
	PaidAt            int64  `json:"paid_at"`
	Note              string `json:"note"`
}
