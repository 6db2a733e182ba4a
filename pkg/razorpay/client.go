// Package razorpay is a small adapter over the official razorpay-go SDK that
// exposes only what checkout needs: remote order creation and confirmation
// signature checks.
package razorpay

import (
	"context"
	"errors"
	"fmt"

	rzp "github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when no key pair was provided.
var ErrNotConfigured = errors.New("razorpay credentials not configured")

// OrderRequest is the input for a remote order. Amount is in minor currency units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the subset of the gateway order returned to callers.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client creates gateway orders.
type Client struct {
	sdk     *rzp.Client
	keyID   string
	enabled bool
}

// NewClient constructs a client. Empty credentials produce a disabled client whose
// calls fail with ErrNotConfigured.
func NewClient(keyID, keySecret string) *Client {
	if keyID == "" || keySecret == "" {
		log.Warn().Msg("Razorpay credentials missing - gateway orders disabled")
		return &Client{keyID: keyID}
	}
	return &Client{sdk: rzp.NewClient(keyID, keySecret), keyID: keyID, enabled: true}
}

// KeyID returns the public key id handed to the hosted checkout.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates a remote order. The SDK call is synchronous; ctx is honoured
// only before the request is sent.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}

	body, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		log.Error().Err(err).Str("receipt", req.Receipt).Msg("Razorpay order create failed")
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}
	return parseOrder(body)
}

func parseOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order create: missing order id in response")
	}
	o := &Order{ID: id}
	o.Currency, _ = body["currency"].(string)
	o.Receipt, _ = body["receipt"].(string)
	o.Status, _ = body["status"].(string)
	// JSON numbers decode as float64.
	switch v := body["amount"].(type) {
	case float64:
		o.Amount = int64(v)
	case int64:
		o.Amount = v
	case int:
		o.Amount = int64(v)
	}
	return o, nil
}

// VerifyPaymentSignature reports whether signature is the hosted checkout signature
// for orderID and paymentID under keySecret. The comparison is exact.
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	return rzputils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, keySecret)
}
