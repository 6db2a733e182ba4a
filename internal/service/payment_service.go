package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/utils"
	"github.com/decorhaus/storefront_api/pkg/razorpay"
)

type gatewayClient interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	KeyID() string
}

// GatewayOrder is what the hosted checkout needs to open.
type GatewayOrder struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	KeyID          string `json:"keyId"`
}

// PaymentService creates gateway orders and verifies checkout confirmations.
type PaymentService struct {
	gateway  gatewayClient
	secret   string
	currency string
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(gateway gatewayClient, keySecret, currency string) *PaymentService {
	return &PaymentService{gateway: gateway, secret: keySecret, currency: currency}
}

// ToMinorUnits converts an amount in major units to the gateway's integer minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateGatewayOrder creates a remote payment order for amount.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, amount decimal.Decimal) (*GatewayOrder, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", utils.ErrInvalidInput)
	}
	receipt := utils.GenerateReceiptID()
	o, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   ToMinorUnits(amount),
		Currency: s.currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrGatewayFailure, err)
	}
	log.Info().Str("gateway_order_id", o.ID).Str("receipt", receipt).Int64("amount", o.Amount).Msg("Gateway order created")
	return &GatewayOrder{
		GatewayOrderID: o.ID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Receipt:        receipt,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks that signature is the HMAC of orderID|paymentID under the key
// secret. It has no side effects.
func (s *PaymentService) VerifyPayment(orderID, paymentID, signature string) error {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(paymentID) == "" || strings.TrimSpace(signature) == "" {
		return fmt.Errorf("order id, payment id and signature are required: %w", utils.ErrInvalidSignature)
	}
	if s.secret == "" {
		return fmt.Errorf("payment secret not configured: %w", utils.ErrInvalidSignature)
	}
	if !razorpay.VerifyPaymentSignature(orderID, paymentID, signature, s.secret) {
		return utils.ErrInvalidSignature
	}
	return nil
}
