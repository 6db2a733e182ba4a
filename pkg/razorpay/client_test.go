package razorpay

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	o, err := parseOrder(map[string]interface{}{
		"id":       "order_Abc123",
		"amount":   float64(135000),
		"currency": "INR",
		"receipt":  "rcpt_1a2b3c4d",
		"status":   "created",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_Abc123", o.ID)
	assert.Equal(t, int64(135000), o.Amount)
	assert.Equal(t, "INR", o.Currency)
	assert.Equal(t, "created", o.Status)
}

func TestParseOrderRequiresID(t *testing.T) {
	_, err := parseOrder(map[string]interface{}{"amount": float64(100)})
	assert.Error(t, err)
}

func TestDisabledClient(t *testing.T) {
	c := NewClient("", "")
	_, err := c.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyPaymentSignature(t *testing.T) {
	// hex(HMAC-SHA256("rzp_test_secret", "order_Abc123|pay_Xyz789"))
	const sig = "30f7dd1cf4b8d2ffb3ed4d0c902022cc97cbdb6919b1e0e2ece2dd79c98f4c0b"

	assert.True(t, VerifyPaymentSignature("order_Abc123", "pay_Xyz789", sig, "rzp_test_secret"))
	assert.False(t, VerifyPaymentSignature("order_Abc123", "pay_Xyz789", sig, "other_secret"))
	assert.False(t, VerifyPaymentSignature("order_Abc123", "pay_Other", sig, "rzp_test_secret"))
	assert.False(t, VerifyPaymentSignature("order_Abc123", "pay_Xyz789", strings.ToUpper(sig), "rzp_test_secret"))
}
