package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/example/storefront/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestGateway() *Gateway {
	return NewGateway(GatewayConfig{
		QRBaseURL:         "https://pay.example.com/qr/",
		BankName:          "Test Bank",
		BankAccountName:   "Storefront Ltd.",
		BankAccountNumber: "6222000011112222",
	})
}

// ============================================
// Instruction Tests
// ============================================

func TestGateway_QRCodeMethods(t *testing.T) {
	gateway := newTestGateway()

	for _, method := range []Method{MethodAlipay, MethodWechat} {
		t.Run(string(method), func(t *testing.T) {
			in, err := gateway.Instructions(method, "order-1", 10000, testNow)

			require.NoError(t, err)
			assert.Equal(t, method, in.PaymentMethod)
			assert.Equal(t, money.Amount(10000), in.Amount)
			assert.True(t, strings.HasPrefix(in.QRCodeURL, "https://pay.example.com/qr/"+string(method)+"?"))
			assert.Contains(t, in.QRCodeURL, "order=order-1")
			assert.Contains(t, in.QRCodeURL, "amount=100.00")
			assert.Nil(t, in.BankInfo)
			assert.Equal(t, testNow.Add(15*time.Minute), in.ExpiresAt)
		})
	}
}

func TestGateway_BankTransfer(t *testing.T) {
	gateway := newTestGateway()

	in, err := gateway.Instructions(MethodBankTransfer, "a1b2c3d4-e5f6-7890-abcd-ef0123456789", 5000, testNow)

	require.NoError(t, err)
	assert.Empty(t, in.QRCodeURL)
	require.NotNil(t, in.BankInfo)
	assert.Equal(t, "Test Bank", in.BankInfo.BankName)
	assert.Equal(t, "Storefront Ltd.", in.BankInfo.AccountName)
	assert.Equal(t, "6222000011112222", in.BankInfo.AccountNumber)
	assert.Equal(t, "ORD-A1B2C3D4E5F6", in.BankInfo.Reference)
	assert.Equal(t, testNow.Add(72*time.Hour), in.ExpiresAt)
}

func TestGateway_UnsupportedMethod(t *testing.T) {
	gateway := newTestGateway()

	in, err := gateway.Instructions(Method("paypal"), "order-1", 10000, testNow)

	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Nil(t, in)
}

func TestMethod_IsSupported(t *testing.T) {
	assert.True(t, MethodAlipay.IsSupported())
	assert.True(t, NormalizeMethod(" WeChat ").IsSupported())
	assert.True(t, MethodBankTransfer.IsSupported())
	assert.False(t, Method("cash").IsSupported())
}

// ============================================
// Ledger Tests
// ============================================

func TestNewRefundRecord_NegatesTotal(t *testing.T) {
	rec := NewRefundRecord("order-1", 10000, MethodAlipay, "用户取消", testNow)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, money.Amount(-10000), rec.Amount)
	assert.Equal(t, RecordRefunded, rec.Status)
	assert.Contains(t, rec.Note, "用户取消")
}

func TestNewPaymentRecord(t *testing.T) {
	rec := NewPaymentRecord("order-1", 10000, MethodWechat, "txn-9", testNow)

	assert.Equal(t, money.Amount(10000), rec.Amount)
	assert.Equal(t, RecordCompleted, rec.Status)
	assert.Equal(t, "txn-9", rec.TransactionID)
	assert.Equal(t, testNow, rec.CreatedAt)
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(10000, 10000))
	assert.ErrorIs(t, CheckAmount(9999, 10000), ErrAmountMismatch)
}

// ============================================
// Signature Tests
// ============================================

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"orderId":"order-1","paymentMethod":"alipay"}`)
	header := Sign(body, "whsec")

	assert.True(t, strings.HasPrefix(header, "sha256="))
	assert.True(t, VerifySignature(body, header, "whsec"))
	assert.False(t, VerifySignature(body, header, "other-secret"))
	assert.False(t, VerifySignature([]byte(`{"orderId":"order-2"}`), header, "whsec"))
	assert.False(t, VerifySignature(body, "sha256=zz", "whsec"))
	assert.False(t, VerifySignature(body, strings.TrimPrefix(header, "sha256="), "whsec"))
	assert.False(t, VerifySignature(body, Sign(body, ""), ""))
}
