package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrderConfirmationBody(t *testing.T) {
	items := []OrderItem{
		{ProductID: "prod-1", Name: "Mug", Quantity: 2, UnitPrice: 250000},
		{ProductID: "prod-2", Quantity: 1, UnitPrice: 999},
	}

	body := BuildOrderConfirmationBody("Alice", "order-12345678-abcd", 500999, items)

	assert.Contains(t, body, "Alice，您好")
	assert.Contains(t, body, "order-12345678-abcd")
	assert.Contains(t, body, "¥2,500.00")
	assert.Contains(t, body, "¥5,000.00")
	assert.Contains(t, body, "prod-2")
	assert.Contains(t, body, "¥5,009.99")
}

func TestBuildOrderConfirmationBody_EscapesUserText(t *testing.T) {
	items := []OrderItem{{ProductID: "p", Name: "<script>alert(1)</script>", Quantity: 1, UnitPrice: 100}}

	body := BuildOrderConfirmationBody("<b>Eve</b>", "o-1", 100, items)

	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "<b>Eve</b>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestBuildCancellationBody(t *testing.T) {
	withRefund := BuildCancellationBody("Bob", "o-1", "用户取消", 10000, true)
	assert.Contains(t, withRefund, "用户取消")
	assert.Contains(t, withRefund, "退款金额")
	assert.Contains(t, withRefund, "¥100.00")

	noRefund := BuildCancellationBody("", "o-1", "用户取消", 0, false)
	assert.Contains(t, noRefund, "顾客，您好")
	assert.NotContains(t, noRefund, "退款金额")
}

func TestBuildPaymentReceiptBody(t *testing.T) {
	body := BuildPaymentReceiptBody("Carol", "o-1", "wechat", "wx-42", 123456)

	assert.Contains(t, body, "微信支付")
	assert.Contains(t, body, "wx-42")
	assert.Contains(t, body, "¥1,234.56")

	noTxn := BuildPaymentReceiptBody("Carol", "o-1", "bank_transfer", "", 100)
	assert.Contains(t, noTxn, "银行转账")
	assert.NotContains(t, noTxn, "交易号")
}

type recordingSender struct {
	to, subject, body string
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return nil
}

func TestService_Subjects(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender)

	assert.NoError(t, svc.SendOrderConfirmation("a@example.com", "A", "0123456789abcdef", 100, nil))
	assert.Equal(t, "a@example.com", sender.to)
	assert.Contains(t, sender.subject, "01234567）")

	assert.NoError(t, svc.SendCancellation("a@example.com", "A", "short", "r", 0, false))
	assert.Contains(t, sender.subject, "short")

	assert.NoError(t, svc.SendPaymentReceipt("a@example.com", "A", "o-1", "alipay", "", 100))
	assert.Contains(t, sender.subject, "支付成功")
}
