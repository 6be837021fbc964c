package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/example/storefront/internal/money"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice money.Amount
}

const footer = `
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			此邮件由系统自动发送，如有疑问请联系客服。
		</p>`

// layout wraps content in the shared header and card.
func layout(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s
		%s
	</div>
</body>
</html>`, html.EscapeString(title), content, footer)
}

func greeting(name string) string {
	if name == "" {
		name = "顾客"
	}
	return fmt.Sprintf(`<p style="margin-top: 0;">%s，您好：</p>`, html.EscapeString(name))
}

func orderNumber(orderID string) string {
	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">订单号</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>`, html.EscapeString(orderID))
}

func totalLine(label string, amount money.Amount) string {
	return fmt.Sprintf(`<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">%s</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">¥%s</span>
		</div>`, label, amount.Grouped())
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(name, orderID string, total money.Amount, items []OrderItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		itemName := item.Name
		if itemName == "" {
			itemName = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">¥%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">¥%s</td>
			</tr>`,
			html.EscapeString(itemName),
			item.Quantity,
			item.UnitPrice.Grouped(),
			item.UnitPrice.Mul(item.Quantity).Grouped(),
		))
	}

	content := greeting(name) + `
		<p>感谢您的订购，我们已收到您的订单。</p>
		` + orderNumber(orderID) + fmt.Sprintf(`

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">订单内容</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">商品</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">数量</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">单价</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">小计</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>
		`, itemsHTML.String()) + totalLine("合计金额", total)

	return layout("感谢您的订购", content)
}

// BuildCancellationBody tells the customer the order is cancelled and,
// for paid orders, that the refund is on its way.
func BuildCancellationBody(name, orderID, reason string, refund money.Amount, refundRequired bool) string {
	content := greeting(name) + `
		<p>您的订单已取消。</p>
		` + orderNumber(orderID) + fmt.Sprintf(`
		<p style="color: #666;">取消原因：%s</p>
		`, html.EscapeString(reason))

	if refundRequired {
		content += `<p>退款将在3-5个工作日内原路退回。</p>
		` + totalLine("退款金额", refund)
	}
	return layout("订单已取消", content)
}

func BuildPaymentReceiptBody(name, orderID, method, transactionID string, amount money.Amount) string {
	content := greeting(name) + `
		<p>我们已收到您的付款，订单将尽快安排发货。</p>
		` + orderNumber(orderID) + fmt.Sprintf(`
		<p style="color: #666;">支付方式：%s</p>
		`, html.EscapeString(methodLabel(method)))

	if transactionID != "" {
		content += fmt.Sprintf(`<p style="color: #666;">交易号：%s</p>
		`, html.EscapeString(transactionID))
	}
	content += totalLine("支付金额", amount)
	return layout("支付成功", content)
}

func methodLabel(method string) string {
	switch method {
	case "alipay":
		return "支付宝"
	case "wechat":
		return "微信支付"
	case "bank_transfer":
		return "银行转账"
	default:
		return method
	}
}
