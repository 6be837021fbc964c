package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/storefront/internal/money"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail through an unauthenticated SMTP relay.
type SMTPSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

// Service renders and sends the storefront's customer e-mails
type Service struct {
	sender Sender
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, name, orderID string, total money.Amount, items []OrderItem) error {
	subject := fmt.Sprintf("【订单确认】感谢您的订购（订单号: %s）", shortID(orderID))
	return s.sender.Send(to, subject, BuildOrderConfirmationBody(name, orderID, total, items))
}

func (s *Service) SendCancellation(to, name, orderID, reason string, refund money.Amount, refundRequired bool) error {
	subject := fmt.Sprintf("【订单取消】您的订单已取消（订单号: %s）", shortID(orderID))
	return s.sender.Send(to, subject, BuildCancellationBody(name, orderID, reason, refund, refundRequired))
}

func (s *Service) SendPaymentReceipt(to, name, orderID, method, transactionID string, amount money.Amount) error {
	subject := fmt.Sprintf("【支付成功】已收到您的付款（订单号: %s）", shortID(orderID))
	return s.sender.Send(to, subject, BuildPaymentReceiptBody(name, orderID, method, transactionID, amount))
}
