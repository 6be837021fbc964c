package payment

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/storefront/internal/money"
)

const (
	QRCodeTTL       = 15 * time.Minute
	BankTransferTTL = 72 * time.Hour
)

type BankInfo struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Reference     string `json:"reference"`
}

// Instructions tell the customer how to complete a payment. Nothing about
// them is persisted.
type Instructions struct {
	OrderID       string       `json:"orderId"`
	PaymentMethod Method       `json:"paymentMethod"`
	Amount        money.Amount `json:"amount"`
	QRCodeURL     string       `json:"qrCodeUrl,omitempty"`
	BankInfo      *BankInfo    `json:"bankInfo,omitempty"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

type GatewayConfig struct {
	QRBaseURL         string
	BankName          string
	BankAccountName   string
	BankAccountNumber string
}

type generator func(orderID string, amount money.Amount, now time.Time) Instructions

// Gateway dispatches instruction generation by payment method.
type Gateway struct {
	cfg        GatewayConfig
	generators map[Method]generator
}

func NewGateway(cfg GatewayConfig) *Gateway {
	g := &Gateway{cfg: cfg}
	g.generators = map[Method]generator{
		MethodAlipay:       g.qrCode(MethodAlipay),
		MethodWechat:       g.qrCode(MethodWechat),
		MethodBankTransfer: g.bankTransfer,
	}
	return g
}

func (g *Gateway) Instructions(method Method, orderID string, amount money.Amount, now time.Time) (*Instructions, error) {
	gen, ok := g.generators[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	in := gen(orderID, amount, now)
	return &in, nil
}

func (g *Gateway) qrCode(method Method) generator {
	return func(orderID string, amount money.Amount, now time.Time) Instructions {
		q := url.Values{}
		q.Set("order", orderID)
		q.Set("amount", amount.String())
		return Instructions{
			OrderID:       orderID,
			PaymentMethod: method,
			Amount:        amount,
			QRCodeURL:     strings.TrimRight(g.cfg.QRBaseURL, "/") + "/" + string(method) + "?" + q.Encode(),
			ExpiresAt:     now.Add(QRCodeTTL),
		}
	}
}

func (g *Gateway) bankTransfer(orderID string, amount money.Amount, now time.Time) Instructions {
	return Instructions{
		OrderID:       orderID,
		PaymentMethod: MethodBankTransfer,
		Amount:        amount,
		BankInfo: &BankInfo{
			BankName:      g.cfg.BankName,
			AccountName:   g.cfg.BankAccountName,
			AccountNumber: g.cfg.BankAccountNumber,
			Reference:     TransferReference(orderID),
		},
		ExpiresAt: now.Add(BankTransferTTL),
	}
}

// TransferReference is the remittance reference a customer quotes on a
// bank transfer.
func TransferReference(orderID string) string {
	ref := strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))
	if len(ref) > 12 {
		ref = ref[:12]
	}
	return "ORD-" + ref
}
