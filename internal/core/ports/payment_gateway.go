package ports

import (
	"context"
	"encoding/json"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// OrderItem is a single line item of a provider order.
type OrderItem struct {
	Name     string
	SKU      string
	Price    string // decimal with exactly two fraction digits
	Currency string
	Quantity int
}

// OrderRequest describes a one-off provider order to be approved by the payer.
type OrderRequest struct {
	Items       []OrderItem
	Total       string
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

// OrderApproval is returned once the provider accepted the order.
type OrderApproval struct {
	OrderID     string
	ApprovalURL string
}

// GatewayCapture is the normalized result of executing an approved order.
type GatewayCapture struct {
	Outcome domain.CaptureOutcome
	State   string          // provider state, verbatim
	Raw     json.RawMessage // full provider response
}

// PaymentGateway is the outbound port to the payment provider. Failures are
// reported as *domain.PaymentGatewayError.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderApproval, error)
	CaptureOrder(ctx context.Context, orderID, payerID string) (*GatewayCapture, error)
}
