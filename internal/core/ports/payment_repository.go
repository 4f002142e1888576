package ports

import (
	"context"
	"encoding/json"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// PaymentOrderUpdate carries the fields written alongside a status transition.
type PaymentOrderUpdate struct {
	PayerID  string
	Provider json.RawMessage
}

// PaymentOrderRepository persists provider orders and their status machine.
type PaymentOrderRepository interface {
	Create(ctx context.Context, o *domain.PaymentOrder) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.PaymentOrder, error)
	// Transition moves the order from one status to another only if it is
	// currently in from. A lost race yields ErrInvalidTransition.
	Transition(ctx context.Context, orderID string, from, to domain.PaymentStatus, upd PaymentOrderUpdate) (*domain.PaymentOrder, error)
}
