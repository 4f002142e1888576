package handler

import (
	"encoding/json"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// --- Request / Response types ---

type captureOrderRequest struct {
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"PayerID"`
}

type enrollResponse struct {
	Message string         `json:"message"`
	Course  *domain.Course `json:"course"`
}

type enrollmentStatusResponse struct {
	IsEnrolled bool `json:"isEnrolled"`
}

type createOrderResponse struct {
	ApprovalURL string `json:"approvalUrl"`
	OrderID     string `json:"orderId"`
}

type captureOrderResponse struct {
	Message string          `json:"message"`
	Course  *domain.Course  `json:"course"`
	Payment json.RawMessage `json:"payment,omitempty"`
}
