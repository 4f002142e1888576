package domain

import (
	"encoding/json"
	"time"
)

// PaymentStatus represents the lifecycle state of a paid-enrollment order.
type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "created"
	PaymentApproved PaymentStatus = "approved"
	PaymentCaptured PaymentStatus = "captured"
	PaymentDeclined PaymentStatus = "declined"
	PaymentExpired  PaymentStatus = "expired"
)

// paymentTransitions defines the allowed order state machine transitions.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:  {PaymentApproved, PaymentExpired},
	PaymentApproved: {PaymentCaptured, PaymentDeclined, PaymentExpired},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s PaymentStatus) Terminal() bool {
	return len(paymentTransitions[s]) == 0
}

// PaymentOrder tracks one provider order for one (student, course) pair.
type PaymentOrder struct {
	OrderID   string          `json:"orderId"`
	StudentID string          `json:"studentId"`
	CourseID  string          `json:"courseId"`
	Amount    string          `json:"amount"`
	Currency  string          `json:"currency"`
	Status    PaymentStatus   `json:"status"`
	PayerID   string          `json:"payerId,omitempty"`
	Provider  json.RawMessage `json:"provider,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CaptureOutcome is the normalized result of executing a provider order.
type CaptureOutcome string

const (
	OutcomeApproved CaptureOutcome = "approved"
	OutcomeDeclined CaptureOutcome = "declined"
	OutcomeOther    CaptureOutcome = "other"
)
