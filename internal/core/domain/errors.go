package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrRatingNotFound       = errors.New("rating not found")
	ErrPaymentOrderNotFound = errors.New("payment order not found")

	ErrAlreadyEnrolled     = errors.New("student already enrolled in this course")
	ErrDuplicateRating     = errors.New("you have already rated this course")
	ErrWrongEnrollmentPath = errors.New("wrong enrollment path")
	ErrValidation          = errors.New("validation failed")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrPaymentNotApproved  = errors.New("payment not approved")
	ErrCaptureInProgress   = errors.New("payment capture already in progress")
	ErrInvalidTransition   = errors.New("invalid payment status transition")

	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

var (
	ErrPaidCourse = fmt.Errorf("%w: this is a paid course, please use the PayPal payment flow", ErrWrongEnrollmentPath)
	ErrFreeCourse = fmt.Errorf("%w: this is a free course, no payment needed", ErrWrongEnrollmentPath)

	ErrMissingPaymentHandles = fmt.Errorf("%w: missing paymentId or PayerID", ErrValidation)
	ErrPaymentOrderMismatch  = fmt.Errorf("%w: payment order does not belong to this enrollment", ErrValidation)
	ErrInvalidRatingValue    = fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRatingValue, MaxRatingValue)
)

// PaymentGatewayError carries the provider's failure payload. Retryable is
// set for transport failures and timeouts, where the provider state is unknown.
type PaymentGatewayError struct {
	StatusCode int
	Payload    json.RawMessage
	Retryable  bool
	Err        error
}

func (e *PaymentGatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payment gateway: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment gateway: %v", e.Err)
}

func (e *PaymentGatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPaymentGateway}
	}
	return []error{ErrPaymentGateway, e.Err}
}

// PaymentNotApprovedError is returned when the provider finalized an order
// in a non-approved state. Payload is the provider's capture response.
type PaymentNotApprovedError struct {
	OrderID string
	Status  PaymentStatus
	Payload json.RawMessage
}

func (e *PaymentNotApprovedError) Error() string {
	return fmt.Sprintf("payment not approved: order %s is %s", e.OrderID, e.Status)
}

func (e *PaymentNotApprovedError) Unwrap() error { return ErrPaymentNotApproved }

// Kind is the stable machine-readable error classification exposed to clients.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindAlreadyEnrolled     Kind = "AlreadyEnrolled"
	KindDuplicateRating     Kind = "DuplicateRating"
	KindWrongEnrollmentPath Kind = "WrongEnrollmentPath"
	KindValidation          Kind = "ValidationError"
	KindPaymentGateway      Kind = "PaymentGatewayError"
	KindPaymentNotApproved  Kind = "PaymentNotApproved"
	KindConflict            Kind = "Conflict"
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindInternal            Kind = "Internal"
)

// KindOf classifies err. Unknown errors are Internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRatingNotFound),
		errors.Is(err, ErrPaymentOrderNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyEnrolled):
		return KindAlreadyEnrolled
	case errors.Is(err, ErrDuplicateRating):
		return KindDuplicateRating
	case errors.Is(err, ErrWrongEnrollmentPath):
		return KindWrongEnrollmentPath
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return KindValidation
	case errors.Is(err, ErrPaymentGateway):
		return KindPaymentGateway
	case errors.Is(err, ErrPaymentNotApproved):
		return KindPaymentNotApproved
	case errors.Is(err, ErrCaptureInProgress), errors.Is(err, ErrUserExists):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}
	return KindInternal
}
