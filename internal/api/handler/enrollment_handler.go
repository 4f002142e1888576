package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/ports"
)

// EnrollmentHandler handles free and PayPal-paid course enrollment.
type EnrollmentHandler struct {
	service ports.EnrollmentService
}

func NewEnrollmentHandler(service ports.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Enroll handles POST /api/enrollment/:courseId.
//
// @Summary      Enroll in a free course
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string  true  "Course ID"
// @Success      200       {object}  enrollResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /api/enrollment/{courseId} [post]
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	course, err := h.service.EnrollFree(c.Request().Context(), actor.UserID, c.Param("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollResponse{Message: "Enrollment successful", Course: course})
}

// Status handles GET /api/enrollment/:courseId/status.
//
// @Summary      Check enrollment status
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string  true  "Course ID"
// @Success      200       {object}  enrollmentStatusResponse
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /api/enrollment/{courseId}/status [get]
func (h *EnrollmentHandler) Status(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	enrolled, err := h.service.CheckEnrollment(c.Request().Context(), actor.UserID, c.Param("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollmentStatusResponse{IsEnrolled: enrolled})
}

// CreateOrder handles POST /api/enrollment/:courseId/paypal/create-order.
//
// @Summary      Start a PayPal payment for a paid course
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string  true  "Course ID"
// @Success      200       {object}  createOrderResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /api/enrollment/{courseId}/paypal/create-order [post]
func (h *EnrollmentHandler) CreateOrder(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	approval, err := h.service.CreatePaidOrder(c.Request().Context(), actor.UserID, c.Param("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, createOrderResponse{ApprovalURL: approval.ApprovalURL, OrderID: approval.OrderID})
}

// CaptureOrder handles POST /api/enrollment/:courseId/paypal/capture-order.
//
// @Summary      Capture an approved PayPal payment and enroll
// @Tags         enrollment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string               true  "Course ID"
// @Param        body      body      captureOrderRequest  true  "Handles returned by PayPal after approval"
// @Success      200       {object}  captureOrderResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      409       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /api/enrollment/{courseId}/paypal/capture-order [post]
func (h *EnrollmentHandler) CaptureOrder(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req captureOrderRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(err)
	}

	result, err := h.service.CapturePaidOrder(c.Request().Context(), ports.CaptureInput{
		StudentID: actor.UserID,
		CourseID:  c.Param("courseId"),
		OrderID:   req.PaymentID,
		PayerID:   req.PayerID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, captureOrderResponse{
		Message: "Payment successful and student enrolled",
		Course:  result.Course,
		Payment: result.Payment,
	})
}
