package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

func TestEnrollmentHandler_Enroll_Success(t *testing.T) {
	e := newEcho()
	stub := &stubEnrollmentService{
		enrollFn: func(ctx context.Context, studentID, courseID string) (*domain.Course, error) {
			if studentID != "s1" || courseID != "c1" {
				t.Fatalf("unexpected args: %s %s", studentID, courseID)
			}
			return &domain.Course{ID: "c1", EnrolledStudents: []string{"s1"}}, nil
		},
	}
	handler := NewEnrollmentHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/api/enrollment/c1", "", "s1", domain.RoleStudent)
	c.SetParamNames("courseId")
	c.SetParamValues("c1")

	if err := handler.Enroll(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Message string         `json:"message"`
		Course  *domain.Course `json:"course"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "Enrollment successful" || resp.Course == nil || !resp.Course.HasStudent("s1") {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEnrollmentHandler_Enroll_PropagatesDomainError(t *testing.T) {
	e := newEcho()
	stub := &stubEnrollmentService{
		enrollFn: func(ctx context.Context, studentID, courseID string) (*domain.Course, error) {
			return nil, domain.ErrPaidCourse
		},
	}
	handler := NewEnrollmentHandler(stub)

	c, _ := newContext(e, http.MethodPost, "/api/enrollment/c1", "", "s1", domain.RoleStudent)

	if err := handler.Enroll(c); !errors.Is(err, domain.ErrWrongEnrollmentPath) {
		t.Fatalf("expected wrong path error, got %v", err)
	}
}

func TestEnrollmentHandler_RequiresClaims(t *testing.T) {
	e := newEcho()
	handler := NewEnrollmentHandler(&stubEnrollmentService{})

	c, _ := newContext(e, http.MethodPost, "/api/enrollment/c1", "", "", "")
	if err := handler.Enroll(c); err == nil {
		t.Fatalf("expected error without claims")
	}
}

func TestEnrollmentHandler_Status(t *testing.T) {
	e := newEcho()
	stub := &stubEnrollmentService{
		checkFn: func(ctx context.Context, studentID, courseID string) (bool, error) {
			return true, nil
		},
	}
	handler := NewEnrollmentHandler(stub)

	c, rec := newContext(e, http.MethodGet, "/api/enrollment/c1/status", "", "s1", domain.RoleStudent)
	if err := handler.Status(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "{\"isEnrolled\":true}\n" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestEnrollmentHandler_CreateOrder(t *testing.T) {
	e := newEcho()
	stub := &stubEnrollmentService{
		createFn: func(ctx context.Context, studentID, courseID string) (*ports.OrderApproval, error) {
			return &ports.OrderApproval{OrderID: "PAY-1", ApprovalURL: "https://paypal.example/approve"}, nil
		},
	}
	handler := NewEnrollmentHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/api/enrollment/c1/paypal/create-order", "", "s1", domain.RoleStudent)
	if err := handler.CreateOrder(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["approvalUrl"] != "https://paypal.example/approve" || resp["orderId"] != "PAY-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEnrollmentHandler_CaptureOrder_PassesHandles(t *testing.T) {
	e := newEcho()
	stub := &stubEnrollmentService{
		captureFn: func(ctx context.Context, in ports.CaptureInput) (*ports.CaptureResult, error) {
			want := ports.CaptureInput{StudentID: "s1", CourseID: "c1", OrderID: "PAY-1", PayerID: "PAYER-9"}
			if in != want {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.CaptureResult{
				Course:  &domain.Course{ID: "c1"},
				Payment: json.RawMessage(`{"state":"approved"}`),
			}, nil
		},
	}
	handler := NewEnrollmentHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/api/enrollment/c1/paypal/capture-order",
		`{"paymentId":"PAY-1","PayerID":"PAYER-9"}`, "s1", domain.RoleStudent)
	c.SetParamNames("courseId")
	c.SetParamValues("c1")

	if err := handler.CaptureOrder(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		Message string         `json:"message"`
		Payment map[string]any `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "Payment successful and student enrolled" || resp.Payment["state"] != "approved" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEnrollmentHandler_CaptureOrder_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewEnrollmentHandler(&stubEnrollmentService{
		captureFn: func(ctx context.Context, in ports.CaptureInput) (*ports.CaptureResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	c, _ := newContext(e, http.MethodPost, "/api/enrollment/c1/paypal/capture-order", "{", "s1", domain.RoleStudent)
	if err := handler.CaptureOrder(c); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
