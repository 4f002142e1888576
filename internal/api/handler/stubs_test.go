package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context, optionally authenticated as userID/role.
func newContext(e *echo.Echo, method, target, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
	return c, rec
}

// --- service stubs ---

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubEnrollmentService struct {
	enrollFn  func(ctx context.Context, studentID, courseID string) (*domain.Course, error)
	checkFn   func(ctx context.Context, studentID, courseID string) (bool, error)
	createFn  func(ctx context.Context, studentID, courseID string) (*ports.OrderApproval, error)
	captureFn func(ctx context.Context, in ports.CaptureInput) (*ports.CaptureResult, error)
}

func (s *stubEnrollmentService) EnrollFree(ctx context.Context, studentID, courseID string) (*domain.Course, error) {
	return s.enrollFn(ctx, studentID, courseID)
}

func (s *stubEnrollmentService) CheckEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	return s.checkFn(ctx, studentID, courseID)
}

func (s *stubEnrollmentService) CreatePaidOrder(ctx context.Context, studentID, courseID string) (*ports.OrderApproval, error) {
	return s.createFn(ctx, studentID, courseID)
}

func (s *stubEnrollmentService) CapturePaidOrder(ctx context.Context, in ports.CaptureInput) (*ports.CaptureResult, error) {
	return s.captureFn(ctx, in)
}

type stubRatingService struct {
	addFn  func(ctx context.Context, in ports.AddRatingInput) (*domain.Rating, error)
	listFn func(ctx context.Context, courseID string) ([]*domain.Rating, error)
}

func (s *stubRatingService) AddRating(ctx context.Context, in ports.AddRatingInput) (*domain.Rating, error) {
	return s.addFn(ctx, in)
}

func (s *stubRatingService) GetCourseRatings(ctx context.Context, courseID string) ([]*domain.Rating, error) {
	return s.listFn(ctx, courseID)
}

type stubCourseService struct {
	createFn func(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error)
	listFn   func(ctx context.Context, f ports.CourseFilter) ([]*domain.Course, error)
	getFn    func(ctx context.Context, id string) (*domain.Course, error)
	updateFn func(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error)
	deleteFn func(ctx context.Context, id string, actor ports.Actor) error
}

func (s *stubCourseService) Create(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	return s.createFn(ctx, in)
}

func (s *stubCourseService) List(ctx context.Context, f ports.CourseFilter) ([]*domain.Course, error) {
	return s.listFn(ctx, f)
}

func (s *stubCourseService) Get(ctx context.Context, id string) (*domain.Course, error) {
	return s.getFn(ctx, id)
}

func (s *stubCourseService) Update(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error) {
	return s.updateFn(ctx, in)
}

func (s *stubCourseService) Delete(ctx context.Context, id string, actor ports.Actor) error {
	return s.deleteFn(ctx, id, actor)
}

type stubAdminService struct {
	listFn   func(ctx context.Context) ([]*domain.User, error)
	dashFn   func(ctx context.Context) (*ports.DashboardStats, error)
	updateFn func(ctx context.Context, userID, role string) (*domain.User, error)
}

func (s *stubAdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubAdminService) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	return s.dashFn(ctx)
}

func (s *stubAdminService) UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error) {
	return s.updateFn(ctx, userID, role)
}
