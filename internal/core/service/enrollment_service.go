package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
	"github.com/skillsharehub/marketplace/internal/pkg/metrics"
)

const (
	defaultCurrency       = "USD"
	defaultCaptureTimeout = 20 * time.Second
)

// CaptureLocker serializes capture attempts on the same provider order (Redis).
type CaptureLocker interface {
	Acquire(ctx context.Context, orderID string) (token string, acquired bool, err error)
	Release(ctx context.Context, orderID, token string) error
}

// EnrollmentConfig holds the settings the paid flow needs.
type EnrollmentConfig struct {
	// ClientURL is the front-end origin the payer is redirected back to.
	ClientURL      string
	Currency       string
	CaptureTimeout time.Duration
}

type enrollmentService struct {
	courses ports.CourseRepository
	users   ports.UserRepository
	orders  ports.PaymentOrderRepository
	gateway ports.PaymentGateway
	lock    CaptureLocker
	cfg     EnrollmentConfig
	log     zerolog.Logger
}

// NewEnrollmentService returns an EnrollmentService implementation.
func NewEnrollmentService(
	courses ports.CourseRepository,
	users ports.UserRepository,
	orders ports.PaymentOrderRepository,
	gateway ports.PaymentGateway,
	lock CaptureLocker,
	cfg EnrollmentConfig,
	log zerolog.Logger,
) ports.EnrollmentService {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = defaultCaptureTimeout
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")

	return &enrollmentService{
		courses: courses,
		users:   users,
		orders:  orders,
		gateway: gateway,
		lock:    lock,
		cfg:     cfg,
		log:     log,
	}
}

// EnrollFree adds the student to a free course.
func (s *enrollmentService) EnrollFree(ctx context.Context, studentID, courseID string) (*domain.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, s.fail("enroll free", err)
	}
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		return nil, s.fail("enroll free", err)
	}

	// Price is checked first so a paid course always answers the same way.
	if !course.IsFree() {
		return nil, s.fail("enroll free", domain.ErrPaidCourse)
	}
	if course.HasStudent(studentID) {
		return nil, s.fail("enroll free", domain.ErrAlreadyEnrolled)
	}

	updated, err := s.enroll(ctx, studentID, courseID)
	if err != nil {
		return nil, s.fail("enroll free", err)
	}

	metrics.EnrollmentsTotal.WithLabelValues("free").Inc()
	s.log.Info().Str("course", courseID).Str("student", studentID).Msg("student enrolled in free course")
	return updated, nil
}

// CheckEnrollment reports whether the student is enrolled in the course.
func (s *enrollmentService) CheckEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return course.HasStudent(studentID), nil
}

// CreatePaidOrder opens a provider order for a paid course and returns the
// URL the payer must visit to approve it.
func (s *enrollmentService) CreatePaidOrder(ctx context.Context, studentID, courseID string) (*ports.OrderApproval, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, s.fail("create order", err)
	}
	if course.IsFree() {
		return nil, s.fail("create order", domain.ErrFreeCourse)
	}
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		return nil, s.fail("create order", err)
	}
	if course.HasStudent(studentID) {
		return nil, s.fail("create order", domain.ErrAlreadyEnrolled)
	}

	price := strconv.FormatFloat(course.Price, 'f', 2, 64)
	req := ports.OrderRequest{
		Items: []ports.OrderItem{{
			Name:     course.Title,
			SKU:      course.ID,
			Price:    price,
			Currency: s.cfg.Currency,
			Quantity: 1,
		}},
		Total:       price,
		Currency:    s.cfg.Currency,
		Description: "Enrollment for course: " + course.Title,
		ReturnURL:   s.redirectURL(course.ID, "success"),
		CancelURL:   s.redirectURL(course.ID, "cancel"),
	}

	approval, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, s.fail("create order", err)
	}

	now := time.Now().UTC()
	order := &domain.PaymentOrder{
		OrderID:   approval.OrderID,
		StudentID: studentID,
		CourseID:  course.ID,
		Amount:    price,
		Currency:  s.cfg.Currency,
		Status:    domain.PaymentCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.fail("create order: persist", err)
	}

	metrics.PaymentOrdersCreatedTotal.Inc()
	s.log.Info().
		Str("course", course.ID).
		Str("student", studentID).
		Str("order", approval.OrderID).
		Str("amount", price).
		Msg("payment order created")

	return approval, nil
}

// CapturePaidOrder executes an approved provider order and, on success,
// enrolls the student. Replaying an already captured order returns the
// stored result without touching the provider again.
func (s *enrollmentService) CapturePaidOrder(ctx context.Context, in ports.CaptureInput) (*ports.CaptureResult, error) {
	if in.OrderID == "" || in.PayerID == "" {
		return nil, s.fail("capture order", domain.ErrMissingPaymentHandles)
	}

	order, err := s.orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, s.fail("capture order", err)
	}
	if order.StudentID != in.StudentID || order.CourseID != in.CourseID {
		return nil, s.fail("capture order", domain.ErrPaymentOrderMismatch)
	}

	if res, done, err := s.settled(ctx, order); done {
		return res, err
	}
	if _, err := s.users.FindByID(ctx, in.StudentID); err != nil {
		return nil, s.fail("capture order", err)
	}
	if err := s.ensureNotEnrolled(ctx, in); err != nil {
		return nil, err
	}

	// 1. Serialize concurrent submits of the same order.
	token, acquired, err := s.lock.Acquire(ctx, order.OrderID)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("order", order.OrderID).Msg("capture lock unavailable, relying on order status guard")
	case !acquired:
		return nil, s.fail("capture order", domain.ErrCaptureInProgress)
	default:
		defer func() {
			if rerr := s.lock.Release(context.WithoutCancel(ctx), in.OrderID, token); rerr != nil {
				s.log.Warn().Err(rerr).Str("order", in.OrderID).Msg("failed to release capture lock")
			}
		}()
	}

	// The previous holder may have finished this capture while we waited.
	order, err = s.orders.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, s.fail("capture order", err)
	}
	if res, done, err := s.settled(ctx, order); done {
		return res, err
	}
	if err := s.ensureNotEnrolled(ctx, in); err != nil {
		return nil, err
	}

	// 2. Record payer approval.
	if order.Status == domain.PaymentCreated {
		order, err = s.orders.Transition(ctx, order.OrderID, domain.PaymentCreated, domain.PaymentApproved,
			ports.PaymentOrderUpdate{PayerID: in.PayerID})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return nil, s.fail("capture order", domain.ErrCaptureInProgress)
			}
			return nil, s.fail("capture order", err)
		}
	}

	// 3. Execute with the provider under a bounded deadline. A timeout leaves
	// the order approved so the client can retry.
	captureCtx, cancel := context.WithTimeout(ctx, s.cfg.CaptureTimeout)
	defer cancel()

	capture, err := s.gateway.CaptureOrder(captureCtx, order.OrderID, in.PayerID)
	if err != nil {
		metrics.PaymentCapturesTotal.WithLabelValues("error").Inc()
		return nil, s.fail("capture order", err)
	}
	metrics.PaymentCapturesTotal.WithLabelValues(string(capture.Outcome)).Inc()

	if capture.Outcome != domain.OutcomeApproved {
		next := domain.PaymentExpired
		if capture.Outcome == domain.OutcomeDeclined {
			next = domain.PaymentDeclined
		}
		if _, terr := s.orders.Transition(ctx, order.OrderID, domain.PaymentApproved, next,
			ports.PaymentOrderUpdate{PayerID: in.PayerID, Provider: capture.Raw}); terr != nil {
			s.log.Warn().Err(terr).Str("order", order.OrderID).Str("status", string(next)).Msg("failed to record capture outcome")
		}
		s.log.Info().Str("order", order.OrderID).Str("state", capture.State).Msg("payment not approved")
		return nil, s.fail("capture order", &domain.PaymentNotApprovedError{
			OrderID: order.OrderID,
			Status:  next,
			Payload: capture.Raw,
		})
	}

	// 4. Money moved: enroll, then close the order.
	updated, err := s.enroll(ctx, in.StudentID, in.CourseID)
	if errors.Is(err, domain.ErrAlreadyEnrolled) {
		s.log.Warn().Str("order", order.OrderID).Str("student", in.StudentID).Msg("student enrolled concurrently, keeping existing enrollment")
		updated, err = s.courses.FindByID(ctx, in.CourseID)
	}
	if err != nil {
		s.log.Error().Err(err).
			Str("order", order.OrderID).
			Str("course", in.CourseID).
			Str("student", in.StudentID).
			Msg("payment captured but enrollment failed")
		return nil, s.fail("capture order: enroll", err)
	}

	if _, err := s.orders.Transition(ctx, order.OrderID, domain.PaymentApproved, domain.PaymentCaptured,
		ports.PaymentOrderUpdate{PayerID: in.PayerID, Provider: capture.Raw}); err != nil {
		s.log.Warn().Err(err).Str("order", order.OrderID).Msg("failed to mark order captured")
	}

	metrics.EnrollmentsTotal.WithLabelValues("paid").Inc()
	s.log.Info().
		Str("course", in.CourseID).
		Str("student", in.StudentID).
		Str("order", order.OrderID).
		Msg("payment captured and student enrolled")

	return &ports.CaptureResult{Course: updated, Payment: capture.Raw}, nil
}

// settled reports whether order already reached a terminal status and, if
// so, the result a capture of it yields: the stored outcome for a captured
// order, PaymentNotApproved for a declined or expired one.
func (s *enrollmentService) settled(ctx context.Context, order *domain.PaymentOrder) (*ports.CaptureResult, bool, error) {
	switch order.Status {
	case domain.PaymentCaptured:
		course, err := s.courses.FindByID(ctx, order.CourseID)
		if err != nil {
			return nil, true, s.fail("capture order", err)
		}
		metrics.PaymentCapturesTotal.WithLabelValues("replayed").Inc()
		return &ports.CaptureResult{Course: course, Payment: order.Provider, Replayed: true}, true, nil
	case domain.PaymentDeclined, domain.PaymentExpired:
		return nil, true, s.fail("capture order", &domain.PaymentNotApprovedError{
			OrderID: order.OrderID,
			Status:  order.Status,
			Payload: order.Provider,
		})
	}
	return nil, false, nil
}

func (s *enrollmentService) ensureNotEnrolled(ctx context.Context, in ports.CaptureInput) error {
	course, err := s.courses.FindByID(ctx, in.CourseID)
	if err != nil {
		return s.fail("capture order", err)
	}
	if course.HasStudent(in.StudentID) {
		return s.fail("capture order", domain.ErrAlreadyEnrolled)
	}
	return nil
}

// enroll performs the course-side conditional push followed by the
// user-side add. A failed user-side write is compensated on the course.
func (s *enrollmentService) enroll(ctx context.Context, studentID, courseID string) (*domain.Course, error) {
	course, err := s.courses.AddStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	if err := s.users.AddEnrolledCourse(ctx, studentID, courseID); err != nil {
		metrics.EnrollmentCompensationsTotal.Inc()
		if cerr := s.courses.RemoveStudent(context.WithoutCancel(ctx), courseID, studentID); cerr != nil {
			s.log.Error().Err(cerr).
				Str("course", courseID).
				Str("student", studentID).
				Msg("enrollment compensation failed, course and user are out of sync")
			return nil, fmt.Errorf("add enrolled course: %w (compensation failed: %v)", err, cerr)
		}
		return nil, fmt.Errorf("add enrolled course: %w", err)
	}

	return course, nil
}

func (s *enrollmentService) redirectURL(courseID, outcome string) string {
	return s.cfg.ClientURL + "/payment/" + url.PathEscape(courseID) + "/" + outcome
}

func (s *enrollmentService) fail(op string, err error) error {
	metrics.EnrollmentErrorsTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
	return fmt.Errorf("%s: %w", op, err)
}
