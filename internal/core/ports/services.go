package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// ---------------------------------------------------------------------------
// Enrollment
// ---------------------------------------------------------------------------

// CaptureInput carries the handles returned by the provider after payer approval.
type CaptureInput struct {
	StudentID string
	CourseID  string
	OrderID   string
	PayerID   string
}

// CaptureResult is returned by a successful paid enrollment.
type CaptureResult struct {
	Course  *domain.Course
	Payment json.RawMessage
	// Replayed is true when the order had already been captured earlier.
	Replayed bool
}

// EnrollmentService defines the free and paid enrollment use cases.
type EnrollmentService interface {
	EnrollFree(ctx context.Context, studentID, courseID string) (*domain.Course, error)
	CheckEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
	CreatePaidOrder(ctx context.Context, studentID, courseID string) (*OrderApproval, error)
	CapturePaidOrder(ctx context.Context, in CaptureInput) (*CaptureResult, error)
}

// ---------------------------------------------------------------------------
// Ratings
// ---------------------------------------------------------------------------

// AddRatingInput carries a single score submission.
type AddRatingInput struct {
	UserID   string
	CourseID string
	Value    int
	Comment  string
}

// RatingService defines rating submission and listing.
type RatingService interface {
	AddRating(ctx context.Context, in AddRatingInput) (*domain.Rating, error)
	GetCourseRatings(ctx context.Context, courseID string) ([]*domain.Rating, error)
}

// ---------------------------------------------------------------------------
// Courses
// ---------------------------------------------------------------------------

// Upload is a file received with a course create or update request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	// Title and Text only apply to content files.
	Title string
	Text  string
}

// CreateCourseInput carries everything needed to publish a course.
type CreateCourseInput struct {
	InstructorID string
	Title        string
	Description  string
	Category     string
	Tags         []string
	Price        float64
	Content      []domain.ContentItem
	Image        *Upload
	Files        []Upload
}

// UpdateCourseInput carries a partial course update.
type UpdateCourseInput struct {
	CourseID string
	Actor    Actor
	Patch    CoursePatch
	Image    *Upload
}

// CourseService defines the course catalogue use cases.
type CourseService interface {
	Create(ctx context.Context, in CreateCourseInput) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, error)
	Get(ctx context.Context, id string) (*domain.Course, error)
	Update(ctx context.Context, in UpdateCourseInput) (*domain.Course, error)
	Delete(ctx context.Context, id string, actor Actor) error
}

// ---------------------------------------------------------------------------
// Auth and administration
// ---------------------------------------------------------------------------

// RegisterInput carries the details of a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// DashboardStats is the admin overview of the marketplace.
type DashboardStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalStudents    int64 `json:"totalStudents"`
	TotalInstructors int64 `json:"totalInstructors"`
	TotalCourses     int64 `json:"totalCourses"`
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
	UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error)
}
