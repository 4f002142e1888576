package ports

import (
	"context"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// CourseFilter carries the optional query parameters for listing courses.
type CourseFilter struct {
	Category     string // exact match; empty = any
	InstructorID string // empty = any instructor
}

// CoursePatch lists the mutable course fields. Nil fields are left untouched.
type CoursePatch struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *[]string
	Price       *float64
	ImageURL    *string
	Content     *[]domain.ContentItem
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	Create(ctx context.Context, c *domain.Course) (*domain.Course, error)
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, error)
	Update(ctx context.Context, id string, patch CoursePatch) (*domain.Course, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// AddStudent appends studentID to the enrolled set in a single conditional
	// write. It returns ErrAlreadyEnrolled when the student is already present
	// and ErrCourseNotFound when the course does not exist.
	AddStudent(ctx context.Context, courseID, studentID string) (*domain.Course, error)
	// RemoveStudent pulls studentID from the enrolled set. Used as compensation.
	RemoveStudent(ctx context.Context, courseID, studentID string) error

	// ApplyRating folds value into the running aggregate, appends ratingID and
	// recomputes the average, all in one atomic update.
	ApplyRating(ctx context.Context, courseID, ratingID string, value int) (*domain.Course, error)
}
