package ports

import (
	"context"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs returns the users found, keyed by ID. Unknown IDs are skipped.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id, role string) (*domain.User, error)
	// CountByRole counts users with role; an empty role counts everyone.
	CountByRole(ctx context.Context, role string) (int64, error)

	// AddEnrolledCourse is idempotent: adding an existing course is a no-op.
	AddEnrolledCourse(ctx context.Context, userID, courseID string) error
	AddCreatedCourse(ctx context.Context, userID, courseID string) error
	RemoveCreatedCourse(ctx context.Context, userID, courseID string) error
	// PullCourseEverywhere removes courseID from every user's enrolled list.
	PullCourseEverywhere(ctx context.Context, courseID string) (int64, error)
}
