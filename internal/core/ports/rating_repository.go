package ports

import (
	"context"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	// Create returns ErrDuplicateRating when the user already rated the course.
	Create(ctx context.Context, r *domain.Rating) (*domain.Rating, error)
	Delete(ctx context.Context, id string) error
	// ListByCourse returns the course's ratings oldest first, without authors.
	ListByCourse(ctx context.Context, courseID string) ([]*domain.Rating, error)
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}
