package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
	"github.com/skillsharehub/marketplace/internal/pkg/metrics"
)

type ratingService struct {
	ratings ports.RatingRepository
	courses ports.CourseRepository
	users   ports.UserRepository
	log     zerolog.Logger
}

// NewRatingService returns a RatingService implementation.
func NewRatingService(
	ratings ports.RatingRepository,
	courses ports.CourseRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) ports.RatingService {
	return &ratingService{ratings: ratings, courses: courses, users: users, log: log}
}

// AddRating stores a user's single rating for a course and folds it into the
// course aggregate.
func (s *ratingService) AddRating(ctx context.Context, in ports.AddRatingInput) (*domain.Rating, error) {
	if !domain.ValidRatingValue(in.Value) {
		return nil, fmt.Errorf("add rating: %w", domain.ErrInvalidRatingValue)
	}
	if _, err := s.courses.FindByID(ctx, in.CourseID); err != nil {
		return nil, fmt.Errorf("add rating: %w", err)
	}

	// 1. Unique (user, course) index decides duplicates, not a prior read.
	rating, err := s.ratings.Create(ctx, &domain.Rating{
		Value:     in.Value,
		Comment:   strings.TrimSpace(in.Comment),
		UserID:    in.UserID,
		CourseID:  in.CourseID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("add rating: %w", err)
	}

	// 2. Atomic aggregate update; no read-modify-write of the average.
	if _, err := s.courses.ApplyRating(ctx, in.CourseID, rating.ID, in.Value); err != nil {
		if derr := s.ratings.Delete(context.WithoutCancel(ctx), rating.ID); derr != nil {
			s.log.Error().Err(derr).Str("rating", rating.ID).Str("course", in.CourseID).Msg("failed to remove orphaned rating")
		}
		if errors.Is(err, domain.ErrCourseNotFound) {
			return nil, fmt.Errorf("add rating: %w", err)
		}
		return nil, fmt.Errorf("add rating: update aggregate: %w", err)
	}

	metrics.RatingsAddedTotal.WithLabelValues(strconv.Itoa(in.Value)).Inc()
	s.log.Info().Str("course", in.CourseID).Str("user", in.UserID).Int("value", in.Value).Msg("rating added")
	return rating, nil
}

// GetCourseRatings lists a course's ratings with author name and email. An
// unknown course yields an empty list.
func (s *ratingService) GetCourseRatings(ctx context.Context, courseID string) ([]*domain.Rating, error) {
	ratings, err := s.ratings.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course ratings: %w", err)
	}
	if len(ratings) == 0 {
		return []*domain.Rating{}, nil
	}

	ids := make([]string, 0, len(ratings))
	seen := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get course ratings: authors: %w", err)
	}

	for _, r := range ratings {
		if u, ok := authors[r.UserID]; ok {
			r.Author = &domain.RatingAuthor{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return ratings, nil
}
