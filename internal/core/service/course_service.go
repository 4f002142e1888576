package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
	"github.com/skillsharehub/marketplace/internal/pkg/metrics"
)

type courseService struct {
	courses ports.CourseRepository
	users   ports.UserRepository
	ratings ports.RatingRepository
	files   ports.FileStore
	log     zerolog.Logger
}

// NewCourseService returns a CourseService implementation.
func NewCourseService(
	courses ports.CourseRepository,
	users ports.UserRepository,
	ratings ports.RatingRepository,
	files ports.FileStore,
	log zerolog.Logger,
) ports.CourseService {
	return &courseService{courses: courses, users: users, ratings: ratings, files: files, log: log}
}

// Create stores uploads, persists the course and links it to its instructor.
func (s *courseService) Create(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	if err := validateCourseFields(in.Title, in.Description, in.Price, in.Content); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	if in.InstructorID == "" {
		return nil, fmt.Errorf("create course: %w: instructor is required", domain.ErrValidation)
	}

	var stored []string
	cleanup := func() {
		for _, u := range stored {
			s.removeFile(ctx, u)
		}
	}

	course := &domain.Course{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Category:         in.Category,
		Tags:             nonNil(in.Tags),
		Price:            in.Price,
		InstructorID:     in.InstructorID,
		Content:          append([]domain.ContentItem{}, in.Content...),
		EnrolledStudents: []string{},
		Ratings:          []string{},
	}

	if in.Image != nil {
		u, err := s.files.Save(ctx, in.Image.Filename, in.Image.Body)
		if err != nil {
			return nil, fmt.Errorf("create course: save image: %w", err)
		}
		stored = append(stored, u)
		course.ImageURL = u
	}

	for _, f := range in.Files {
		u, err := s.files.Save(ctx, f.Filename, f.Body)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("create course: save %s: %w", f.Filename, err)
		}
		stored = append(stored, u)

		title := f.Title
		if title == "" {
			title = f.Filename
		}
		course.Content = append(course.Content, domain.ContentItem{
			Title: title,
			Kind:  domain.ContentKindFromMIME(f.ContentType),
			URL:   u,
			Text:  f.Text,
		})
	}

	now := time.Now().UTC()
	course.CreatedAt, course.UpdatedAt = now, now

	created, err := s.courses.Create(ctx, course)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create course: %w", err)
	}

	if err := s.users.AddCreatedCourse(ctx, in.InstructorID, created.ID); err != nil {
		if derr := s.courses.Delete(context.WithoutCancel(ctx), created.ID); derr != nil {
			s.log.Error().Err(derr).Str("course", created.ID).Msg("failed to roll back course after instructor link failed")
		}
		cleanup()
		return nil, fmt.Errorf("create course: link instructor: %w", err)
	}

	metrics.CoursesPublishedTotal.Inc()
	s.log.Info().Str("course", created.ID).Str("instructor", in.InstructorID).Int("files", len(in.Files)).Msg("course created")
	return created, nil
}

func (s *courseService) List(ctx context.Context, filter ports.CourseFilter) ([]*domain.Course, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) Get(ctx context.Context, id string) (*domain.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// Update applies a partial update. Only the owning instructor or an admin may edit.
func (s *courseService) Update(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error) {
	course, err := s.courses.FindByID(ctx, in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	if !in.Actor.IsAdmin() && !course.OwnedBy(in.Actor.UserID) {
		return nil, fmt.Errorf("update course: %w", domain.ErrForbidden)
	}
	if err := validatePatch(in.Patch); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}

	patch := in.Patch
	var newImage string
	if in.Image != nil {
		newImage, err = s.files.Save(ctx, in.Image.Filename, in.Image.Body)
		if err != nil {
			return nil, fmt.Errorf("update course: save image: %w", err)
		}
		patch.ImageURL = &newImage
	}

	updated, err := s.courses.Update(ctx, in.CourseID, patch)
	if err != nil {
		if newImage != "" {
			s.removeFile(ctx, newImage)
		}
		return nil, fmt.Errorf("update course: %w", err)
	}

	if newImage != "" && course.ImageURL != "" && course.ImageURL != newImage {
		s.removeFile(ctx, course.ImageURL)
	}

	s.log.Info().Str("course", in.CourseID).Str("actor", in.Actor.UserID).Msg("course updated")
	return updated, nil
}

// Delete removes a course owned by the actor (or any course, for admins).
// References are cleaned up before the course itself so a failed cleanup
// can be retried. Cleanup runs the same way whatever the actor's role.
func (s *courseService) Delete(ctx context.Context, id string, actor ports.Actor) error {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if !actor.IsAdmin() && !course.OwnedBy(actor.UserID) {
		return fmt.Errorf("delete course: %w", domain.ErrForbidden)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if course.InstructorID == "" {
			return nil
		}
		if err := s.users.RemoveCreatedCourse(gctx, course.InstructorID, id); err != nil {
			return fmt.Errorf("unlink instructor: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.users.PullCourseEverywhere(gctx, id)
		if err != nil {
			return fmt.Errorf("unlink students: %w", err)
		}
		s.log.Debug().Str("course", id).Int64("users", n).Msg("course unlinked from enrolled users")
		return nil
	})
	g.Go(func() error {
		if _, err := s.ratings.DeleteByCourse(gctx, id); err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if course.ImageURL != "" {
		s.removeFile(ctx, course.ImageURL)
	}
	for _, item := range course.Content {
		if item.URL != "" {
			s.removeFile(ctx, item.URL)
		}
	}

	s.log.Info().Str("course", id).Str("actor", actor.UserID).Str("role", actor.Role).Msg("course deleted")
	return nil
}

// removeFile is best effort; a leftover file never fails the request.
func (s *courseService) removeFile(ctx context.Context, publicURL string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), publicURL); err != nil {
		s.log.Warn().Err(err).Str("file", publicURL).Msg("failed to remove uploaded file")
	}
}

func validateCourseFields(title, description string, price float64, content []domain.ContentItem) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return validateContent(content)
}

func validatePatch(p ports.CoursePatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", domain.ErrValidation)
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if p.Content != nil {
		return validateContent(*p.Content)
	}
	return nil
}

func validateContent(items []domain.ContentItem) error {
	for i, item := range items {
		if !item.Kind.Valid() {
			return fmt.Errorf("%w: content[%d] has unknown type %q", domain.ErrValidation, i, item.Kind)
		}
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: content[%d] title is required", domain.ErrValidation, i)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
