package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

type adminService struct {
	users   ports.UserRepository
	courses ports.CourseRepository
	log     zerolog.Logger
}

// NewAdminService returns an AdminService implementation.
func NewAdminService(users ports.UserRepository, courses ports.CourseRepository, log zerolog.Logger) ports.AdminService {
	return &adminService{users: users, courses: courses, log: log}
}

func (s *adminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Dashboard gathers the marketplace counters concurrently.
func (s *adminService) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	var stats ports.DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, role string) {
		g.Go(func() error {
			n, err := s.users.CountByRole(gctx, role)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&stats.TotalUsers, "")
	count(&stats.TotalStudents, domain.RoleStudent)
	count(&stats.TotalInstructors, domain.RoleInstructor)
	g.Go(func() error {
		n, err := s.courses.Count(gctx)
		if err != nil {
			return err
		}
		stats.TotalCourses = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &stats, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("update role: %w: role must be one of: student instructor admin", domain.ErrValidation)
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	s.log.Info().Str("user", userID).Str("role", role).Msg("user role updated")
	return user, nil
}
