package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
)

func newAdminFixture() (*stubUserRepo, *stubCourseRepo) {
	users := newStubUserRepo(
		&domain.User{ID: "s1", Role: domain.RoleStudent},
		&domain.User{ID: "s2", Role: domain.RoleStudent},
		&domain.User{ID: "i1", Role: domain.RoleInstructor},
		&domain.User{ID: "a1", Role: domain.RoleAdmin},
	)
	courses := newStubCourseRepo(&domain.Course{ID: "c1"}, &domain.Course{ID: "c2"}, &domain.Course{ID: "c3"})
	return users, courses
}

func TestAdminService_Dashboard(t *testing.T) {
	users, courses := newAdminFixture()
	svc := NewAdminService(users, courses, zerolog.Nop())

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.TotalUsers != 4 || stats.TotalStudents != 2 || stats.TotalInstructors != 1 || stats.TotalCourses != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAdminService_Dashboard_PropagatesErrors(t *testing.T) {
	users, courses := newAdminFixture()
	users.countErr = errors.New("mongo down")
	svc := NewAdminService(users, courses, zerolog.Nop())

	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAdminService_UpdateUserRole(t *testing.T) {
	users, courses := newAdminFixture()
	svc := NewAdminService(users, courses, zerolog.Nop())

	user, err := svc.UpdateUserRole(context.Background(), "s1", domain.RoleInstructor)
	if err != nil || user.Role != domain.RoleInstructor {
		t.Fatalf("unexpected result: %+v %v", user, err)
	}
	if _, err := svc.UpdateUserRole(context.Background(), "s1", "superuser"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.UpdateUserRole(context.Background(), "ghost", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminService_ListUsers(t *testing.T) {
	users, courses := newAdminFixture()
	svc := NewAdminService(users, courses, zerolog.Nop())

	list, err := svc.ListUsers(context.Background())
	if err != nil || len(list) != 4 {
		t.Fatalf("expected 4 users, got %d (%v)", len(list), err)
	}
}
