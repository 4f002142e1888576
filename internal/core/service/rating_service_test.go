package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

func newRatingFixture() (*stubRatingRepo, *stubCourseRepo, *stubUserRepo, ports.RatingService) {
	ratings := newStubRatingRepo()
	courses := newStubCourseRepo(&domain.Course{ID: testCourseID, Title: "Go", InstructorID: "i1"})
	users := newStubUserRepo(
		&domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"},
		&domain.User{ID: "u2", Name: "Ben", Email: "ben@example.com"},
		&domain.User{ID: "u3", Name: "Cy", Email: "cy@example.com"},
	)
	return ratings, courses, users, NewRatingService(ratings, courses, users, zerolog.Nop())
}

func TestRatingService_AddRating_UpdatesAverage(t *testing.T) {
	_, courses, _, svc := newRatingFixture()
	ctx := context.Background()

	for _, in := range []struct {
		user  string
		value int
	}{{"u1", 5}, {"u2", 4}, {"u3", 2}} {
		if _, err := svc.AddRating(ctx, ports.AddRatingInput{UserID: in.user, CourseID: testCourseID, Value: in.value}); err != nil {
			t.Fatalf("AddRating(%s): %v", in.user, err)
		}
	}

	c := courses.get(testCourseID)
	if c.RatingCount != 3 || len(c.Ratings) != 3 {
		t.Fatalf("expected 3 ratings, got count=%d refs=%d", c.RatingCount, len(c.Ratings))
	}
	if math.Abs(c.AverageRating-11.0/3.0) > 1e-9 {
		t.Fatalf("expected average 3.667, got %v", c.AverageRating)
	}
}

func TestRatingService_AddRating_Duplicate(t *testing.T) {
	ratings, courses, _, svc := newRatingFixture()
	ctx := context.Background()

	if _, err := svc.AddRating(ctx, ports.AddRatingInput{UserID: "u1", CourseID: testCourseID, Value: 5}); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	_, err := svc.AddRating(ctx, ports.AddRatingInput{UserID: "u1", CourseID: testCourseID, Value: 1})
	if !errors.Is(err, domain.ErrDuplicateRating) {
		t.Fatalf("expected ErrDuplicateRating, got %v", err)
	}

	c := courses.get(testCourseID)
	if c.AverageRating != 5 || c.RatingCount != 1 {
		t.Fatalf("expected aggregate unchanged, got avg=%v count=%d", c.AverageRating, c.RatingCount)
	}
	if ratings.count() != 1 {
		t.Fatalf("expected one stored rating, got %d", ratings.count())
	}
}

func TestRatingService_AddRating_OutOfRange(t *testing.T) {
	ratings, _, _, svc := newRatingFixture()

	for _, v := range []int{0, 6, -1} {
		_, err := svc.AddRating(context.Background(), ports.AddRatingInput{UserID: "u1", CourseID: testCourseID, Value: v})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("value %d: expected ErrValidation, got %v", v, err)
		}
	}
	if ratings.count() != 0 {
		t.Fatalf("no rating should be stored")
	}
}

func TestRatingService_AddRating_CourseNotFound(t *testing.T) {
	ratings, _, _, svc := newRatingFixture()

	_, err := svc.AddRating(context.Background(), ports.AddRatingInput{UserID: "u1", CourseID: "missing", Value: 3})
	if !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if ratings.count() != 0 {
		t.Fatalf("no rating should be stored")
	}
}

func TestRatingService_AddRating_RemovesRatingWhenAggregateFails(t *testing.T) {
	ratings, courses, _, svc := newRatingFixture()
	courses.applyErr = domain.ErrCourseNotFound // course deleted between check and update

	_, err := svc.AddRating(context.Background(), ports.AddRatingInput{UserID: "u1", CourseID: testCourseID, Value: 3})
	if !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if ratings.count() != 0 || len(ratings.deleted) != 1 {
		t.Fatalf("expected orphaned rating removed, stored=%d deleted=%v", ratings.count(), ratings.deleted)
	}
}

func TestRatingService_AddRating_ConcurrentSubmissionsKeepExactAverage(t *testing.T) {
	ratings := newStubRatingRepo()
	courses := newStubCourseRepo(&domain.Course{ID: testCourseID})
	svc := NewRatingService(ratings, courses, newStubUserRepo(), zerolog.Nop())

	const n = 20
	var wg sync.WaitGroup
	sum := 0
	for i := 0; i < n; i++ {
		v := i%5 + 1
		sum += v
		wg.Add(1)
		go func(i, v int) {
			defer wg.Done()
			in := ports.AddRatingInput{UserID: "user-" + string(rune('a'+i)), CourseID: testCourseID, Value: v}
			if _, err := svc.AddRating(context.Background(), in); err != nil {
				t.Errorf("AddRating: %v", err)
			}
		}(i, v)
	}
	wg.Wait()

	c := courses.get(testCourseID)
	if c.RatingCount != n {
		t.Fatalf("expected %d ratings, got %d", n, c.RatingCount)
	}
	if want := float64(sum) / n; math.Abs(c.AverageRating-want) > 1e-9 {
		t.Fatalf("expected average %v, got %v", want, c.AverageRating)
	}
}

func TestRatingService_GetCourseRatings_AttachesAuthors(t *testing.T) {
	_, _, _, svc := newRatingFixture()
	ctx := context.Background()

	_, _ = svc.AddRating(ctx, ports.AddRatingInput{UserID: "u1", CourseID: testCourseID, Value: 5, Comment: "  great  "})
	_, _ = svc.AddRating(ctx, ports.AddRatingInput{UserID: "u2", CourseID: testCourseID, Value: 3})

	list, err := svc.GetCourseRatings(ctx, testCourseID)
	if err != nil {
		t.Fatalf("GetCourseRatings: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 ratings, got %d", len(list))
	}
	if list[0].Author == nil || list[0].Author.Name != "Ana" || list[0].Author.Email != "ana@example.com" {
		t.Fatalf("expected author info on first rating, got %+v", list[0].Author)
	}
	if list[0].Comment != "great" {
		t.Fatalf("expected trimmed comment, got %q", list[0].Comment)
	}
}

func TestRatingService_GetCourseRatings_UnknownCourseIsEmpty(t *testing.T) {
	_, _, _, svc := newRatingFixture()

	list, err := svc.GetCourseRatings(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", list)
	}
}
