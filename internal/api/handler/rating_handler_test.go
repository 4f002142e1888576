package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

func TestRatingHandler_Add_Created(t *testing.T) {
	e := newEcho()
	stub := &stubRatingService{
		addFn: func(ctx context.Context, in ports.AddRatingInput) (*domain.Rating, error) {
			if in.UserID != "s1" || in.CourseID != "c1" || in.Value != 4 || in.Comment != "great" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Rating{ID: "r1", Value: 4, Comment: "great", CourseID: "c1"}, nil
		},
	}
	handler := NewRatingHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/api/ratings/c1", `{"rating":4,"comment":"great"}`, "s1", domain.RoleStudent)
	c.SetParamNames("courseId")
	c.SetParamValues("c1")

	if err := handler.Add(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Message string         `json:"message"`
		Rating  map[string]any `json:"rating"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "Rating added successfully" || resp.Rating["rating"] != float64(4) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRatingHandler_Add_ServiceValidation(t *testing.T) {
	e := newEcho()
	stub := &stubRatingService{
		addFn: func(ctx context.Context, in ports.AddRatingInput) (*domain.Rating, error) {
			return nil, domain.ErrInvalidRatingValue
		},
	}
	handler := NewRatingHandler(stub)

	c, _ := newContext(e, http.MethodPost, "/api/ratings/c1", `{"rating":9}`, "s1", domain.RoleStudent)
	if err := handler.Add(c); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRatingHandler_List(t *testing.T) {
	e := newEcho()
	stub := &stubRatingService{
		listFn: func(ctx context.Context, courseID string) ([]*domain.Rating, error) {
			return []*domain.Rating{}, nil
		},
	}
	handler := NewRatingHandler(stub)

	c, rec := newContext(e, http.MethodGet, "/api/ratings/unknown", "", "", "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
}
