package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

type RatingHandler struct {
	service ports.RatingService
}

func NewRatingHandler(service ports.RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

type addRatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

type addRatingResponse struct {
	Message string         `json:"message"`
	Rating  *domain.Rating `json:"rating"`
}

// Add handles POST /api/ratings/:courseId.
//
// @Summary      Rate a course
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        courseId  path      string            true  "Course ID"
// @Param        body      body      addRatingRequest  true  "Score 1-5 and optional comment"
// @Success      201       {object}  addRatingResponse
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /api/ratings/{courseId} [post]
func (h *RatingHandler) Add(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req addRatingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rating, err := h.service.AddRating(c.Request().Context(), ports.AddRatingInput{
		UserID:   actor.UserID,
		CourseID: c.Param("courseId"),
		Value:    req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, addRatingResponse{Message: "Rating added successfully", Rating: rating})
}

// List handles GET /api/ratings/:courseId.
//
// @Summary      List a course's ratings, oldest first
// @Tags         ratings
// @Produce      json
// @Param        courseId  path      string  true  "Course ID"
// @Success      200       {array}   domain.Rating
// @Failure      500       {object}  ErrorResponse
// @Router       /api/ratings/{courseId} [get]
func (h *RatingHandler) List(c echo.Context) error {
	ratings, err := h.service.GetCourseRatings(c.Request().Context(), c.Param("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ratings)
}
