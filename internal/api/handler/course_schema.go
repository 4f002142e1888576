package handler

import "github.com/skillsharehub/marketplace/internal/core/domain"

// maxCourseFiles caps the courseFiles parts of a multipart course upload.
const maxCourseFiles = 10

// --- Request / Response types ---

type contentRequest struct {
	Title string `json:"title"   validate:"required"`
	Type  string `json:"type"    validate:"required,oneof=video pdf quiz resource"`
	URL   string `json:"url"`
	Text  string `json:"content"`
}

type createCourseRequest struct {
	Title       string           `json:"title"       validate:"required"`
	Description string           `json:"description" validate:"required"`
	Category    string           `json:"category"`
	Tags        []string         `json:"tags"`
	Price       float64          `json:"price"       validate:"min=0"`
	Content     []contentRequest `json:"content"     validate:"dive"`
}

// updateCourseRequest uses pointers so absent fields stay untouched.
type updateCourseRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Tags        *[]string         `json:"tags"`
	Price       *float64          `json:"price"   validate:"omitempty,min=0"`
	Content     *[]contentRequest `json:"content" validate:"omitempty,dive"`
}

type courseResponse struct {
	Message string         `json:"message"`
	Course  *domain.Course `json:"course"`
}

// courseDetailResponse is a course plus the viewer's enrollment flag.
type courseDetailResponse struct {
	*domain.Course
	IsEnrolled bool `json:"isEnrolled"`
}
