package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

// CourseHandler handles the course catalogue and course media uploads.
type CourseHandler struct {
	service ports.CourseService
}

func NewCourseHandler(service ports.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// Create handles POST /api/courses.
//
// @Summary      Publish a course
// @Description  Accepts JSON, or multipart with courseImage (1) and courseFiles (up to 10).
// @Tags         courses
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCourseRequest  false  "Course details (JSON requests)"
// @Success      201   {object}  courseResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createCourseRequest
	uploads := &openedUploads{}
	defer func() { uploads.Close() }()

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return invalidPayload(err)
		}
		if req, err = createRequestFromForm(form); err != nil {
			return err
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		if uploads, err = openUploads(form); err != nil {
			return err
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := toCreateInput(req, actor.UserID)
	in.Image = uploads.image
	in.Files = uploads.files

	course, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, courseResponse{Message: "Course created successfully", Course: course})
}

// List handles GET /api/courses.
//
// @Summary      List courses
// @Tags         courses
// @Produce      json
// @Param        category    query     string  false  "Exact category"
// @Param        instructor  query     string  false  "Instructor user ID"
// @Success      200         {array}   domain.Course
// @Failure      500         {object}  ErrorResponse
// @Router       /api/courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.service.List(c.Request().Context(), ports.CourseFilter{
		Category:     c.QueryParam("category"),
		InstructorID: c.QueryParam("instructor"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// Get handles GET /api/courses/:id. A signed-in student also learns
// whether they are enrolled.
//
// @Summary      Get a course
// @Tags         courses
// @Produce      json
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  courseDetailResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	course, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	resp := courseDetailResponse{Course: course}
	if actor, ok := optionalActor(c); ok && actor.Role == domain.RoleStudent {
		resp.IsEnrolled = course.HasStudent(actor.UserID)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PATCH /api/courses/:id.
//
// @Summary      Update a course
// @Description  Owning instructor or admin. JSON, or multipart with an optional courseImage.
// @Tags         courses
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true   "Course ID"
// @Param        body  body      updateCourseRequest  false  "Fields to change"
// @Success      200   {object}  courseResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/courses/{id} [patch]
func (h *CourseHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateCourseRequest
	uploads := &openedUploads{}
	defer func() { uploads.Close() }()

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return invalidPayload(err)
		}
		if req, err = updateRequestFromForm(form); err != nil {
			return err
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
		if uploads, err = openUploads(form); err != nil {
			return err
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.service.Update(c.Request().Context(), ports.UpdateCourseInput{
		CourseID: c.Param("id"),
		Actor:    actor,
		Patch:    toPatch(req),
		Image:    uploads.image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courseResponse{Message: "Course updated successfully", Course: course})
}

// Delete handles DELETE /api/courses/:id.
//
// @Summary      Delete a course
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Course deleted successfully"})
}
