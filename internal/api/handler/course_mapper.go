package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
)

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func toContentItems(in []contentRequest) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(in))
	for _, r := range in {
		out = append(out, domain.ContentItem{Title: r.Title, Kind: domain.ContentKind(r.Type), URL: r.URL, Text: r.Text})
	}
	return out
}

func toCreateInput(req createCourseRequest, instructorID string) ports.CreateCourseInput {
	return ports.CreateCourseInput{
		InstructorID: instructorID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Tags:         req.Tags,
		Price:        req.Price,
		Content:      toContentItems(req.Content),
	}
}

func toPatch(req updateCourseRequest) ports.CoursePatch {
	p := ports.CoursePatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Price:       req.Price,
	}
	if req.Content != nil {
		items := toContentItems(*req.Content)
		p.Content = &items
	}
	return p
}

// --- multipart parsing ---

// formValue returns the first value for key and whether the key was sent.
func formValue(form *multipart.Form, key string) (string, bool) {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// formTags accepts repeated "tags" parts or a single comma-separated value.
func formTags(form *multipart.Form) ([]string, bool) {
	raw, ok := form.Value["tags"]
	if !ok {
		return nil, false
	}
	tags := []string{}
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags, true
}

func formPrice(form *multipart.Form) (*float64, error) {
	v, ok := formValue(form, "price")
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: price must be a number", domain.ErrValidation)
	}
	return &price, nil
}

func formContent(form *multipart.Form) (*[]contentRequest, error) {
	v, ok := formValue(form, "content")
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	var items []contentRequest
	if err := json.Unmarshal([]byte(v), &items); err != nil {
		return nil, fmt.Errorf("%w: content must be a JSON array", domain.ErrValidation)
	}
	return &items, nil
}

func createRequestFromForm(form *multipart.Form) (createCourseRequest, error) {
	var req createCourseRequest
	req.Title, _ = formValue(form, "title")
	req.Description, _ = formValue(form, "description")
	req.Category, _ = formValue(form, "category")
	req.Tags, _ = formTags(form)

	price, err := formPrice(form)
	if err != nil {
		return req, err
	}
	if price != nil {
		req.Price = *price
	}
	content, err := formContent(form)
	if err != nil {
		return req, err
	}
	if content != nil {
		req.Content = *content
	}
	return req, nil
}

func updateRequestFromForm(form *multipart.Form) (updateCourseRequest, error) {
	var req updateCourseRequest
	if v, ok := formValue(form, "title"); ok {
		req.Title = &v
	}
	if v, ok := formValue(form, "description"); ok {
		req.Description = &v
	}
	if v, ok := formValue(form, "category"); ok {
		req.Category = &v
	}
	if tags, ok := formTags(form); ok {
		req.Tags = &tags
	}

	var err error
	if req.Price, err = formPrice(form); err != nil {
		return req, err
	}
	if req.Content, err = formContent(form); err != nil {
		return req, err
	}
	return req, nil
}

// openedUploads holds the multipart files opened for a request.
type openedUploads struct {
	image   *ports.Upload
	files   []ports.Upload
	closers []io.Closer
}

func (o *openedUploads) Close() {
	for _, c := range o.closers {
		_ = c.Close()
	}
}

func (o *openedUploads) open(fh *multipart.FileHeader) (ports.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return ports.Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	o.closers = append(o.closers, f)
	return ports.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, nil
}

// openUploads opens courseImage (at most one) and courseFiles (at most
// maxCourseFiles). Callers must Close the result.
func openUploads(form *multipart.Form) (*openedUploads, error) {
	o := &openedUploads{}

	images := form.File["courseImage"]
	if len(images) > 1 {
		return o, fmt.Errorf("%w: only one courseImage is allowed", domain.ErrValidation)
	}
	files := form.File["courseFiles"]
	if len(files) > maxCourseFiles {
		return o, fmt.Errorf("%w: at most %d courseFiles are allowed", domain.ErrValidation, maxCourseFiles)
	}

	if len(images) == 1 {
		u, err := o.open(images[0])
		if err != nil {
			return o, err
		}
		o.image = &u
	}
	for _, fh := range files {
		u, err := o.open(fh)
		if err != nil {
			return o, err
		}
		o.files = append(o.files, u)
	}
	return o, nil
}
