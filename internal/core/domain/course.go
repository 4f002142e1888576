package domain

import (
	"strings"
	"time"
)

// ContentKind classifies a single piece of course material.
type ContentKind string

const (
	ContentVideo    ContentKind = "video"
	ContentPDF      ContentKind = "pdf"
	ContentQuiz     ContentKind = "quiz"
	ContentResource ContentKind = "resource"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentVideo, ContentPDF, ContentQuiz, ContentResource:
		return true
	}
	return false
}

// ContentKindFromMIME maps an uploaded file's MIME type to a content kind.
func ContentKindFromMIME(mime string) ContentKind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return ContentVideo
	case mime == "application/pdf":
		return ContentPDF
	default:
		return ContentResource
	}
}

// ContentItem is an ordered piece of material owned by a course.
type ContentItem struct {
	Title string      `json:"title"`
	Kind  ContentKind `json:"type"`
	URL   string      `json:"url,omitempty"`
	Text  string      `json:"content,omitempty"`
}

// Course is the aggregate root of the marketplace. EnrolledStudents holds
// each student ID at most once; RatingSum and RatingCount back AverageRating.
type Course struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Category         string        `json:"category,omitempty"`
	Tags             []string      `json:"tags"`
	Price            float64       `json:"price"`
	InstructorID     string        `json:"instructor"`
	ImageURL         string        `json:"imageUrl,omitempty"`
	Content          []ContentItem `json:"content"`
	EnrolledStudents []string      `json:"enrolledStudents"`
	Ratings          []string      `json:"ratings"`
	AverageRating    float64       `json:"averageRating"`
	RatingSum        int           `json:"-"`
	RatingCount      int           `json:"ratingCount"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// IsFree reports whether the course can be enrolled in without payment.
func (c *Course) IsFree() bool {
	return c.Price <= 0
}

// HasStudent reports whether studentID is already enrolled.
func (c *Course) HasStudent(studentID string) bool {
	for _, id := range c.EnrolledStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// OwnedBy reports whether userID is the course's instructor.
func (c *Course) OwnedBy(userID string) bool {
	return c.InstructorID != "" && c.InstructorID == userID
}
