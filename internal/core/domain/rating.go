package domain

import "time"

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// RatingAuthor is the public identity attached to a rating on reads.
type RatingAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Rating is a single user's score for a course. A user rates a course at most once.
type Rating struct {
	ID        string        `json:"id"`
	Value     int           `json:"rating"`
	Comment   string        `json:"comment,omitempty"`
	UserID    string        `json:"-"`
	CourseID  string        `json:"course"`
	Author    *RatingAuthor `json:"user,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ValidRatingValue reports whether v lies in the accepted score range.
func ValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

// AverageOf returns sum/count, or 0 for an unrated course.
func AverageOf(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
