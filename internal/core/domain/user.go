package domain

import "time"

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User models an authenticated actor in the system. Accounts created
// through Google sign-in carry a GoogleID and no password hash.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	GoogleID        string    `json:"googleId,omitempty"`
	Role            string    `json:"role"`
	EnrolledCourses []string  `json:"enrolledCourses"`
	CreatedCourses  []string  `json:"createdCourses"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
