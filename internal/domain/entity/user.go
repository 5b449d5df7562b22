package entity

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the aggregate root for the credential store. Password holds a
// bcrypt hash, never plaintext. VerificationToken and ResetToken are one-shot:
// cleared the moment they are successfully consumed.
type User struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	Password          string
	Role              string
	IsActive          bool
	EmailVerified     bool
	VerificationToken *string
	ResetToken        *string
	ResetTokenExpiry  *time.Time
	LastLogin         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PublicUser is the sanitized projection returned by the API. It never carries
// the password hash or any one-shot token material.
type PublicUser struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Public returns the sanitized projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

// FullName joins first and last name for email greetings.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
