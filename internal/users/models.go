package users

import (
	"strings"
	"time"
)

// Role names stored in the user_roles table. A user holds a set of
// roles; capabilities derive from the whole set, not a single column.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher || role == RoleAdmin
}

// User is an account known to the bot or the HTTP API. Telegram users
// carry a TelegramID; password-based API users carry a PasswordHash.
// The same row may carry both.
type User struct {
	ID                 string    `json:"id"`
	TelegramID         int64     `json:"telegram_id,omitempty"`
	Username           string    `json:"username,omitempty"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	PhoneNumber        string    `json:"phone_number,omitempty"`
	PasswordHash       string    `json:"-"`
	IsRegistered       bool      `json:"is_registered"`
	IsBlocked          bool      `json:"is_blocked"`
	PreferredLevel     string    `json:"preferred_level,omitempty"`
	PreferredDirection string    `json:"preferred_direction,omitempty"`
	Roles              []string  `json:"roles"`
	CreatedAt          time.Time `json:"created_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Flags collapses the role set into the checks the bot makes on every
// incoming message.
type Flags struct {
	IsStudent bool `json:"is_student"`
	IsTeacher bool `json:"is_teacher"`
	IsAdmin   bool `json:"is_admin"`
}

func (u *User) Flags() Flags {
	return Flags{
		IsStudent: u.HasRole(RoleStudent),
		IsTeacher: u.HasRole(RoleTeacher),
		IsAdmin:   u.HasRole(RoleAdmin),
	}
}
