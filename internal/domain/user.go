package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrPhoneTaken         = errors.New("an account with this phone number already exists")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string // digits only
	PasswordHash string
	CityID       string
	City         *CitySummary
	AvatarURL    *string
	Role         Role
	IsVerified   bool
	Rating       float64
	RatingCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the "First Last" form stored in sessions and shown to buyers.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// NormalizePhone strips everything but ASCII digits, so "555-123 4567" and
// "5551234567" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is who a verified session says the caller is.
type Identity struct {
	UserID string
	CityID string
	Email  *string
	Name   string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
