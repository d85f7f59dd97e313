package domain

import (
	"errors"
	"time"
)

var (
	// ErrListingNotFound covers both a missing listing and one outside the
	// caller's scope. Callers must not be able to tell the two apart.
	ErrListingNotFound  = errors.New("listing not found")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidStatus    = errors.New("invalid listing status")
	ErrInvalidCondition = errors.New("invalid listing condition")
	ErrImageLimit       = errors.New("listing image limit reached")

	// ErrScopeRequired is returned when a city-facing read arrives without a city.
	ErrScopeRequired = errors.New("city scope is required")

	// ErrScopeIntegrity means a record already matched on owner disagrees with
	// the caller's city. That is a data bug, not an ordinary auth failure.
	ErrScopeIntegrity = errors.New("listing does not belong to user's city")
)

type Condition string

const (
	ConditionNew  Condition = "NEW"
	ConditionUsed Condition = "USED"
)

func ParseCondition(s string) (Condition, error) {
	switch c := Condition(s); c {
	case ConditionNew, ConditionUsed:
		return c, nil
	}
	return "", ErrInvalidCondition
}

type ListingStatus string

const (
	StatusActive  ListingStatus = "ACTIVE"
	StatusSold    ListingStatus = "SOLD"
	StatusExpired ListingStatus = "EXPIRED"
	StatusRemoved ListingStatus = "REMOVED"
)

// ParseListingStatus maps "" to ACTIVE and rejects anything outside the enum.
func ParseListingStatus(s string) (ListingStatus, error) {
	if s == "" {
		return StatusActive, nil
	}
	switch st := ListingStatus(s); st {
	case StatusActive, StatusSold, StatusExpired, StatusRemoved:
		return st, nil
	}
	return "", ErrInvalidStatus
}

type Listing struct {
	ID          string
	UserID      string
	CityID      string
	CategoryID  string
	Title       string
	Description string
	Price       float64
	Negotiable  bool
	Condition   Condition
	Status      ListingStatus
	Images      []ListingImage
	Category    *Category
	Seller      *Seller
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListingImage struct {
	ID        string
	ListingID string
	URL       string
	Position  int
}

// Seller is the public slice of a User attached to listing reads.
type Seller struct {
	ID          string
	FirstName   string
	LastName    string
	AvatarURL   *string
	Rating      float64
	RatingCount int
}

// Scope pins a write to one owner inside one city.
type Scope struct {
	UserID string
	CityID string
}
