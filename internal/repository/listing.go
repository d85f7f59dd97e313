package repository

import (
	"context"
	"time"

	"github.com/citymarket/marketplace/internal/domain"
)

// ListListingsInput filters a listing page. Exactly one of CityID or UserID
// is the scope, depending on which List method receives it.
type ListListingsInput struct {
	CityID     string
	UserID     string
	CategoryID string // empty = all categories
	Status     domain.ListingStatus
	Limit      int
	Offset     int
}

// ListingChanges holds the fields an owner may edit. Owner and city are not
// among them.
type ListingChanges struct {
	Title       string
	Description string
	Price       float64
	Negotiable  bool
	Condition   domain.Condition
	Status      domain.ListingStatus
	CategoryID  string
}

// ListingRepository has no unscoped reads or writes. Every method is
// filtered by a city, an owner, or both.
type ListingRepository interface {
	ListByCity(ctx context.Context, input ListListingsInput) ([]*domain.Listing, error)
	ListByOwner(ctx context.Context, input ListListingsInput) ([]*domain.Listing, error)
	GetByIDInCity(ctx context.Context, id, cityID string) (*domain.Listing, error)
	GetByIDForOwner(ctx context.Context, id, userID string) (*domain.Listing, error)

	// Create persists l with its images. l.UserID and l.CityID must be set.
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	// Update, Delete and AddImage match on id, user and city together and
	// return ErrListingNotFound when nothing matched.
	Update(ctx context.Context, id string, scope domain.Scope, changes ListingChanges) (*domain.Listing, error)
	Delete(ctx context.Context, id string, scope domain.Scope) error
	// AddImage appends url as the last image, or returns ErrImageLimit when
	// the listing already holds maxImages.
	AddImage(ctx context.Context, id string, scope domain.Scope, url string, maxImages int) (*domain.ListingImage, error)

	// ExpireStale marks up to limit ACTIVE listings created before cutoff as
	// EXPIRED and returns how many changed.
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
