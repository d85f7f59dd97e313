package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/media"
	"github.com/citymarket/marketplace/internal/metrics"
	"github.com/citymarket/marketplace/internal/repository"
)

const (
	defaultListingLimit = 20
	maxListingLimit     = 50
	maxListingImages    = 10
)

// ListingUsecase is the only path to listing storage. It enforces the
// scoping rules: public reads need a city, owned reads and writes need an
// identity and are filtered by it, and writes cross-check the stored city
// against the caller's.
//
// Concurrent updates to the same listing are last-write-wins.
type ListingUsecase struct {
	listings repository.ListingRepository
	users    repository.UserRepository
	uploader media.Uploader
	logger   *slog.Logger
}

func NewListingUsecase(
	listings repository.ListingRepository,
	users repository.UserRepository,
	uploader media.Uploader,
	logger *slog.Logger,
) *ListingUsecase {
	return &ListingUsecase{
		listings: listings,
		users:    users,
		uploader: uploader,
		logger:   logger.With("component", "listing_usecase"),
	}
}

type ListingFilter struct {
	CategoryID string
	Status     string // empty = ACTIVE
	Limit      int
	Offset     int
}

func (f ListingFilter) toInput() (repository.ListListingsInput, error) {
	status, err := domain.ParseListingStatus(f.Status)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("status", "Status must be one of ACTIVE, SOLD, EXPIRED, REMOVED")
		return repository.ListListingsInput{}, verr
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListingLimit
	}
	if limit > maxListingLimit {
		limit = maxListingLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	return repository.ListListingsInput{
		CategoryID: f.CategoryID,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// ListInCity returns a page of listings in one city. cityID is mandatory.
func (u *ListingUsecase) ListInCity(ctx context.Context, cityID string, f ListingFilter) ([]*domain.Listing, error) {
	if cityID == "" {
		return nil, domain.ErrScopeRequired
	}
	input, err := f.toInput()
	if err != nil {
		return nil, err
	}
	input.CityID = cityID

	listings, err := u.listings.ListByCity(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list city listings: %w", err)
	}
	return listings, nil
}

// GetInCity returns a listing only if it belongs to cityID.
func (u *ListingUsecase) GetInCity(ctx context.Context, id, cityID string) (*domain.Listing, error) {
	if cityID == "" {
		return nil, domain.ErrScopeRequired
	}
	l, err := u.listings.GetByIDInCity(ctx, id, cityID)
	if err != nil {
		return nil, fmt.Errorf("get city listing: %w", err)
	}
	return l, nil
}

// ListOwned returns a page of the caller's own listings.
func (u *ListingUsecase) ListOwned(ctx context.Context, who domain.Identity, f ListingFilter) ([]*domain.Listing, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	input, err := f.toInput()
	if err != nil {
		return nil, err
	}
	input.UserID = who.UserID

	listings, err := u.listings.ListByOwner(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list owned listings: %w", err)
	}
	return listings, nil
}

// GetOwned returns one of the caller's listings. Someone else's listing is
// ErrListingNotFound, same as a missing one.
func (u *ListingUsecase) GetOwned(ctx context.Context, who domain.Identity, id string) (*domain.Listing, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	l, err := u.listings.GetByIDForOwner(ctx, id, who.UserID)
	if err != nil {
		return nil, fmt.Errorf("get owned listing: %w", err)
	}
	return l, nil
}

type ListingInput struct {
	Title       string
	Description string
	Price       float64
	Negotiable  bool
	Condition   string
	Status      string // empty = ACTIVE on create, unchanged on update
	CategoryID  string
	ImageURLs   []string
}

func (in ListingInput) parse() (domain.Condition, domain.ListingStatus, error) {
	verr := domain.NewValidationError()
	cond, err := domain.ParseCondition(in.Condition)
	if err != nil {
		verr.Add("condition", "Condition must be NEW or USED")
	}
	status, err := domain.ParseListingStatus(in.Status)
	if err != nil {
		verr.Add("status", "Status must be one of ACTIVE, SOLD, EXPIRED, REMOVED")
	}
	if len(in.ImageURLs) > maxListingImages {
		verr.Add("images", fmt.Sprintf("At most %d images are allowed", maxListingImages))
	}
	if !verr.Empty() {
		return "", "", verr
	}
	return cond, status, nil
}

// Create stores a listing owned by the caller in the caller's city. The
// owner is re-read so the city comes from storage, and a session whose city
// no longer matches it is refused.
func (u *ListingUsecase) Create(ctx context.Context, who domain.Identity, in ListingInput) (*domain.Listing, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	cond, status, err := in.parse()
	if err != nil {
		return nil, err
	}

	owner, err := u.users.FindByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}
	if owner.CityID != who.CityID {
		return nil, u.scopeViolation(ctx, "create", "", who, owner.CityID)
	}

	images := make([]domain.ListingImage, len(in.ImageURLs))
	for i, url := range in.ImageURLs {
		images[i] = domain.ListingImage{URL: url, Position: i}
	}

	created, err := u.listings.Create(ctx, &domain.Listing{
		UserID:      owner.ID,
		CityID:      owner.CityID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Negotiable:  in.Negotiable,
		Condition:   cond,
		Status:      status,
		Images:      images,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			return nil, err
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return created, nil
}

// Update replaces the editable fields of one of the caller's listings.
// Owner and city are never taken from the input, and an omitted status
// keeps the stored one.
func (u *ListingUsecase) Update(ctx context.Context, who domain.Identity, id string, in ListingInput) (*domain.Listing, error) {
	cond, status, err := in.parse()
	if err != nil {
		return nil, err
	}
	scope, current, err := u.writableScope(ctx, who, id, "update")
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		status = current.Status
	}

	updated, err := u.listings.Update(ctx, id, scope, repository.ListingChanges{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Negotiable:  in.Negotiable,
		Condition:   cond,
		Status:      status,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			return nil, err
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return updated, nil
}

func (u *ListingUsecase) Delete(ctx context.Context, who domain.Identity, id string) error {
	scope, _, err := u.writableScope(ctx, who, id, "delete")
	if err != nil {
		return err
	}
	if err := u.listings.Delete(ctx, id, scope); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// AddImage uploads data and attaches it to one of the caller's listings.
// Scope is checked before anything is uploaded.
func (u *ListingUsecase) AddImage(ctx context.Context, who domain.Identity, id string, data []byte) (*domain.ListingImage, error) {
	scope, l, err := u.writableScope(ctx, who, id, "add_image")
	if err != nil {
		return nil, err
	}
	if len(l.Images) >= maxListingImages {
		return nil, imageLimitError()
	}
	if _, err := media.DetectImage(data); err != nil {
		return nil, err
	}

	url, err := u.uploader.Upload(ctx, data, "listings/"+id)
	if err != nil {
		if errors.Is(err, media.ErrUploadsDisabled) {
			return nil, err
		}
		return nil, fmt.Errorf("upload image: %w", err)
	}

	img, err := u.listings.AddImage(ctx, id, scope, url, maxListingImages)
	if err != nil {
		if errors.Is(err, domain.ErrImageLimit) {
			return nil, imageLimitError()
		}
		return nil, fmt.Errorf("add image: %w", err)
	}
	metrics.ImagesUploadedTotal.Inc()
	return img, nil
}

func imageLimitError() error {
	verr := domain.NewValidationError()
	verr.Add("image", fmt.Sprintf("At most %d images are allowed", maxListingImages))
	return verr
}

// writableScope fetches the listing by owner first, then checks its city
// against the caller's. The owner check alone decides "not found".
func (u *ListingUsecase) writableScope(ctx context.Context, who domain.Identity, id, op string) (domain.Scope, *domain.Listing, error) {
	if !who.Authenticated() {
		return domain.Scope{}, nil, domain.ErrUnauthorized
	}
	l, err := u.listings.GetByIDForOwner(ctx, id, who.UserID)
	if err != nil {
		return domain.Scope{}, nil, fmt.Errorf("get owned listing: %w", err)
	}
	if l.CityID != who.CityID {
		return domain.Scope{}, nil, u.scopeViolation(ctx, op, id, who, l.CityID)
	}
	return domain.Scope{UserID: who.UserID, CityID: l.CityID}, l, nil
}

func (u *ListingUsecase) scopeViolation(ctx context.Context, op, listingID string, who domain.Identity, storedCityID string) error {
	metrics.ScopeIntegrityViolationsTotal.WithLabelValues(op).Inc()
	u.logger.ErrorContext(ctx, "listing scope integrity violation",
		"scope_violation", true,
		"op", op,
		"listing_id", listingID,
		"user_id", who.UserID,
		"session_city_id", who.CityID,
		"stored_city_id", storedCityID,
	)
	return domain.ErrScopeIntegrity
}
