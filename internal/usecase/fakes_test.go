package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	create        func(ctx context.Context, u *domain.User) (*domain.User, error)
	findByID      func(ctx context.Context, id string) (*domain.User, error)
	findByEmail   func(ctx context.Context, email string) (*domain.User, error)
	existsByEmail func(ctx context.Context, email string) (bool, error)
	existsByPhone func(ctx context.Context, phone string) (bool, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.create(ctx, u)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsByEmail(ctx, email)
}

func (r *fakeUserRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.existsByPhone(ctx, phone)
}

type fakeCityRepo struct {
	listActive      func(ctx context.Context) ([]*domain.City, error)
	getActiveBySlug func(ctx context.Context, slug string) (*domain.City, error)
	getActiveByID   func(ctx context.Context, id string) (*domain.City, error)
}

func (r *fakeCityRepo) ListActive(ctx context.Context) ([]*domain.City, error) {
	return r.listActive(ctx)
}

func (r *fakeCityRepo) GetActiveBySlug(ctx context.Context, slug string) (*domain.City, error) {
	return r.getActiveBySlug(ctx, slug)
}

func (r *fakeCityRepo) GetActiveByID(ctx context.Context, id string) (*domain.City, error) {
	return r.getActiveByID(ctx, id)
}

type fakeCategoryRepo struct {
	list func(ctx context.Context) ([]*domain.Category, error)
}

func (r *fakeCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	return r.list(ctx)
}

type fakeListingRepo struct {
	listByCity      func(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error)
	listByOwner     func(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error)
	getByIDInCity   func(ctx context.Context, id, cityID string) (*domain.Listing, error)
	getByIDForOwner func(ctx context.Context, id, userID string) (*domain.Listing, error)
	create          func(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	update          func(ctx context.Context, id string, scope domain.Scope, changes repository.ListingChanges) (*domain.Listing, error)
	delete          func(ctx context.Context, id string, scope domain.Scope) error
	addImage        func(ctx context.Context, id string, scope domain.Scope, url string, maxImages int) (*domain.ListingImage, error)
	expireStale     func(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

func (r *fakeListingRepo) ListByCity(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error) {
	return r.listByCity(ctx, input)
}

func (r *fakeListingRepo) ListByOwner(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error) {
	return r.listByOwner(ctx, input)
}

func (r *fakeListingRepo) GetByIDInCity(ctx context.Context, id, cityID string) (*domain.Listing, error) {
	return r.getByIDInCity(ctx, id, cityID)
}

func (r *fakeListingRepo) GetByIDForOwner(ctx context.Context, id, userID string) (*domain.Listing, error) {
	return r.getByIDForOwner(ctx, id, userID)
}

func (r *fakeListingRepo) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	return r.create(ctx, l)
}

func (r *fakeListingRepo) Update(ctx context.Context, id string, scope domain.Scope, changes repository.ListingChanges) (*domain.Listing, error) {
	return r.update(ctx, id, scope, changes)
}

func (r *fakeListingRepo) Delete(ctx context.Context, id string, scope domain.Scope) error {
	return r.delete(ctx, id, scope)
}

func (r *fakeListingRepo) AddImage(ctx context.Context, id string, scope domain.Scope, url string, maxImages int) (*domain.ListingImage, error) {
	return r.addImage(ctx, id, scope, url, maxImages)
}

func (r *fakeListingRepo) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return r.expireStale(ctx, cutoff, limit)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// fakeHasher "hashes" by prefixing, and counts Equalize calls.
type fakeHasher struct {
	equalized int
}

func (h *fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (h *fakeHasher) Verify(password, hash string) bool { return hash == "hashed:"+password }

func (h *fakeHasher) Equalize(string) { h.equalized++ }

type fakeUploader struct {
	upload func(ctx context.Context, data []byte, folder string) (string, error)
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	return u.upload(ctx, data, folder)
}
