package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

const listingSelect = `
	SELECT l.id, l.user_id, l.city_id, l.category_id, l.title, l.description,
	       l.price::float8, l.negotiable, l.condition, l.status, l.created_at, l.updated_at,
	       c.id, c.name, c.slug,
	       u.id, u.first_name, u.last_name, u.avatar_url, u.rating, u.rating_count
	FROM listings l
	JOIN categories c ON c.id = l.category_id
	JOIN users u ON u.id = l.user_id`

func (r *ListingRepository) ListByCity(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error) {
	return r.list(ctx, "l.city_id", input.CityID, input)
}

func (r *ListingRepository) ListByOwner(ctx context.Context, input repository.ListListingsInput) ([]*domain.Listing, error) {
	return r.list(ctx, "l.user_id", input.UserID, input)
}

func (r *ListingRepository) list(ctx context.Context, scopeColumn, scopeValue string, input repository.ListListingsInput) ([]*domain.Listing, error) {
	if scopeValue == "" {
		return nil, domain.ErrScopeRequired
	}

	args := []any{scopeValue, input.Status}
	where := []string{scopeColumn + " = $1", "l.status = $2"}

	if input.CategoryID != "" {
		args = append(args, input.CategoryID)
		where = append(where, fmt.Sprintf("l.category_id = $%d", len(args)))
	}
	args = append(args, input.Limit, input.Offset)

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $%d OFFSET $%d`,
		listingSelect, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return []*domain.Listing{}, nil
		}
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := []*domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		if isMalformedID(err) {
			return []*domain.Listing{}, nil
		}
		return nil, fmt.Errorf("list listings: %w", err)
	}

	if err := r.attachImages(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) GetByIDInCity(ctx context.Context, id, cityID string) (*domain.Listing, error) {
	if cityID == "" {
		return nil, domain.ErrScopeRequired
	}
	return r.getOne(ctx, listingSelect+` WHERE l.id = $1 AND l.city_id = $2`, id, cityID)
}

func (r *ListingRepository) GetByIDForOwner(ctx context.Context, id, userID string) (*domain.Listing, error) {
	if userID == "" {
		return nil, domain.ErrScopeRequired
	}
	return r.getOne(ctx, listingSelect+` WHERE l.id = $1 AND l.user_id = $2`, id, userID)
}

func (r *ListingRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isMalformedID(err) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	if err := r.attachImages(ctx, []*domain.Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (_ *domain.Listing, err error) {
	if l.UserID == "" || l.CityID == "" {
		return nil, domain.ErrScopeRequired
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO listings (
			user_id, city_id, category_id, title, description,
			price, negotiable, condition, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		l.UserID, l.CityID, l.CategoryID, l.Title, l.Description,
		l.Price, l.Negotiable, l.Condition, l.Status,
	).Scan(&id)
	if err != nil {
		if code, _ := pgCode(err); code == codeForeignKeyViolation || code == codeInvalidTextRepr {
			return nil, domain.ErrInvalidCategory
		}
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	if len(l.Images) > 0 {
		batch := &pgx.Batch{}
		for i, img := range l.Images {
			batch.Queue(`INSERT INTO listing_images (listing_id, url, position) VALUES ($1, $2, $3)`, id, img.URL, i)
		}
		if err = tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("insert listing images: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return r.GetByIDForOwner(ctx, id, l.UserID)
}

func (r *ListingRepository) Update(ctx context.Context, id string, scope domain.Scope, ch repository.ListingChanges) (*domain.Listing, error) {
	if scope.UserID == "" || scope.CityID == "" {
		return nil, domain.ErrScopeRequired
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE listings
		SET    title       = $4,
		       description = $5,
		       price       = $6,
		       negotiable  = $7,
		       condition   = $8,
		       status      = $9,
		       category_id = $10,
		       updated_at  = NOW()
		WHERE id = $1 AND user_id = $2 AND city_id = $3`,
		id, scope.UserID, scope.CityID,
		ch.Title, ch.Description, ch.Price, ch.Negotiable, ch.Condition, ch.Status, ch.CategoryID,
	)
	if err != nil {
		// The listing id was resolved by the caller, so a bad reference here
		// can only be the category.
		if code, _ := pgCode(err); code == codeForeignKeyViolation || code == codeInvalidTextRepr {
			return nil, domain.ErrInvalidCategory
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrListingNotFound
	}
	return r.GetByIDForOwner(ctx, id, scope.UserID)
}

func (r *ListingRepository) Delete(ctx context.Context, id string, scope domain.Scope) error {
	if scope.UserID == "" || scope.CityID == "" {
		return domain.ErrScopeRequired
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM listings WHERE id = $1 AND user_id = $2 AND city_id = $3`,
		id, scope.UserID, scope.CityID)
	if err != nil {
		if isMalformedID(err) {
			return domain.ErrListingNotFound
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// AddImage locks the listing row so concurrent uploads to the same listing
// see each other's images before counting and picking a position.
func (r *ListingRepository) AddImage(ctx context.Context, id string, scope domain.Scope, url string, maxImages int) (_ *domain.ListingImage, err error) {
	if scope.UserID == "" || scope.CityID == "" {
		return nil, domain.ErrScopeRequired
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `
		SELECT id FROM listings
		WHERE id = $1 AND user_id = $2 AND city_id = $3
		FOR UPDATE`,
		id, scope.UserID, scope.CityID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("lock listing: %w", err)
	}

	var count, next int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MAX(position) + 1, 0)
		FROM listing_images WHERE listing_id = $1`, locked,
	).Scan(&count, &next)
	if err != nil {
		return nil, fmt.Errorf("count listing images: %w", err)
	}
	if count >= maxImages {
		return nil, domain.ErrImageLimit
	}

	var img domain.ListingImage
	err = tx.QueryRow(ctx, `
		INSERT INTO listing_images (listing_id, url, position)
		VALUES ($1, $2, $3)
		RETURNING id, listing_id, url, position`,
		locked, url, next,
	).Scan(&img.ID, &img.ListingID, &img.URL, &img.Position)
	if err != nil {
		return nil, fmt.Errorf("add listing image: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &img, nil
}

func (r *ListingRepository) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE listings
		SET    status     = 'EXPIRED',
		       updated_at = NOW()
		WHERE id IN (
			SELECT id FROM listings
			WHERE  status     = 'ACTIVE'
			  AND  created_at < $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("expire stale listings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ListingRepository) attachImages(ctx context.Context, listings []*domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	byID := make(map[string]*domain.Listing, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		l.Images = []domain.ListingImage{}
		byID[l.ID] = l
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, listing_id, url, position
		FROM listing_images
		WHERE listing_id = ANY($1::uuid[])
		ORDER BY listing_id, position ASC`, ids)
	if err != nil {
		return fmt.Errorf("load listing images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.URL, &img.Position); err != nil {
			return fmt.Errorf("scan listing image: %w", err)
		}
		if l, ok := byID[img.ListingID]; ok {
			l.Images = append(l.Images, img)
		}
	}
	return rows.Err()
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var (
		l      domain.Listing
		cat    domain.Category
		seller domain.Seller
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.CityID, &l.CategoryID, &l.Title, &l.Description,
		&l.Price, &l.Negotiable, &l.Condition, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&cat.ID, &cat.Name, &cat.Slug,
		&seller.ID, &seller.FirstName, &seller.LastName, &seller.AvatarURL, &seller.Rating, &seller.RatingCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	l.Category = &cat
	l.Seller = &seller
	return &l, nil
}
