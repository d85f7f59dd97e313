package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `
	u.id, u.first_name, u.last_name, u.email, u.phone, u.password_hash,
	u.city_id, c.name, c.slug, u.avatar_url, u.role, u.is_verified,
	u.rating, u.rating_count, u.created_at, u.updated_at`

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, phone, password_hash, city_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.CityID,
	).Scan(&id)
	if err != nil {
		switch code, constraint := pgCode(err); {
		case code == codeUniqueViolation && constraint == "users_email_key":
			return nil, domain.ErrEmailTaken
		case code == codeUniqueViolation && constraint == "users_phone_key":
			return nil, domain.ErrPhoneTaken
		case code == codeForeignKeyViolation:
			return nil, domain.ErrInvalidCity
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users u JOIN cities c ON c.id = u.city_id
		WHERE u.id = $1`, id)
	u, err := scanUser(row)
	if err != nil && isMalformedID(err) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users u JOIN cities c ON c.id = u.city_id
		WHERE u.email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1)`, phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return exists, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u    domain.User
		city domain.CitySummary
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.CityID, &city.Name, &city.Slug, &u.AvatarURL, &u.Role, &u.IsVerified,
		&u.Rating, &u.RatingCount, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	city.ID = u.CityID
	u.City = &city
	return &u, nil
}
