package repository

import (
	"context"

	"github.com/citymarket/marketplace/internal/domain"
)

type UserRepository interface {
	// Create inserts a user. Email and phone must already be normalized.
	// Returns ErrEmailTaken or ErrPhoneTaken on a unique violation.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail includes the password hash; nothing else should need it.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}
