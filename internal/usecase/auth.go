package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/email"
	"github.com/citymarket/marketplace/internal/metrics"
	"github.com/citymarket/marketplace/internal/repository"
)

// minPhoneDigits is the shortest phone number accepted after stripping
// formatting characters.
const minPhoneDigits = 10

const welcomeEmailTimeout = 10 * time.Second

// PasswordHasher is satisfied by *password.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	Equalize(password string)
}

type AuthUsecase struct {
	users  repository.UserRepository
	cities repository.CityRepository
	hasher PasswordHasher
	email  email.Sender
	logger *slog.Logger
}

func NewAuthUsecase(
	users repository.UserRepository,
	cities repository.CityRepository,
	hasher PasswordHasher,
	emailSender email.Sender,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		cities: cities,
		hasher: hasher,
		email:  emailSender,
		logger: logger.With("component", "auth_usecase"),
	}
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	CityID    string
}

// Signup creates an account in an active city. Email is compared
// case-insensitively and phone by digits only.
func (u *AuthUsecase) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	emailAddr := domain.NormalizeEmail(input.Email)
	phone := domain.NormalizePhone(input.Phone)
	if len(phone) < minPhoneDigits {
		verr := domain.NewValidationError()
		verr.Add("phone", "Please enter a valid phone number")
		return nil, verr
	}

	taken, err := u.users.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	taken, err = u.users.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return nil, domain.ErrPhoneTaken
	}

	city, err := u.cities.GetActiveByID(ctx, input.CityID)
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			return nil, domain.ErrInvalidCity
		}
		return nil, fmt.Errorf("get city: %w", err)
	}

	hash, err := u.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// Concurrent signups can still race past the exists checks; the unique
	// constraints catch that and Create maps it to the same errors.
	user, err := u.users.Create(ctx, &domain.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        emailAddr,
		Phone:        phone,
		PasswordHash: hash,
		CityID:       city.ID,
		Role:         domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrPhoneTaken) || errors.Is(err, domain.ErrInvalidCity) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.SignupsTotal.Inc()

	subject, body := email.Welcome(user.FirstName, city.Name)
	go u.sendWelcome(context.WithoutCancel(ctx), user.ID, user.Email, subject, body)

	return user, nil
}

// sendWelcome runs after the response is written. Failures are logged only.
func (u *AuthUsecase) sendWelcome(ctx context.Context, userID, to, subject, body string) {
	ctx, cancel := context.WithTimeout(ctx, welcomeEmailTimeout)
	defer cancel()
	if err := u.email.Send(ctx, to, subject, body); err != nil {
		u.logger.WarnContext(ctx, "welcome email", "user_id", userID, "error", err)
	}
}

// Login returns the user for a matching email and password. Unknown email
// and wrong password both return ErrInvalidCredentials after the same amount
// of hashing work.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*domain.User, error) {
	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.hasher.Equalize(password)
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !u.hasher.Verify(password, user.PasswordHash) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return user, nil
}

// Me loads the profile behind a session. A session for a user that no
// longer exists is ErrUserNotFound.
func (u *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
