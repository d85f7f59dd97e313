package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/metrics"
	"github.com/citymarket/marketplace/internal/usecase"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var springfield = &domain.City{ID: "city-1", Name: "Springfield", Slug: "springfield", IsActive: true}

func validSignup() usecase.SignupInput {
	return usecase.SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.COM ",
		Phone:     "(555) 123-4567",
		Password:  "correct horse",
		CityID:    springfield.ID,
	}
}

// newSignupDeps returns fakes where every check passes and Create echoes the
// user back with an ID.
func newSignupDeps() (*fakeUserRepo, *fakeCityRepo, *fakeEmailSender) {
	users := &fakeUserRepo{
		existsByEmail: func(_ context.Context, _ string) (bool, error) { return false, nil },
		existsByPhone: func(_ context.Context, _ string) (bool, error) { return false, nil },
		create: func(_ context.Context, u *domain.User) (*domain.User, error) {
			created := *u
			created.ID = "user-1"
			return &created, nil
		},
	}
	cities := &fakeCityRepo{
		getActiveByID: func(_ context.Context, id string) (*domain.City, error) {
			if id == springfield.ID {
				return springfield, nil
			}
			return nil, domain.ErrCityNotFound
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return nil },
	}
	return users, cities, sender
}

func newAuthUsecase(users *fakeUserRepo, cities *fakeCityRepo, sender *fakeEmailSender, hasher *fakeHasher) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(users, cities, hasher, sender, discardLogger())
}

// ---- Signup ----

func TestSignup_NormalizesAndHashes(t *testing.T) {
	users, cities, sender := newSignupDeps()
	var stored *domain.User
	users.create = func(_ context.Context, u *domain.User) (*domain.User, error) {
		stored = u
		created := *u
		created.ID = "user-1"
		return &created, nil
	}
	sentTo := make(chan string, 1)
	sender.send = func(_ context.Context, to, _, _ string) error {
		sentTo <- to
		return nil
	}

	user, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", user.ID)
	}
	if stored.Email != "ada@example.com" {
		t.Errorf("stored email = %q, want lowercased and trimmed", stored.Email)
	}
	if stored.Phone != "5551234567" {
		t.Errorf("stored phone = %q, want digits only", stored.Phone)
	}
	if stored.PasswordHash != "hashed:correct horse" {
		t.Errorf("stored hash = %q, password must be hashed", stored.PasswordHash)
	}
	if stored.CityID != springfield.ID {
		t.Errorf("stored city = %q, want %q", stored.CityID, springfield.ID)
	}
	select {
	case to := <-sentTo:
		if to != "ada@example.com" {
			t.Errorf("welcome email sent to %q", to)
		}
	case <-time.After(time.Second):
		t.Error("welcome email not sent")
	}
}

func TestSignup_WelcomeEmailOutlivesRequest(t *testing.T) {
	users, cities, sender := newSignupDeps()
	block := make(chan struct{})
	sendErr := make(chan error, 1)
	sender.send = func(ctx context.Context, _, _, _ string) error {
		<-block
		if _, ok := ctx.Deadline(); !ok {
			sendErr <- errors.New("send context has no deadline")
			return nil
		}
		sendErr <- ctx.Err()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(ctx, validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	// Signup returned while the send is still blocked; the request ending
	// must not cancel it.
	cancel()
	close(block)

	select {
	case err := <-sendErr:
		if err != nil {
			t.Errorf("send context: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("welcome email not sent")
	}
}

func TestSignup_ShortPhone_ValidationError(t *testing.T) {
	users, cities, sender := newSignupDeps()
	in := validSignup()
	in.Phone = "555-12-34"

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields["phone"]) == 0 {
		t.Errorf("expected phone field error, got %v", verr.Fields)
	}
}

func TestSignup_DuplicatePhoneDifferentFormatting_Rejected(t *testing.T) {
	users, cities, sender := newSignupDeps()
	var checked string
	users.existsByPhone = func(_ context.Context, phone string) (bool, error) {
		checked = phone
		return phone == "5551234567", nil
	}
	users.create = func(_ context.Context, _ *domain.User) (*domain.User, error) {
		t.Fatal("Create must not be called for a taken phone")
		return nil, nil
	}
	in := validSignup()
	in.Phone = "555.123.4567"

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), in)
	if !errors.Is(err, domain.ErrPhoneTaken) {
		t.Fatalf("err = %v, want ErrPhoneTaken", err)
	}
	if checked != "5551234567" {
		t.Errorf("phone checked as %q, want normalized digits", checked)
	}
}

func TestSignup_EmailTaken(t *testing.T) {
	users, cities, sender := newSignupDeps()
	users.existsByEmail = func(_ context.Context, email string) (bool, error) {
		return email == "ada@example.com", nil
	}

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), validSignup())
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSignup_UnknownCity_InvalidCity(t *testing.T) {
	users, cities, sender := newSignupDeps()
	in := validSignup()
	in.CityID = "atlantis"

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidCity) {
		t.Fatalf("err = %v, want ErrInvalidCity", err)
	}
}

func TestSignup_ConstraintRaceMapsToTaken(t *testing.T) {
	users, cities, sender := newSignupDeps()
	users.create = func(_ context.Context, _ *domain.User) (*domain.User, error) {
		return nil, domain.ErrEmailTaken
	}

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), validSignup())
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSignup_EmailFailureDoesNotFailSignup(t *testing.T) {
	users, cities, sender := newSignupDeps()
	sender.send = func(_ context.Context, _, _, _ string) error {
		return errors.New("smtp down")
	}

	if _, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), validSignup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
}

func TestSignup_RepoError_Wrapped(t *testing.T) {
	users, cities, sender := newSignupDeps()
	dbErr := errors.New("connection reset")
	users.existsByEmail = func(_ context.Context, _ string) (bool, error) { return false, dbErr }

	_, err := newAuthUsecase(users, cities, sender, &fakeHasher{}).Signup(context.Background(), validSignup())
	if !errors.Is(err, dbErr) {
		t.Fatalf("err = %v, want wrapped db error", err)
	}
	if !strings.Contains(err.Error(), "check email") {
		t.Errorf("err = %q, want context prefix", err)
	}
}

// ---- Login ----

func storedAda() *domain.User {
	return &domain.User{
		ID:           "user-1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "hashed:correct horse",
		CityID:       springfield.ID,
	}
}

func TestLogin_Success(t *testing.T) {
	var lookedUp string
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, email string) (*domain.User, error) {
			lookedUp = email
			return storedAda(), nil
		},
	}
	before := testutil.ToFloat64(metrics.LoginAttemptsTotal.WithLabelValues("success"))

	user, err := newAuthUsecase(users, &fakeCityRepo{}, &fakeEmailSender{}, &fakeHasher{}).
		Login(context.Background(), " ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", user.ID)
	}
	if lookedUp != "ada@example.com" {
		t.Errorf("looked up %q, want normalized email", lookedUp)
	}
	if got := testutil.ToFloat64(metrics.LoginAttemptsTotal.WithLabelValues("success")); got != before+1 {
		t.Errorf("success counter = %v, want %v", got, before+1)
	}
}

func TestLogin_WrongPassword_InvalidCredentials(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) { return storedAda(), nil },
	}

	_, err := newAuthUsecase(users, &fakeCityRepo{}, &fakeEmailSender{}, &fakeHasher{}).
		Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownEmail_SameErrorAndEqualizes(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) { return nil, domain.ErrUserNotFound },
	}
	hasher := &fakeHasher{}

	_, err := newAuthUsecase(users, &fakeCityRepo{}, &fakeEmailSender{}, hasher).
		Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if hasher.equalized != 1 {
		t.Errorf("Equalize called %d times, want 1", hasher.equalized)
	}
}

func TestLogin_RepoError_NotCredentialError(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) { return nil, errors.New("db down") },
	}

	_, err := newAuthUsecase(users, &fakeCityRepo{}, &fakeEmailSender{}, &fakeHasher{}).
		Login(context.Background(), "ada@example.com", "correct horse")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want wrapped upstream error", err)
	}
}

// ---- Me ----

func TestMe_DeletedUser(t *testing.T) {
	users := &fakeUserRepo{
		findByID: func(_ context.Context, _ string) (*domain.User, error) { return nil, domain.ErrUserNotFound },
	}

	_, err := newAuthUsecase(users, &fakeCityRepo{}, &fakeEmailSender{}, &fakeHasher{}).Me(context.Background(), "gone")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
