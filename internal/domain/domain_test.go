package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/citymarket/marketplace/internal/domain"
)

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"(555) 123-4567":  "5551234567",
		"+1 555.123.4567": "15551234567",
		"5551234567":      "5551234567",
		"call me":         "",
	}
	for in, want := range tests {
		if got := domain.NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := domain.NormalizeEmail("  Ada@Example.COM\n"); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestParseListingStatus(t *testing.T) {
	st, err := domain.ParseListingStatus("")
	if err != nil || st != domain.StatusActive {
		t.Fatalf("empty status = %q, %v; want ACTIVE", st, err)
	}
	for _, s := range []string{"ACTIVE", "SOLD", "EXPIRED", "REMOVED"} {
		if _, err := domain.ParseListingStatus(s); err != nil {
			t.Errorf("ParseListingStatus(%q): %v", s, err)
		}
	}
	for _, s := range []string{"active", "DRAFT", " SOLD"} {
		if _, err := domain.ParseListingStatus(s); !errors.Is(err, domain.ErrInvalidStatus) {
			t.Errorf("ParseListingStatus(%q) err = %v, want ErrInvalidStatus", s, err)
		}
	}
}

func TestParseCondition(t *testing.T) {
	if c, err := domain.ParseCondition("NEW"); err != nil || c != domain.ConditionNew {
		t.Fatalf("NEW = %q, %v", c, err)
	}
	for _, s := range []string{"", "new", "REFURBISHED"} {
		if _, err := domain.ParseCondition(s); !errors.Is(err, domain.ErrInvalidCondition) {
			t.Errorf("ParseCondition(%q) err = %v, want ErrInvalidCondition", s, err)
		}
	}
}

func TestIdentityAuthenticated(t *testing.T) {
	if (domain.Identity{}).Authenticated() {
		t.Error("zero identity must not be authenticated")
	}
	if !(domain.Identity{UserID: "u1", CityID: "c1"}).Authenticated() {
		t.Error("identity with user ID must be authenticated")
	}
}

func TestValidationError_MessageIsStable(t *testing.T) {
	verr := domain.NewValidationError()
	verr.Add("title", "Title is required")
	verr.Add("price", "Price must be positive")

	if verr.Empty() {
		t.Fatal("Empty = true after Add")
	}
	msg := verr.Error()
	if !strings.HasPrefix(msg, "validation failed: price:") {
		t.Errorf("Error() = %q, want fields sorted", msg)
	}
}
